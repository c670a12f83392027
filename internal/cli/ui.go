package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/isalabel/pkg/manager"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - negative answers
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values and intervals.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconFailure = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconFailure = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printFailure prints a negative answer.
func printFailure(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconFailure.Render(iconFailure)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Reports
// =============================================================================

// printReport prints one table row per labeled hierarchy.
func printReport(w io.Writer, rep *manager.Report) {
	if len(rep.Kinds) == 0 {
		printInfo(w, "labels already up to date")
		return
	}
	rows := make([][]string, 0, len(rep.Kinds))
	for _, k := range rep.Kinds {
		r := k.Result
		overflow := ""
		if r.Overflowed {
			overflow = iconWarning
		}
		rows = append(rows, []string{
			k.Kind.String(),
			strconv.Itoa(r.NewRoots),
			strconv.Itoa(r.Labeled),
			strconv.Itoa(r.Relabels),
			strconv.Itoa(r.Shifted),
			overflow,
			strconv.Itoa(len(k.Changes)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Hierarchy", "Roots", "Labeled", "Relabels", "Shifted", "Overflow", "Changed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleValue
			case col == 5:
				return StyleWarning
			}
			return StyleNumber
		})
	fmt.Fprintln(w, t.Render())
}

// printChanges lists every changed resource with its old and new tree label.
func printChanges(w io.Writer, rep *manager.Report) {
	for _, k := range rep.Kinds {
		if len(k.Changes) == 0 {
			continue
		}
		fmt.Fprintln(w, StyleTitle.Render(k.Kind.String()))
		for _, ch := range k.Changes {
			old := StyleDim.Render("new")
			if !ch.Old.IsEmpty() {
				old = StyleNumber.Render(ch.Old.String())
			}
			fmt.Fprintf(w, "  %s %s %s %s\n", StyleValue.Render(ch.URI), old, StyleDim.Render(iconArrow), StyleNumber.Render(ch.New.String()))
		}
	}
}
