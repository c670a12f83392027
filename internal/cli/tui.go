package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/label"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listAnchorStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LabelListModel - Interactive label browser
// =============================================================================

// LabelRow is one labeled resource.
type LabelRow struct {
	URI   string
	Label *label.Label
}

// LabelListModel is the bubbletea model for browsing the labels of one
// hierarchy. Pressing enter on a row makes it the anchor; rows the anchor
// subsumes are then marked.
type LabelListModel struct {
	Kind   hierarchy.Kind
	Rows   []LabelRow
	Cursor int
	Anchor int
	Height int
	Offset int
}

// NewLabelListModel creates a model with rows sorted by tree label, so that
// every subtree is a contiguous block below its root.
func NewLabelListModel(kind hierarchy.Kind, labels hierarchy.MapLabels) LabelListModel {
	rows := make([]LabelRow, 0, len(labels))
	for uri, l := range labels {
		rows = append(rows, LabelRow{URI: uri, Label: l})
	}
	slices.SortFunc(rows, func(a, b LabelRow) int {
		ta, tb := a.Label.Tree(), b.Label.Tree()
		if c := cmp.Compare(ta.Index, tb.Index); c != 0 {
			return c
		}
		if c := cmp.Compare(tb.Post, ta.Post); c != 0 {
			return c
		}
		return cmp.Compare(a.URI, b.URI)
	})
	return LabelListModel{Kind: kind, Rows: rows, Anchor: -1, Height: 15}
}

func (m LabelListModel) Init() tea.Cmd {
	return nil
}

func (m LabelListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			if m.Anchor == m.Cursor {
				m.Anchor = -1
			} else {
				m.Anchor = m.Cursor
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// subsumed reports whether row i lies below the anchor.
func (m LabelListModel) subsumed(i int) bool {
	if m.Anchor < 0 || i == m.Anchor {
		return false
	}
	return hierarchy.IsAncestor(m.Rows[m.Anchor].Label, m.Rows[i].Label)
}

func (m LabelListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s hierarchy", m.Kind)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ anchor  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  no labels saved"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		switch {
		case i == m.Anchor:
			mark = "●"
		case m.subsumed(i):
			mark = "⊑"
		}
		rows = append(rows, []string{
			cursor, mark, r.URI, r.Label.Tree().String(),
			strconv.Itoa(len(r.Label.Direct())), strconv.Itoa(len(r.Label.Indirect())),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Resource", "Tree", "Direct", "Indirect").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			i := m.Offset + row
			switch {
			case i >= len(m.Rows):
				return lipgloss.NewStyle()
			case i == m.Cursor:
				return listSelectedStyle
			case i == m.Anchor || m.subsumed(i):
				return listAnchorStyle
			case col >= 3:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(m.Rows[m.Cursor].Label.String()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
