package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
)

func browseFixture() LabelListModel {
	return NewLabelListModel(hierarchy.KindClass, hierarchy.MapLabels{
		"urn:ex:Dog":    label.New(interval.New(31, 60)),
		"urn:ex:Animal": label.New(interval.New(1, 100)),
		"urn:ex:Mammal": label.New(interval.New(2, 61)),
		"urn:ex:Bird":   label.New(interval.New(62, 90)),
	})
}

func press(m LabelListModel, key string) LabelListModel {
	var msg tea.KeyMsg
	switch key {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(LabelListModel)
}

func TestLabelListOrder(t *testing.T) {
	m := browseFixture()
	var got []string
	for _, r := range m.Rows {
		got = append(got, r.URI)
	}
	want := []string{"urn:ex:Animal", "urn:ex:Mammal", "urn:ex:Dog", "urn:ex:Bird"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestLabelListNavigation(t *testing.T) {
	m := browseFixture()
	m = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	for range 10 {
		m = press(m, "j")
	}
	if m.Cursor != len(m.Rows)-1 {
		t.Errorf("Cursor = %d, want last row %d", m.Cursor, len(m.Rows)-1)
	}
}

func TestLabelListAnchor(t *testing.T) {
	m := browseFixture()
	m = press(m, "down") // Mammal
	m = press(m, "enter")
	if m.Anchor != 1 {
		t.Fatalf("Anchor = %d, want 1", m.Anchor)
	}
	if !m.subsumed(2) {
		t.Error("Dog should be marked below Mammal")
	}
	if m.subsumed(0) || m.subsumed(3) {
		t.Error("Animal and Bird are not below Mammal")
	}
	if !strings.Contains(m.View(), "⊑") {
		t.Error("View should mark subsumed rows")
	}

	m = press(m, "enter")
	if m.Anchor != -1 {
		t.Errorf("Anchor = %d after second enter, want -1", m.Anchor)
	}
}

func TestLabelListQuit(t *testing.T) {
	_, cmd := browseFixture().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestLabelListEmpty(t *testing.T) {
	m := NewLabelListModel(hierarchy.KindProperty, nil)
	if !strings.Contains(m.View(), "no labels saved") {
		t.Error("empty view should say so")
	}
}
