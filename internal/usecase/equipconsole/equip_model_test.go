package equipconsole

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"plantsync/internal/domain/entity"
)

func newTestModel() *equipModel {
	model := NewModel(context.Background(), nil, Options{RefreshInterval: time.Second})
	return model.(*equipModel)
}

func TestViewEmptyStore(t *testing.T) {
	m := newTestModel()

	view := m.View()
	if !strings.Contains(view, "no equipment") {
		t.Fatalf("View() missing empty marker:\n%s", view)
	}
	if !strings.Contains(view, "Equipment Console") {
		t.Fatalf("View() missing title:\n%s", view)
	}
}

func TestRecordsLoadedClampsSelection(t *testing.T) {
	m := newTestModel()
	m.selectedIndex = 5

	m.Update(recordsLoadedMsg{items: []entity.Equipment{
		{UID: "EQ-1", Code: "EQ-001", Name: "Pump"},
		{UID: "EQ-2", Code: "EQ-002", Name: "Tank"},
	}})

	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want clamped to 1", m.selectedIndex)
	}
}

func TestRecordsLoadedErrorKeepsList(t *testing.T) {
	m := newTestModel()
	m.records = []entity.Equipment{{UID: "EQ-1", Code: "EQ-001"}}

	m.Update(recordsLoadedMsg{err: context.DeadlineExceeded})

	if len(m.records) != 1 {
		t.Fatalf("records = %d, a failed refresh must not drop the list", len(m.records))
	}
	if !strings.Contains(m.status, "refresh failed") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestStaleDetailIgnored(t *testing.T) {
	m := newTestModel()
	m.records = []entity.Equipment{
		{UID: "EQ-1", Code: "EQ-001"},
		{UID: "EQ-2", Code: "EQ-002"},
	}
	m.selectedIndex = 1

	m.Update(detailLoadedMsg{uid: "EQ-1", detail: entity.Equipment{UID: "EQ-1"}})

	if m.hasDetail {
		t.Fatal("detail for a no-longer-selected record was applied")
	}
}

func TestKeyNavigation(t *testing.T) {
	m := newTestModel()
	m.records = []entity.Equipment{
		{UID: "EQ-1", Code: "EQ-001"},
		{UID: "EQ-2", Code: "EQ-002"},
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex after j = %d", m.selectedIndex)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex must stop at the end, got %d", m.selectedIndex)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if m.selectedIndex != 0 {
		t.Fatalf("selectedIndex after k = %d", m.selectedIndex)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q must return the quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("cmd() = %v, want tea.Quit", msg)
	}
}
