package sessionpicker

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clio-cli/clio/internal/chatsession"
)

func sampleSessions() []chatsession.SessionSummary {
	return []chatsession.SessionSummary{
		{ID: "11111111-aaaa", UpdatedAt: time.Now(), Preview: "first"},
		{ID: "22222222-bbbb", UpdatedAt: time.Now(), Preview: "second"},
	}
}

func TestDownMovesCursor(t *testing.T) {
	m := New(sampleSessions())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestCursorClampedAtBounds(t *testing.T) {
	m := New(sampleSessions())
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", m.cursor)
	}
}

func TestEnterSelectsAndQuits(t *testing.T) {
	m := New(sampleSessions())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
	if m.Selected() != "22222222-bbbb" {
		t.Errorf("Selected() = %q, want %q", m.Selected(), "22222222-bbbb")
	}
}

func TestQuitCancelsWithNoSelection(t *testing.T) {
	m := New(sampleSessions())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if m.Selected() != "" {
		t.Errorf("Selected() = %q, want empty on cancel", m.Selected())
	}
}
