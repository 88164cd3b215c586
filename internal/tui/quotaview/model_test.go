package quotaview

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clio-cli/clio/internal/billing"
)

func TestLoadReturnsSnapshotMsg(t *testing.T) {
	dir := t.TempDir()
	mgr := billing.NewManager(dir)
	if err := mgr.RecordTurn(10, 5, billing.Multiplier{Kind: billing.MultiplierStandard, Rate: 1}); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}

	m := New(mgr)
	cmd := m.load()
	msg, ok := cmd().(snapshotMsg)
	if !ok {
		t.Fatalf("cmd() returned %T, want snapshotMsg", cmd())
	}
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if msg.snap.TotalTokens() != 15 {
		t.Errorf("TotalTokens() = %d, want 15", msg.snap.TotalTokens())
	}
}

func TestQuitKeySetsQuitting(t *testing.T) {
	m := New(billing.NewManager(t.TempDir()))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected tea.Quit command")
	}
	if !m.quitting {
		t.Error("expected quitting to be set")
	}
}
