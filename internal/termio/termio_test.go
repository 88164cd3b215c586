package termio

import (
	"os"
	"strings"
	"testing"

	"github.com/clio-cli/clio/internal/ansi"
)

func TestRestoreUnwindsAltScreen(t *testing.T) {
	var out strings.Builder
	a := NewWithIO(os.Stdin, &out)

	if _, err := a.SetMode(AltScreen); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if !strings.Contains(out.String(), ansi.EnterAltScreen) {
		t.Fatal("expected the alt-screen enter sequence to be written")
	}

	a.Restore()
	if !strings.Contains(out.String(), ansi.ExitAltScreen) {
		t.Fatal("Restore should emit the alt-screen exit sequence")
	}

	// A second Restore has nothing left to unwind.
	before := out.Len()
	a.Restore()
	if out.Len() != before {
		t.Error("Restore after a full unwind should be a no-op")
	}
}

func TestDeferredRestoreRemovesItself(t *testing.T) {
	var out strings.Builder
	a := NewWithIO(os.Stdin, &out)

	restore, err := a.SetMode(AltScreen)
	if err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	restore()
	restore() // idempotent

	exits := strings.Count(out.String(), ansi.ExitAltScreen)
	if exits != 1 {
		t.Fatalf("exit sequence written %d times, want 1", exits)
	}

	// The signal path finds nothing to do once the defer already ran.
	a.Restore()
	if strings.Count(out.String(), ansi.ExitAltScreen) != 1 {
		t.Error("Restore re-ran a restore that had already completed")
	}
}
