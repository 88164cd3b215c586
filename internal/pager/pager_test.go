package pager

import (
	"testing"

	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/termio"
)

func TestThresholdReservesTwoRows(t *testing.T) {
	c := New(termio.New(), style.Load("plain"))
	got := c.threshold()
	if got < 1 {
		t.Fatalf("threshold() = %d, want >= 1", got)
	}
	_, rows := c.term.Size()
	want := rows - 2
	if rows < 3 {
		want = 1
	}
	if got != want {
		t.Fatalf("threshold() = %d, want %d (%d rows minus two)", got, want, rows)
	}
}

func TestBeginResetsState(t *testing.T) {
	c := New(termio.New(), style.Load("plain"))
	c.state = QuitRequested
	c.Begin(StreamingMode)
	if c.CurrentState() != CollectingPage {
		t.Fatalf("CurrentState() = %v, want CollectingPage", c.CurrentState())
	}
	if c.linesOnPage != 0 {
		t.Fatalf("linesOnPage = %d, want 0", c.linesOnPage)
	}
}

func TestPromptTextVariesByFirstPause(t *testing.T) {
	c := New(termio.New(), style.Load("plain"))
	c.Begin(StreamingMode)
	first := c.promptText()
	c.firstPause = false
	second := c.promptText()
	if first == second {
		t.Fatalf("expected first-pause prompt to differ from subsequent prompt")
	}
}

func TestEndReturnsToInactive(t *testing.T) {
	c := New(termio.New(), style.Load("plain"))
	c.Begin(StreamingMode)
	c.End()
	if c.CurrentState() != Inactive {
		t.Fatalf("CurrentState() = %v, want Inactive", c.CurrentState())
	}
}

func TestFirstPauseHintShownOncePerSession(t *testing.T) {
	c := New(termio.New(), style.Load("plain"))
	c.Begin(StreamingMode)
	if !c.firstPause {
		t.Fatal("a fresh controller should still owe the long hint")
	}
	c.firstPause = false
	c.End()
	c.Begin(StreamingMode)
	if c.firstPause {
		t.Fatal("End must not re-arm the first-pause hint; it is once per session, not once per turn")
	}
}
