// Package pager implements the BBS-style pagination controller: it holds
// back output once a screenful has been printed and prompts the user
// before continuing, exactly like the "--More--" prompt of classic dial-up
// bulletin board systems. It is driven directly off termio.ReadKey rather
// than a bubbletea Update/View loop, since it must interleave synchronously
// with the streaming pipeline's Print calls (see internal/stream), not
// drive its own independent render cycle.
package pager

import (
	"fmt"

	"github.com/clio-cli/clio/internal/ansi"
	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/termio"
)

// State is the pagination controller's state machine.
type State int

const (
	Inactive State = iota
	CollectingPage
	Paused
	NavigatingHistory
	QuitRequested
)

// Mode selects between the streaming prompt ("(Q)uit or any key") and the
// non-streaming prompt ("[Page N of M]", arrow navigation).
type Mode int

const (
	StreamingMode Mode = iota
	NonStreamingMode
)

// Controller buffers printed lines a page at a time and pauses once the
// buffer reaches the terminal's row budget.
type Controller struct {
	term  *termio.Adapter
	theme *style.Theme

	state       State
	mode        Mode
	rows        int
	linesOnPage int
	firstPause  bool
	pages       [][]string // committed pages (one []string per screenful), for NonStreamingMode history navigation
	pageLines   []string   // lines accumulated for the page currently being collected
	curIdx      int        // index into pages currently displayed, valid in Paused/NavigatingHistory
}

// New builds a controller bound to term's current size. Rows is recomputed
// lazily on each Feed call so a mid-session resize takes effect on the next
// page rather than requiring a restart.
func New(term *termio.Adapter, theme *style.Theme) *Controller {
	return &Controller{term: term, theme: theme, state: Inactive, firstPause: true}
}

// Begin starts a new pagination run in the given mode.
func (c *Controller) Begin(mode Mode) {
	c.mode = mode
	c.state = CollectingPage
	c.linesOnPage = 0
	c.pages = nil
	c.pageLines = nil
	c.curIdx = 0
}

// threshold returns the number of lines printed before the controller
// pauses: terminal rows minus two, reserving one line for the prompt and
// one as a safety margin against off-by-one terminal height reporting.
func (c *Controller) threshold() int {
	_, rows := c.term.Size()
	if rows < 3 {
		return 1
	}
	return rows - 2
}

// Feed prints one line of content, pausing for user input once the page
// threshold is reached. It returns false if the user requested quit.
func (c *Controller) Feed(line string) bool {
	if c.state == QuitRequested {
		return false
	}
	if c.state == Inactive {
		c.Begin(StreamingMode)
	}
	c.term.Write(line + "\r\n")
	if c.mode == NonStreamingMode {
		c.pageLines = append(c.pageLines, line)
	}
	c.linesOnPage++

	if c.linesOnPage < c.threshold() {
		return true
	}
	return c.pause()
}

// pause prompts the user and blocks for a keypress/command, returning
// false only when the user has requested to quit entirely. The terminal
// is switched to cbreak for the single-key read and restored before
// returning, so line-oriented input always resumes in cooked mode.
func (c *Controller) pause() bool {
	c.state = Paused
	if restore, err := c.term.SetMode(termio.Cbreak); err == nil {
		defer restore()
	}
	if c.mode == NonStreamingMode {
		c.pages = append(c.pages, c.pageLines)
		c.pageLines = nil
		c.curIdx = len(c.pages) - 1
	}
	prompt := c.promptText()
	c.term.Write(prompt)
	// The long hint is shown on the first pause of the session only;
	// once displayed, every later pause gets the compact prompt.
	c.firstPause = false
	defer c.term.ClearLine()

	for {
		key, err := c.term.ReadKey()
		if err != nil {
			c.state = QuitRequested
			return false
		}
		switch key.Name {
		case termio.KeyEOF, termio.KeyCtrlC:
			c.state = QuitRequested
			return false
		case termio.KeyUp, termio.KeyLeft:
			if c.mode == NonStreamingMode {
				c.navigateHistory(-1)
				continue
			}
		case termio.KeyDown, termio.KeyRight:
			if c.mode == NonStreamingMode {
				c.navigateHistory(1)
				continue
			}
		}
		switch key.Rune {
		case 'q', 'Q':
			c.state = QuitRequested
			return false
		default:
			c.linesOnPage = 0
			c.state = CollectingPage
			return true
		}
	}
}

// promptText returns the hint shown at the bottom of a paused page: a
// longer explanation the first time it's shown, a compact one-liner
// thereafter.
func (c *Controller) promptText() string {
	var text string
	if c.mode == StreamingMode {
		if c.firstPause {
			text = "-- More -- press any key to continue, (Q)uit to stop streaming"
		} else {
			text = "-- More -- (Q)uit or any key"
		}
	} else {
		if c.firstPause {
			text = fmt.Sprintf("[Page %d of %d] any key: next, arrows: navigate, (Q)uit", c.curIdx+1, len(c.pages))
		} else {
			text = fmt.Sprintf("[Page %d of %d] (Q)uit or any key", c.curIdx+1, len(c.pages))
		}
	}
	return c.theme.Render(style.KeyPageHint, text)
}

// navigateHistory re-renders an earlier/later committed page in full,
// used only in NonStreamingMode where the full content is already known
// and can be paged backward as well as forward. It clears the screen and
// redraws every line of the target page rather than touching just the
// prompt line, since moving a page at a time replaces the whole view.
func (c *Controller) navigateHistory(delta int) {
	c.state = NavigatingHistory
	idx := c.curIdx + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.pages) {
		idx = len(c.pages) - 1
	}
	c.curIdx = idx

	c.term.Write(ansi.ClearScreen + ansi.CursorHome)
	for _, line := range c.pages[c.curIdx] {
		c.term.Write(line + "\r\n")
	}
	c.term.Write(c.promptText())
	c.state = Paused
}

// End finalizes the pagination run, returning to Inactive. firstPause is
// deliberately not reset: the controller is a session-lifetime singleton
// and the long hint belongs to the first pause of the session, not the
// first pause of every turn.
func (c *Controller) End() {
	c.state = Inactive
}

// Quit reports whether the user asked to stop receiving output entirely.
func (c *Controller) Quit() bool {
	return c.state == QuitRequested
}

// CurrentState returns the controller's current state, exported for
// tests that assert on the state machine directly.
func (c *Controller) CurrentState() State {
	return c.state
}
