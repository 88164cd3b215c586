// Package stream implements the streaming display pipeline: it buffers
// incoming model text chunk-by-chunk into whole lines, tracks Markdown
// code-fence and table state so a flush never splits a fenced block or a
// table mid-row, and decides when to hand a batch of lines to the renderer
// based on a flush cadence (line-count threshold, a time threshold, and a
// hard ceiling that overrides both so a single giant paragraph can't stall
// output indefinitely).
//
// The state machine is deliberately a single TurnState struct threaded
// through HandleChunk rather than scattered controller flags, which rot
// into an unauditable mess.
package stream

import (
	"strings"
	"time"
)

// Action is one thing the Chat Controller should do in response to a
// HandleChunk or Done call. TurnState never touches the terminal directly
// so it stays trivially unit-testable.
type Action struct {
	Kind    ActionKind
	Text    string // for Print: the rendered-or-raw text to emit
	Label   string // for StartSpinner: the label to show
	Message string // for CommitMessage: the full assistant message text
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPrint
	ActionPause // hand control to the pager
	ActionStartSpinner
	ActionStopSpinner
	ActionCommitMessage
	ActionAgentLabel // emit the deferred "CLIO: " role prefix
)

// Config holds the flush-cadence thresholds, exposed for tests that need
// to exercise the time-based flush without a real clock.
type Config struct {
	LineThreshold int           // flush once this many complete lines are buffered
	TimeThreshold time.Duration // flush if this long has passed since the last flush
	HardCeiling   int           // flush unconditionally at this many buffered lines
}

// DefaultConfig returns the flush-cadence thresholds used in production.
func DefaultConfig() Config {
	return Config{LineThreshold: 10, TimeThreshold: 500 * time.Millisecond, HardCeiling: 50}
}

// TurnState is every piece of state one streamed turn needs: the raw text
// buffer, the code-fence/table parse state, and flush bookkeeping. One
// instance is created per turn (NewTurn) and discarded at Done.
type TurnState struct {
	cfg Config

	partial     strings.Builder // bytes received since the last complete line
	lines       []string        // complete, not-yet-flushed lines
	lastFlush   time.Time
	now         func() time.Time
	inFence     bool
	fenceMarker string
	inTable     bool
	full        strings.Builder // accumulated full message text, for CommitMessage

	// needPrefix is true until the next content chunk emits a fresh
	// "CLIO: " role label, then false until ResetPrefix is called again
	// (after a tool call or a reasoning block's end signal).
	needPrefix bool
}

// NewTurn creates a TurnState. now is injectable for deterministic tests
// of the time-based flush rule; production callers pass time.Now.
func NewTurn(cfg Config, now func() time.Time) *TurnState {
	if now == nil {
		now = time.Now
	}
	return &TurnState{cfg: cfg, now: now, lastFlush: now(), needPrefix: true}
}

// HandleChunk folds one text chunk into the buffer and returns the
// Actions the controller should perform as a result — typically zero or
// one ActionPrint, but a chunk that completes several lines at once can
// still only ever produce at most one flush (flushing is a single
// operation over however many lines are ready, not one Action per line).
func (t *TurnState) HandleChunk(chunk string) []Action {
	var actions []Action
	if t.needPrefix {
		actions = append(actions, Action{Kind: ActionAgentLabel})
		t.needPrefix = false
	}

	t.full.WriteString(chunk)
	t.partial.WriteString(chunk)
	t.drainCompleteLines()

	if t.shouldFlush() {
		actions = append(actions, t.flush()...)
	}
	if len(actions) == 0 {
		return nil
	}
	return actions
}

// ResetPrefix arms the turn to emit a fresh "CLIO: " prefix before the
// next content chunk — called after a tool execution and after a
// reasoning block's explicit end signal.
func (t *TurnState) ResetPrefix() {
	t.needPrefix = true
}

// drainCompleteLines moves every newline-terminated line out of partial
// and into lines, updating fence/table state line by line so a flush
// boundary decision always sees consistent state.
func (t *TurnState) drainCompleteLines() {
	buf := t.partial.String()
	idx := strings.IndexByte(buf, '\n')
	for idx >= 0 {
		line := strings.TrimSuffix(buf[:idx], "\r")
		t.observeLine(line)
		t.lines = append(t.lines, line)
		buf = buf[idx+1:]
		idx = strings.IndexByte(buf, '\n')
	}
	t.partial.Reset()
	t.partial.WriteString(buf)
}

// observeLine updates code-fence and table state for one completed line.
// A blank line never changes table state either way: it's the separator
// between table rows on some renderers, not an exit signal.
func (t *TurnState) observeLine(line string) {
	trimmed := strings.TrimSpace(line)
	if marker := fenceMarker(trimmed); marker != "" {
		if t.inFence && marker == t.fenceMarker {
			t.inFence = false
			t.fenceMarker = ""
		} else if !t.inFence {
			t.inFence = true
			t.fenceMarker = marker
		}
		return
	}
	if t.inFence {
		return
	}
	if trimmed == "" {
		return
	}
	t.inTable = looksLikeTableRow(trimmed)
}

// fenceMarker returns the fence string ("```" or "~~~") if trimmed opens
// or closes a fenced code block, else "".
func fenceMarker(trimmed string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m
		}
	}
	return ""
}

// looksLikeTableRow reports whether a line is part of a Markdown table
// (starts with '|', or is a "---|---" separator row).
func looksLikeTableRow(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "|") {
		return true
	}
	return strings.Contains(trimmed, "|") && strings.Trim(trimmed, "-|: ") == ""
}

// shouldFlush applies the three-rule cadence: never flush mid-fence or
// mid-table unless the hard ceiling is hit (a single pathologically long
// fenced block must not stall output forever), otherwise flush once the
// line count or time threshold is reached.
func (t *TurnState) shouldFlush() bool {
	if len(t.lines) == 0 {
		return false
	}
	if len(t.lines) >= t.cfg.HardCeiling {
		return true
	}
	if t.inFence || t.inTable {
		return false
	}
	if len(t.lines) >= t.cfg.LineThreshold {
		return true
	}
	if t.now().Sub(t.lastFlush) >= t.cfg.TimeThreshold {
		return true
	}
	return false
}

// flush renders the buffered lines as one Print action and resets the
// buffer/timer.
func (t *TurnState) flush() []Action {
	if len(t.lines) == 0 {
		return nil
	}
	text := strings.Join(t.lines, "\n")
	t.lines = nil
	t.lastFlush = t.now()
	return []Action{{Kind: ActionPrint, Text: text}}
}

// Done flushes any remaining buffered content (including a trailing
// partial line with no newline yet) and returns the final CommitMessage
// action carrying the whole turn's text.
func (t *TurnState) Done() []Action {
	var actions []Action
	if t.partial.Len() > 0 {
		t.lines = append(t.lines, t.partial.String())
		t.partial.Reset()
	}
	if len(t.lines) > 0 {
		actions = append(actions, t.flush()...)
	}
	actions = append(actions, Action{Kind: ActionCommitMessage, Message: t.full.String()})
	return actions
}

// InFence reports whether the turn is currently inside an unterminated
// fenced code block — exported for tests asserting fence parity.
func (t *TurnState) InFence() bool { return t.inFence }

// InTable reports whether the most recently observed line was part of a
// table — exported for tests asserting table rows are never split.
func (t *TurnState) InTable() bool { return t.inTable }
