// Package modelagent defines the interface CLIO consumes to talk to a
// model/tool-orchestration backend. CLIO does not implement a provider
// wire protocol itself; this package only describes the event stream
// shape the rest of the repo is built against.
package modelagent

import "context"

// EventKind enumerates the events a turn can emit.
type EventKind int

const (
	EventChunk EventKind = iota
	EventThinking
	EventToolCall
	EventToolResult
	EventSystemMessage
	EventError
	EventDone
)

// ReasoningSignal marks the boundary of a thinking/reasoning block for
// providers that expose explicit start/end markers. Providers that
// interleave reasoning text with no markers leave every EventThinking at
// SignalNone; the chat controller prints the reasoning header on the
// first thinking chunk of a block and the separator only on SignalEnd.
type ReasoningSignal int

const (
	SignalNone ReasoningSignal = iota
	SignalStart
	SignalEnd
)

// Event is one unit of a streamed turn.
type Event struct {
	Kind   EventKind
	Text   string // chunk/thinking/system text, or error message
	Signal ReasoningSignal // set for EventThinking with an explicit start/end marker

	ToolName   string // set for EventToolCall/EventToolResult
	ToolArgs   string
	ToolResult string

	// Usage totals for the whole turn, reported with EventDone so the
	// caller can record them against its billing tally.
	PromptTokens     int64
	CompletionTokens int64
}

// Agent is the interface an active provider/session implementation
// satisfies. Send starts (or continues) a turn and streams events on the
// returned channel until it closes; the channel is always closed, even on
// ctx cancellation or an internal error (as a final EventError followed by
// close), so callers can range over it unconditionally.
type Agent interface {
	Send(ctx context.Context, prompt string) (<-chan Event, error)
	// Cancel aborts an in-flight Send call. The chat controller does not
	// call this on a pager quit — the wire stream keeps running so the
	// turn can still commit its full accumulated text — but it remains
	// available for hard-stop paths like SIGINT.
	Cancel()
}

// CollabReply is how internal/collab returns a user's answer to an
// ask-the-user tool call to the agent that asked: the agent folds it into
// the same turn, with no second Send call and no separate API round trip.
type CollabReply struct {
	Question string
	Answer   string
}
