// Package localagent provides a minimal modelagent.Agent implementation
// that echoes the prompt back as a single chunked response, with no
// network calls. CLIO does not implement a real provider wire protocol,
// and nothing in it launches the RuntimeConfig presets internal/config
// stores, so this stands in as the default agent for local development
// and for any environment without a configured provider.
package localagent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/clio-cli/clio/internal/modelagent"
)

// Collaborator lets the agent suspend a turn to ask the user a question,
// resuming with the answer folded into the same turn — no second Send
// call, so the exchange costs nothing extra against provider quota.
type Collaborator interface {
	Ask(ctx context.Context, question, contextBlock string) (modelagent.CollabReply, error)
}

// Echo is a trivial modelagent.Agent that streams its reply back in
// small chunks, useful for exercising the streaming/pager pipeline
// without a live provider connection.
type Echo struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	collab Collaborator
}

// New builds an Echo agent.
func New() *Echo {
	return &Echo{}
}

// SetCollaborator wires the ask-the-user path; prompts starting with
// "ask:" round-trip through it.
func (e *Echo) SetCollaborator(c Collaborator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collab = c
}

// Send streams back an acknowledgement of prompt, split into a few
// chunks so callers can observe multi-chunk flush behavior even without
// a real backend.
func (e *Echo) Send(ctx context.Context, prompt string) (<-chan modelagent.Event, error) {
	turnCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.mu.Lock()
	collab := e.collab
	e.mu.Unlock()

	ch := make(chan modelagent.Event, 4)
	go func() {
		defer close(ch)
		defer cancel()

		reply := fmt.Sprintf("(no provider configured)\n\nyou said: %s\n", prompt)
		if question, ok := strings.CutPrefix(prompt, "ask:"); ok && collab != nil {
			question = strings.TrimSpace(question)
			ch <- modelagent.Event{Kind: modelagent.EventToolCall, ToolName: "user_collaboration", ToolArgs: question}
			answer, err := collab.Ask(turnCtx, question, "")
			if err != nil {
				reply = "(collaboration cancelled)\n"
			} else {
				reply = fmt.Sprintf("you answered: %s\n", answer.Answer)
			}
		}
		for _, word := range strings.Fields(reply) {
			select {
			case <-turnCtx.Done():
				return
			case ch <- modelagent.Event{Kind: modelagent.EventChunk, Text: word + " "}:
			}
		}
		select {
		case <-turnCtx.Done():
		case ch <- modelagent.Event{
			Kind:             modelagent.EventDone,
			PromptTokens:     int64(len(strings.Fields(prompt))),
			CompletionTokens: int64(len(strings.Fields(reply))),
		}:
		}
	}()
	return ch, nil
}

// Cancel aborts the in-flight Send call, if any.
func (e *Echo) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}
