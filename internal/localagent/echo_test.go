package localagent

import (
	"context"
	"strings"
	"testing"

	"github.com/clio-cli/clio/internal/modelagent"
)

func drain(t *testing.T, ch <-chan modelagent.Event) []modelagent.Event {
	t.Helper()
	var events []modelagent.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func chunksText(events []modelagent.Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == modelagent.EventChunk {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func TestEchoStreamsPromptBack(t *testing.T) {
	events := drainSend(t, New(), "hello there")
	text := chunksText(events)
	if !strings.Contains(text, "hello there") {
		t.Errorf("chunks = %q, want them to echo the prompt", text)
	}
	last := events[len(events)-1]
	if last.Kind != modelagent.EventDone {
		t.Errorf("last event = %v, want EventDone", last.Kind)
	}
}

type fakeCollab struct {
	question string
	answer   string
	err      error
}

func (f *fakeCollab) Ask(ctx context.Context, question, contextBlock string) (modelagent.CollabReply, error) {
	f.question = question
	if f.err != nil {
		return modelagent.CollabReply{}, f.err
	}
	return modelagent.CollabReply{Question: question, Answer: f.answer}, nil
}

func TestEchoCollaborationRoundTrip(t *testing.T) {
	e := New()
	fc := &fakeCollab{answer: "blue"}
	e.SetCollaborator(fc)

	events := drainSend(t, e, "ask: favorite color?")

	if fc.question != "favorite color?" {
		t.Errorf("collaborator asked %q", fc.question)
	}
	sawToolCall := false
	for _, ev := range events {
		if ev.Kind == modelagent.EventToolCall && ev.ToolName == "user_collaboration" {
			sawToolCall = true
		}
	}
	if !sawToolCall {
		t.Error("expected a user_collaboration tool-call event before the answer")
	}
	if text := chunksText(events); !strings.Contains(text, "blue") {
		t.Errorf("chunks = %q, want the collaboration answer threaded back", text)
	}
}

func TestEchoCollaborationCancelled(t *testing.T) {
	e := New()
	e.SetCollaborator(&fakeCollab{err: context.Canceled})

	events := drainSend(t, e, "ask: anything?")
	if text := chunksText(events); !strings.Contains(text, "cancelled") {
		t.Errorf("chunks = %q, want a cancellation notice", text)
	}
}

func drainSend(t *testing.T, e *Echo, prompt string) []modelagent.Event {
	t.Helper()
	ch, err := e.Send(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	events := drain(t, ch)
	if len(events) == 0 {
		t.Fatal("no events received")
	}
	return events
}
