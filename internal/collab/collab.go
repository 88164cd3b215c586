// Package collab implements the user-collaboration sub-protocol: when the
// model asks the user a question mid-turn, the spinner is suspended, the
// question is paginated through the same pager the rest of the session
// uses, and the reply is read from the same readline instance the main
// loop uses — a re-entrant command dispatch on a leading "/", empty-line
// or EOF cancellation, and no extra provider request for the question
// itself. The exchange is a direct blocking call, since CLIO's main
// loop is synchronous rather than an Elm update loop.
package collab

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/clio-cli/clio/internal/command"
	"github.com/clio-cli/clio/internal/markdown"
	"github.com/clio-cli/clio/internal/modelagent"
	"github.com/clio-cli/clio/internal/pager"
	"github.com/clio-cli/clio/internal/spinner"
	"github.com/clio-cli/clio/internal/style"
)

// ErrCancelled is returned when the user cancels the question with an
// empty line or EOF.
var ErrCancelled = errors.New("collaboration question cancelled by user")

// Session drives one ask-the-user round trip.
type Session struct {
	pager   *pager.Controller
	spinner *spinner.Spinner
	router  *command.Router
	theme   *style.Theme
	md      *markdown.Renderer
	reader  *bufio.Reader
	write   func(string)
}

// New builds a collab.Session sharing the pager, spinner, router,
// renderer, and reader the chat controller already owns; no new instance
// of any of these is created for a collaboration round.
func New(p *pager.Controller, sp *spinner.Spinner, router *command.Router, theme *style.Theme, md *markdown.Renderer, reader *bufio.Reader, write func(string)) *Session {
	return &Session{pager: p, spinner: sp, router: router, theme: theme, md: md, reader: reader, write: write}
}

// Ask suspends the spinner, paginates the question (and optional context
// block) to the user through the normal Markdown pipeline, and blocks
// for a reply. A leading "/" on the reply re-enters the command router
// instead of being treated as an answer; the router's Output (if any) is
// shown and the user is prompted again. An empty line or EOF returns
// ErrCancelled.
func (s *Session) Ask(ctx context.Context, question, contextBlock string) (modelagent.CollabReply, error) {
	wasRunning := s.spinner.Running()
	if wasRunning {
		s.spinner.Stop()
	}

	s.pager.Begin(pager.StreamingMode)
	s.feedMarkdown(question)
	if contextBlock != "" {
		s.feedMarkdown("Context: " + contextBlock)
	}
	s.pager.End()

	for {
		// The prompt indicator is the collab color, not the main loop's,
		// so a mid-workflow question is visually distinct from the
		// ordinary input line.
		s.write(s.theme.Render(style.KeyCollabPrompt, "> "))
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return modelagent.CollabReply{}, err
		}
		line = strings.TrimRight(line, "\n\r")

		if err == io.EOF && line == "" {
			return modelagent.CollabReply{}, ErrCancelled
		}
		if strings.TrimSpace(line) == "" {
			return modelagent.CollabReply{}, ErrCancelled
		}

		if command.IsCommand(line) {
			disp, derr := s.router.Dispatch(ctx, line)
			if derr != nil {
				s.write(s.theme.Render(style.KeyError, derr.Error()) + "\n")
				continue
			}
			if disp.Output != "" {
				s.write(disp.Output + "\n")
			}
			if !disp.Continue {
				return modelagent.CollabReply{}, ErrCancelled
			}
			if disp.AIPrompt != "" {
				if wasRunning {
					s.spinner.Start("waiting for model")
				}
				return modelagent.CollabReply{Question: question, Answer: disp.AIPrompt}, nil
			}
			s.write(s.theme.Render(style.KeyDim, "CLIO: (Command processed. What's your response?)") + "\n")
			continue
		}

		if wasRunning {
			s.spinner.Start("waiting for model")
		}
		return modelagent.CollabReply{Question: question, Answer: line}, nil
	}
}

// feedMarkdown renders text and routes each line through the pager, the
// same path normal turn output takes, so a long question or context
// block pauses at a screenful. A renderer failure falls back to the raw
// text.
func (s *Session) feedMarkdown(text string) {
	rendered, err := s.md.Render(text)
	if err != nil {
		rendered = text
	}
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		if !s.pager.Feed(line) {
			return
		}
	}
}
