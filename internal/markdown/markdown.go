// Package markdown renders Markdown text to ANSI-styled terminal output.
// Render is a pure function: no streaming state, no knowledge of the
// pipeline that called it.
package markdown

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps a glamour.TermRenderer bound to a fixed width and style,
// built once and kept since constructing one re-parses the style JSON.
type Renderer struct {
	mu    sync.Mutex
	width int
	dark  bool
	r     *glamour.TermRenderer
}

// New builds a renderer for the given terminal width. dark selects
// glamour's dark-background style; CLIO always renders dark since the
// BBS theme assumes a dark terminal background.
func New(width int, dark bool) (*Renderer, error) {
	style := "notty"
	if width > 0 {
		style = "dark"
		if !dark {
			style = "light"
		}
	}
	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(style),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{width: width, dark: dark, r: r}, nil
}

// Render converts md to ANSI-styled text. On internal renderer failure it
// returns the original text unchanged with a non-nil error — the chat
// controller falls back to the raw text and never surfaces the error to
// the user.
func (r *Renderer) Render(md string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.r.Render(md)
	if err != nil {
		return md, err
	}
	return out, nil
}

// Resize rebuilds the underlying renderer for a new terminal width. The
// chat controller does not call it, so the width given to New stays in
// effect for the session.
func (r *Renderer) Resize(width int) error {
	nr, err := New(width, r.dark)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.width = width
	r.r = nr.r
	r.mu.Unlock()
	return nil
}
