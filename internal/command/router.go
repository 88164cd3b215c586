// Package command implements the slash-command dispatcher as a real
// cobra.Command tree, driven per input line instead of os.Args. Leaves
// write their result into a *Dispatch box on the context instead of
// printing to stdout and exiting the process.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Dispatch carries a handler's result back out of a cobra RunE call,
// which has no return value of its own to give the router.
type Dispatch struct {
	// Continue is false when the handler wants the main loop to exit
	// (e.g. "/exit"). Default true.
	Continue bool
	// AIPrompt is non-empty when the handler wants the text forwarded to
	// the model as the next turn's prompt, e.g. "/explain" rewriting
	// itself into a model request.
	AIPrompt string
	// Output is any text the handler wants printed directly, bypassing
	// the model entirely (e.g. "/help").
	Output string
}

type dispatchKey struct{}

// FromContext retrieves the *Dispatch box a handler should write into.
func FromContext(ctx context.Context) *Dispatch {
	d, _ := ctx.Value(dispatchKey{}).(*Dispatch)
	if d == nil {
		// Handlers always run through Router.Dispatch, which installs a
		// box; a nil here means a handler was invoked directly in a test
		// without going through the router, so hand back a throwaway box
		// rather than panicking.
		return &Dispatch{Continue: true}
	}
	return d
}

// rewrite is a pre-tokenization text substitution applied to the raw
// input line before routing, covering backward-compat aliases and the
// "?" -> "/help" rewrite.
type rewrite struct {
	match   string
	replace string
}

var rewrites = []rewrite{
	{"?", "/help"},
	{"/api key", "/api set key"},
	{"/quit", "/exit"},
	{"/q", "/exit"},
	{"/h", "/help"},
	{"/sh", "/shell"},
	{"/ml", "/multi-line"},
	{"/read", "/file read"},
	{"/edit", "/file edit"},
}

// applyRewrites returns line with any matching backward-compat alias
// expanded to its canonical form.
func applyRewrites(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, r := range rewrites {
		if trimmed == r.match || strings.HasPrefix(trimmed, r.match+" ") {
			return r.replace + strings.TrimPrefix(trimmed, r.match)
		}
	}
	return line
}

// Router tokenizes and dispatches slash-command lines against a cobra
// command tree.
type Router struct {
	root *cobra.Command
}

// New builds a Router around root. root's leaves should be registered
// with RunE (not Run), writing their result via FromContext.
func New(root *cobra.Command) *Router {
	root.SilenceErrors = true
	root.SilenceUsage = true
	return &Router{root: root}
}

// IsCommand reports whether line looks like a slash command (or one of
// the bare aliases rewritten to one), as opposed to ordinary chat text
// that should go straight to the model.
func IsCommand(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if trimmed == "?" {
		return true
	}
	return strings.HasPrefix(trimmed, "/")
}

// Dispatch tokenizes line, routes it through the command tree, and
// returns the resulting Dispatch. A line that doesn't match any
// registered command returns an error wrapping cobra's "unknown command"
// so the caller can show a friendly "try /help" message.
func (r *Router) Dispatch(ctx context.Context, line string) (*Dispatch, error) {
	line = applyRewrites(line)
	tokens := tokenize(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(tokens) == 0 {
		return &Dispatch{Continue: true}, nil
	}

	box := &Dispatch{Continue: true}
	ctx = context.WithValue(ctx, dispatchKey{}, box)

	r.root.SetArgs(tokens)
	if _, err := r.root.ExecuteContextC(ctx); err != nil {
		return nil, fmt.Errorf("dispatching %q: %w", line, err)
	}
	return box, nil
}

// tokenize splits a command line on whitespace, respecting double-quoted
// segments so a quoted argument containing spaces stays together (e.g.
// /file read "a b.txt").
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
