package command

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func buildTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "clio"}
	help := &cobra.Command{
		Use: "help",
		RunE: func(cmd *cobra.Command, args []string) error {
			FromContext(cmd.Context()).Output = "help text"
			return nil
		},
	}
	exit := &cobra.Command{
		Use: "exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			FromContext(cmd.Context()).Continue = false
			return nil
		},
	}
	explain := &cobra.Command{
		Use: "explain",
		RunE: func(cmd *cobra.Command, args []string) error {
			FromContext(cmd.Context()).AIPrompt = "explain: " + argsJoin(args)
			return nil
		},
	}
	root.AddCommand(help, exit, explain)
	return root
}

func argsJoin(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func TestIsCommandDetectsSlashAndQuestionMark(t *testing.T) {
	cases := map[string]bool{
		"/help":        true,
		"?":            true,
		"hello there":  false,
		"":             false,
		"  /help  ":    true,
	}
	for in, want := range cases {
		if got := IsCommand(in); got != want {
			t.Errorf("IsCommand(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDispatchHelp(t *testing.T) {
	r := New(buildTestRoot())
	d, err := r.Dispatch(context.Background(), "/help")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.Output != "help text" {
		t.Errorf("Output = %q, want %q", d.Output, "help text")
	}
	if !d.Continue {
		t.Error("expected Continue true for /help")
	}
}

func TestDispatchExitStopsLoop(t *testing.T) {
	r := New(buildTestRoot())
	d, err := r.Dispatch(context.Background(), "/exit")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.Continue {
		t.Error("expected Continue false for /exit")
	}
}

func TestQuestionMarkRewritesToHelp(t *testing.T) {
	r := New(buildTestRoot())
	d, err := r.Dispatch(context.Background(), "?")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.Output != "help text" {
		t.Errorf("Output = %q, want help text via ? rewrite", d.Output)
	}
}

func TestBackwardCompatAliasQRewritesToExit(t *testing.T) {
	r := New(buildTestRoot())
	d, err := r.Dispatch(context.Background(), "/q")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.Continue {
		t.Error("expected /q to alias /exit")
	}
}

func TestQuotedArgumentStaysTogether(t *testing.T) {
	r := New(buildTestRoot())
	d, err := r.Dispatch(context.Background(), `/explain "two words"`)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.AIPrompt != "explain: two words" {
		t.Errorf("AIPrompt = %q, want %q", d.AIPrompt, "explain: two words")
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	r := New(buildTestRoot())
	if _, err := r.Dispatch(context.Background(), "/nope"); err == nil {
		t.Error("expected an error for an unregistered command")
	}
}
