// Package handlers implements the concrete slash-command surface as
// cobra leaves registered onto the internal/command router tree. Each
// handler follows the "(continue, ai_prompt)" contract by writing into
// the *command.Dispatch box retrieved from the cobra context.
package handlers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clio-cli/clio/internal/auth"
	"github.com/clio-cli/clio/internal/billing"
	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/command"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/style"
)

// Deps bundles every collaborator a handler might need. Passed once at
// registration time and closed over by each RunE, rather than threaded
// as individual parameters, to keep the Register signature stable as the
// handler set grows.
type Deps struct {
	Settings    *config.Settings
	SettingsDir string // path the settings are persisted to on "/config save"
	Theme       *style.Theme
	Session     *chatsession.Session
	SessionStore *chatsession.Store
	Billing     *billing.Manager
	TokenStore  *auth.Store
	WorkDir     string
	Home        string // user home directory, root of the .clio state tree
	Version     string

	// SetTheme lets "/theme <name>" swap the live theme the controller
	// renders with, since Theme here is a snapshot, not a live pointer.
	SetTheme func(*style.Theme)
	// SetSession rebinds the controller's live session when "/session
	// new" or "/session switch" replaces it.
	SetSession func(*chatsession.Session)
	// ApplyProvider persists a provider change and rebuilds+rebinds the
	// controller's agent in one step, so a handler can never update the
	// config while leaving a stale client in place.
	ApplyProvider func(name, model string) error
	// Write emits text to the terminal immediately, for handlers that
	// must show something before blocking (the device-flow login code).
	Write func(string)
	// Repaint clears the screen and replays the controller's recent
	// display ring, backing "/clear".
	Repaint func()
	// Debug toggles verbose internal logging, read by the chat controller.
	Debug *bool
}

// Register wires every handler onto root.
func Register(root *cobra.Command, d *Deps) {
	if d.Write == nil {
		d.Write = func(s string) { fmt.Print(s) }
	}
	root.AddCommand(
		helpCmd(root),
		exitCmd(),
		clearCmd(d),
		resetCmd(),
		shellCmd(),
		execCmd(),
		multiLineCmd(),
		debugCmd(d),
		apiCmd(d),
		configCmd(d),
		sessionCmd(d),
		fileCmd(d),
		contextCmd(d),
		gitCmd(d),
		todoCmd(d),
		memoryCmd(d),
		skillsCmd(d),
		promptCmd(d),
		styleCmd(d),
		updateCmd(d),
		billingCmd(d),
		modelsCmd(d),
		themeCmd(d),
		explainCmd(),
		reviewCmd(),
		testCmd(),
		fixCmd(),
		docCmd(),
		designCmd(),
		initCmd(),
	)
}

func out(ctx context.Context, text string) {
	command.FromContext(ctx).Output = text
}

func aiPrompt(ctx context.Context, prompt string) {
	command.FromContext(ctx).AIPrompt = prompt
}

// helpCmd lists every registered top-level command and its subcommands.
func helpCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "list available commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			var b strings.Builder
			for _, c := range root.Commands() {
				fmt.Fprintf(&b, "/%-12s %s\n", c.Use, c.Short)
			}
			out(cmd.Context(), b.String())
			return nil
		},
	}
}

func exitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit",
		Short: "end the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			command.FromContext(cmd.Context()).Continue = false
			return nil
		},
	}
}

func clearCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "clear and repaint the screen (keeps history)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.Repaint != nil {
				d.Repaint()
				return nil
			}
			out(cmd.Context(), "\x1b[2J\x1b[H")
			return nil
		},
	}
}

// shellCmd runs a one-off shell command and captures its output, so CLIO
// can fold the result back into the paginated display. With no arguments
// it instead hands the terminal to an interactive shell until it exits.
func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "run a shell command, or start an interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := os.Getenv("SHELL")
			if shell == "" {
				shell = "/bin/sh"
			}
			if len(args) == 0 {
				// No command: hand the whole terminal to an interactive
				// shell; CLIO resumes when it exits.
				c := exec.Command(shell)
				c.Stdin = os.Stdin
				c.Stdout = os.Stdout
				c.Stderr = os.Stderr
				if err := c.Run(); err != nil {
					out(cmd.Context(), "shell: "+err.Error())
					return nil
				}
				out(cmd.Context(), "(shell exited)")
				return nil
			}
			c := exec.CommandContext(cmd.Context(), shell, "-c", strings.Join(args, " "))
			c.Dir = "."
			output, err := c.CombinedOutput()
			if err != nil {
				out(cmd.Context(), fmt.Sprintf("%s\n(exit error: %v)", output, err))
				return nil
			}
			out(cmd.Context(), string(output))
			return nil
		},
	}
}

// resetCmd emits a full terminal reset (RIS), for when a binary dump or
// a misbehaving subprocess has left the terminal in a broken state.
func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "hard-reset the terminal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			out(cmd.Context(), "\x1bc")
			return nil
		},
	}
}

// execCmd runs a command directly, without the extra word-splitting pass
// a shell would apply. "/shell" stays the escape hatch when pipes or
// globs are wanted.
func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec",
		Short: "run a command directly and show its output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /exec <command> [args...]")
				return nil
			}
			c := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
			output, err := c.CombinedOutput()
			if err != nil {
				out(cmd.Context(), fmt.Sprintf("%s\n(exit error: %v)", output, err))
				return nil
			}
			out(cmd.Context(), string(output))
			return nil
		},
	}
}

// multiLineCmd collects a multi-line prompt through $EDITOR (falling back
// to $VISUAL, then vi) rather than trying to read continuation lines from
// the cbreak-mode terminal, and submits the result to the model.
func multiLineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "multi-line",
		Short: "compose a multi-line prompt in your editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := composeInEditor("")
			if err != nil {
				out(cmd.Context(), "editor: "+err.Error())
				return nil
			}
			if strings.TrimSpace(text) == "" {
				out(cmd.Context(), "(empty prompt discarded)")
				return nil
			}
			aiPrompt(cmd.Context(), text)
			return nil
		},
	}
}

// composeInEditor opens $EDITOR on a temp file seeded with initial and
// returns the saved contents.
func composeInEditor(initial string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}
	f, err := os.CreateTemp("", "clio-prompt-*.md")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editor, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func debugCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "toggle verbose internal logging",
		RunE: func(cmd *cobra.Command, args []string) error {
			*d.Debug = !*d.Debug
			state := "off"
			if *d.Debug {
				state = "on"
			}
			out(cmd.Context(), "debug logging: "+state)
			return nil
		},
	}
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain",
		Short: "ask the model to explain the given code or topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Explain: "+strings.Join(args, " "))
			return nil
		},
	}
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "ask the model to review the given file or diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Review for correctness and style: "+strings.Join(args, " "))
			return nil
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "ask the model to write tests for the given target",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Write tests for: "+strings.Join(args, " "))
			return nil
		},
	}
}

func fixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "ask the model to fix the described problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Fix this problem: "+strings.Join(args, " "))
			return nil
		},
	}
}

func docCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc",
		Short: "ask the model to write documentation for the given target",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Write documentation for: "+strings.Join(args, " "))
			return nil
		},
	}
}

func designCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "design",
		Short: "ask the model to propose a design for the described feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Propose a design, with alternatives and trade-offs, for: "+strings.Join(args, " "))
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "ask the model to analyze this repository and write a CLIO.md guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			aiPrompt(cmd.Context(), "Analyze this repository's layout, build system, and conventions, then write a CLIO.md project guide summarizing them for future sessions.")
			return nil
		},
	}
}
