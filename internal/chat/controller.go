// Package chat implements CLIO's main interactive loop: it reads one
// line at a time from the terminal, routes slash commands through
// internal/command, forwards ordinary text (and command-produced AI
// prompts) to the active internal/modelagent.Agent, and drives the
// resulting event stream through internal/stream and internal/pager so
// the terminal never receives more than a screenful of unread text at
// once.
//
// The loop is a direct blocking read/dispatch loop, not a bubbletea Elm
// program: the cobra root in internal/command is Executed once per input
// line rather than once per process.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clio-cli/clio/internal/ansi"
	"github.com/clio-cli/clio/internal/auth"
	"github.com/clio-cli/clio/internal/billing"
	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/collab"
	"github.com/clio-cli/clio/internal/command"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/handlers"
	"github.com/clio-cli/clio/internal/markdown"
	"github.com/clio-cli/clio/internal/modelagent"
	"github.com/clio-cli/clio/internal/pager"
	"github.com/clio-cli/clio/internal/spinner"
	"github.com/clio-cli/clio/internal/stream"
	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/termio"
	"github.com/clio-cli/clio/internal/update"
)

// Controller owns every collaborator the main loop needs for the
// lifetime of one CLIO invocation.
type Controller struct {
	term    *termio.Adapter
	theme   *style.Theme
	pager   *pager.Controller
	spinner *spinner.Spinner
	router  *command.Router
	md      *markdown.Renderer
	agent   modelagent.Agent

	session      *chatsession.Session
	sessionStore *chatsession.Store
	billing      *billing.Manager
	refresher    *auth.Refresher

	settings     *config.Settings
	settingsPath string
	home         string
	version      string
	newAgent     func(provider, model string) modelagent.Agent

	reader *bufio.Reader

	// lastAnnounced is the newest version already surfaced from the
	// update cache, so the notice shows once per version, not per prompt.
	lastAnnounced string

	// screen is a ring of the most recently displayed lines, replayed by
	// "/clear" so clearing the screen doesn't lose the visible context.
	screen []string

	// debug is shared with the "/debug" handler so toggling it mid-session
	// takes effect here immediately.
	debug *bool
}

// screenRing caps how many displayed lines "/clear" can replay.
const screenRing = 100

// Config bundles everything Controller needs to construct its
// collaborators, avoiding a long positional New signature.
type Config struct {
	Term         *termio.Adapter
	Theme        *style.Theme
	Agent        modelagent.Agent
	Settings     *config.Settings
	SettingsDir  string // path the settings file is persisted to
	Home         string // user home directory, for the update cache
	Version      string
	Session      *chatsession.Session
	SessionStore *chatsession.Store
	Billing      *billing.Manager
	HandlerDeps  *handlers.Deps

	// Refresher proactively renews the provider token before each
	// request when the active provider needs one; nil disables the check.
	Refresher *auth.Refresher

	// NewAgent rebuilds the provider client after a "/api set provider"
	// style change; nil means provider switches only persist config.
	NewAgent func(provider, model string) modelagent.Agent
}

// New wires a Controller and registers every slash-command handler onto
// a fresh cobra root.
func New(cfg Config) (*Controller, error) {
	width, _ := cfg.Term.Size()
	md, err := markdown.New(width, true)
	if err != nil {
		return nil, fmt.Errorf("building markdown renderer: %w", err)
	}

	c := &Controller{
		term:         cfg.Term,
		theme:        cfg.Theme,
		agent:        cfg.Agent,
		md:           md,
		session:      cfg.Session,
		sessionStore: cfg.SessionStore,
		billing:      cfg.Billing,
		refresher:    cfg.Refresher,
		settings:     cfg.Settings,
		settingsPath: cfg.SettingsDir,
		home:         cfg.Home,
		version:      cfg.Version,
		newAgent:     cfg.NewAgent,
		reader:       cfg.Term.Reader(),
	}
	c.pager = pager.New(cfg.Term, cfg.Theme)
	c.spinner = spinner.New(spinner.Dot, cfg.Theme, c.term.Write, c.term.ClearLine)

	// Handlers that change the provider or the live session go through
	// the controller, so the agent rebuild and session rebind can never
	// be skipped by a handler that only remembered to update the config.
	if cfg.HandlerDeps.ApplyProvider == nil {
		cfg.HandlerDeps.ApplyProvider = c.ApplyProviderConfig
	}
	if cfg.HandlerDeps.SetSession == nil {
		cfg.HandlerDeps.SetSession = func(s *chatsession.Session) { c.session = s }
	}
	if cfg.HandlerDeps.Write == nil {
		cfg.HandlerDeps.Write = c.term.Write
	}
	if cfg.HandlerDeps.Repaint == nil {
		cfg.HandlerDeps.Repaint = c.repaint
	}
	if cfg.HandlerDeps.SetTheme == nil {
		cfg.HandlerDeps.SetTheme = c.SetTheme
	}
	if cfg.HandlerDeps.Debug == nil {
		cfg.HandlerDeps.Debug = new(bool)
	}
	c.debug = cfg.HandlerDeps.Debug

	root := &cobra.Command{Use: "clio"}
	handlers.Register(root, cfg.HandlerDeps)
	c.router = command.New(root)

	return c, nil
}

// ApplyProviderConfig is the single path for provider-affecting config
// changes: persist the settings, rebuild the API client, and rebind the
// controller's agent reference — all in one call, so a stale client
// silently using the old credentials can't survive a switch.
func (c *Controller) ApplyProviderConfig(provider, model string) error {
	c.settings.Provider.Name = provider
	if model != "" {
		c.settings.Provider.Model = model
	}
	if c.settingsPath != "" {
		if err := config.Save(c.settingsPath, c.settings); err != nil {
			return fmt.Errorf("persisting provider config: %w", err)
		}
	}
	if c.newAgent != nil {
		c.agent = c.newAgent(c.settings.Provider.Name, c.settings.Provider.Model)
	}
	return nil
}

// SetTheme swaps the live theme and rebuilds the pager and spinner,
// whose prompt styling and frame colors are bound at construction — a
// spinner left running on the old theme would keep animating with stale
// styles after a "/theme" switch.
func (c *Controller) SetTheme(t *style.Theme) {
	c.spinner.Stop()
	c.theme = t
	c.pager = pager.New(c.term, t)
	c.spinner = spinner.New(spinner.Dot, t, c.term.Write, c.term.ClearLine)
}

// Run drives the read-route-respond loop until the user exits or the
// input stream ends. It returns nil on a graceful exit.
func (c *Controller) Run(ctx context.Context) error {
	defer c.pager.End()

	for {
		c.announceUpdate()
		c.term.Write(c.theme.Render(style.KeyPrompt, "\n> "))
		line, err := c.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		atEOF := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\n\r")

		if line == "" {
			if atEOF {
				return nil
			}
			continue
		}

		cont, aiPrompt, handled := c.handleLine(ctx, line)
		if !cont {
			return nil
		}
		if !handled {
			if err := c.runTurn(ctx, line); err != nil {
				c.printError(err)
			}
		} else if aiPrompt != "" {
			// The literal command is not shown; the prompt it produced is
			// displayed as if the user had typed it.
			youLine := c.theme.Render(style.KeyUserText, "YOU: "+aiPrompt)
			c.remember(youLine)
			c.term.Write(youLine + "\n")
			if err := c.runTurn(ctx, aiPrompt); err != nil {
				c.printError(err)
			}
		}

		if atEOF {
			return nil
		}
	}
}

// RunOnce sends a single prompt to the active agent and returns once the
// turn completes, without entering the interactive read loop — used for
// the non-interactive "--input" invocation mode.
func (c *Controller) RunOnce(ctx context.Context, prompt string) error {
	return c.runTurn(ctx, prompt)
}

// handleLine dispatches line through the command router if it looks
// like a slash command, returning (continue, aiPrompt, handled). handled
// is false for ordinary chat text, which the caller should forward to
// the model unchanged.
func (c *Controller) handleLine(ctx context.Context, line string) (bool, string, bool) {
	if !command.IsCommand(line) {
		return true, "", false
	}

	disp, err := c.router.Dispatch(ctx, line)
	if err != nil {
		c.term.Write(c.theme.Render(style.KeyError, err.Error()+" (try /help)") + "\n")
		return true, "", true
	}
	if disp.Output != "" {
		c.showOutput(disp.Output)
	}
	if !disp.Continue {
		return false, "", true
	}
	if disp.AIPrompt != "" {
		return true, disp.AIPrompt, true
	}
	return true, "", true
}

// ensureAuthFresh proactively renews the Copilot token before a request
// when the active provider needs one, so a long-lived session never runs
// into a mid-turn 401 on an expired token. A missing login is surfaced
// as a one-line instruction; other refresh failures are left for the
// request itself to report.
func (c *Controller) ensureAuthFresh(ctx context.Context) {
	if c.refresher == nil || c.settings.Provider.Name != "github-copilot" {
		return
	}
	if _, err := c.refresher.EnsureFresh(ctx); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.printError(err)
			return
		}
		c.debugTrace("token refresh", err)
	}
}

// runTurn sends prompt to the active agent and drives its event stream
// through the streaming pipeline and pager until the turn completes.
func (c *Controller) runTurn(ctx context.Context, prompt string) error {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.ensureAuthFresh(turnCtx)

	events, err := c.agent.Send(turnCtx, prompt)
	if err != nil {
		return fmt.Errorf("starting turn: %w", err)
	}

	if err := c.commitUserTurn(prompt); err != nil {
		c.debugTrace("user turn commit", err)
	}

	c.spinner.Start("thinking")
	turn := stream.NewTurn(stream.DefaultConfig(), time.Now)
	c.pager.Begin(pager.StreamingMode)

	var finalText string
	// quitting is set once the pager reports Q during this turn's display.
	// The wire stream is never cancelled for it — it keeps running so the
	// turn still commits whatever text arrives, just without rendering
	// any more of it.
	quitting := false
	reasoningActive := false
	for ev := range events {
		switch ev.Kind {
		case modelagent.EventChunk:
			if c.spinner.Running() {
				c.spinner.Stop()
			}
			actions := turn.HandleChunk(ev.Text)
			if !quitting && !c.applyActions(actions) {
				quitting = true
			}
		case modelagent.EventThinking:
			if quitting {
				continue
			}
			if !reasoningActive && ev.Signal != modelagent.SignalEnd {
				reasoningActive = true
				if c.spinner.Running() {
					c.spinner.Stop()
				}
				c.term.Write(c.theme.Render(style.KeyDim, "CLIO: ⚡ Reasoning...") + "\n")
			}
			if ev.Signal == modelagent.SignalEnd {
				reasoningActive = false
				c.term.Write(c.theme.Render(style.KeyDim, strings.Repeat("─", 40)) + "\n")
				turn.ResetPrefix()
				continue
			}
			c.term.Write(c.theme.Render(style.KeyDim, ev.Text) + "\n")
		case modelagent.EventToolCall:
			// A fresh "CLIO: " prefix is owed before the next content
			// chunk, whether or not this tool call is still displayed.
			turn.ResetPrefix()
			if quitting {
				continue
			}
			toolLine := c.theme.Render(style.KeyToolCall, fmt.Sprintf("→ %s(%s)", ev.ToolName, ev.ToolArgs))
			c.remember(toolLine)
			c.term.Write(toolLine + "\n")
		case modelagent.EventToolResult:
			if quitting {
				continue
			}
			c.term.Write(c.theme.Render(style.KeyDim, ev.ToolResult) + "\n")
		case modelagent.EventSystemMessage:
			if quitting {
				continue
			}
			c.writeSystemMessage(ev.Text)
		case modelagent.EventError:
			c.spinner.Stop()
			// A failed turn still leaves a trace in history: one system
			// entry, persisted, so a resumed session shows what happened.
			if cerr := c.commitSystemTurn(chatsession.Sanitize(ev.Text)); cerr != nil {
				c.debugTrace("system turn commit", cerr)
			}
			return errors.New(ev.Text)
		case modelagent.EventDone:
			// The channel closes right after EventDone; the final
			// flush happens below via turn.Done().
			if c.billing != nil && (ev.PromptTokens > 0 || ev.CompletionTokens > 0) {
				mult := billing.Multiplier{Kind: billing.MultiplierStandard, Rate: 1}
				if rerr := c.billing.RecordTurn(ev.PromptTokens, ev.CompletionTokens, mult); rerr != nil {
					c.debugTrace("billing record", rerr)
				}
			}
		}
	}
	c.spinner.Stop()

	actions := turn.Done()
	if !quitting {
		c.applyActions(actions)
	}
	c.pager.End()

	for _, a := range actions {
		if a.Kind == stream.ActionCommitMessage {
			finalText = a.Message
		}
	}
	if finalText != "" {
		// Stored sanitized, displayed intact: some upstream encodings
		// choke on emoji when history is replayed on later requests.
		if err := c.commitAssistantTurn(chatsession.Sanitize(finalText)); err != nil {
			c.debugTrace("assistant turn commit", err)
		}
	}
	return nil
}

// applyActions performs every stream.Action, rendering Print actions
// through the Markdown renderer before handing them to the pager.
// Returns false if the pager reports the user asked to quit streaming.
func (c *Controller) applyActions(actions []stream.Action) bool {
	for _, a := range actions {
		switch a.Kind {
		case stream.ActionPrint:
			rendered, err := c.md.Render(a.Text)
			if err != nil {
				// Render returns the raw text on failure; the user sees
				// the unstyled fallback, never an error.
				c.debugTrace("markdown render", err)
			}
			for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
				c.remember(line)
				if !c.pager.Feed(line) {
					return false
				}
			}
		case stream.ActionStartSpinner:
			c.spinner.Start(a.Label)
		case stream.ActionStopSpinner:
			c.spinner.Stop()
		case stream.ActionAgentLabel:
			c.term.Write(c.theme.Render(style.KeyAgentLabel, "CLIO: "))
		}
	}
	return true
}

// writeSystemMessage displays a system notification in the active
// theme's tool-display format: a two-line box for box themes, a
// single "[SYSTEM]" line otherwise. The current line is cleared first
// so a system message never lands mid-line next to streamed text.
func (c *Controller) writeSystemMessage(msg string) {
	c.term.ClearLine()
	var lines []string
	if c.theme.ToolDisplay == style.ToolDisplayBox {
		lines = []string{
			c.theme.Render(style.KeySystem, "┌──┤ SYSTEM"),
			c.theme.Render(style.KeySystem, "└─ "+msg),
		}
	} else {
		lines = []string{c.theme.Render(style.KeySystem, "[SYSTEM] "+msg)}
	}
	for _, line := range lines {
		c.remember(line)
		c.term.Write(line + "\n")
	}
}

// showOutput displays a command handler's result. Short output prints
// inline; anything longer than a screenful is paged in the alternate
// screen so help text and file dumps never pollute scrollback.
func (c *Controller) showOutput(text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	_, rows := c.term.Size()
	if !c.term.IsTerminal() || len(lines) < rows-2 {
		for _, line := range lines {
			c.remember(line)
		}
		c.term.Write(strings.Join(lines, "\n") + "\n")
		return
	}

	restore, err := c.term.SetMode(termio.AltScreen)
	if err == nil {
		defer restore()
	}
	c.pager.Begin(pager.NonStreamingMode)
	for _, line := range lines {
		if !c.pager.Feed(line) {
			break
		}
	}
	c.pager.End()
}

// remember appends one displayed line to the replay ring.
func (c *Controller) remember(line string) {
	c.screen = append(c.screen, line)
	if len(c.screen) > screenRing {
		c.screen = c.screen[len(c.screen)-screenRing:]
	}
}

// repaint clears the screen and replays the ring, the "/clear" behavior.
func (c *Controller) repaint() {
	c.term.Write(ansi.ClearScreen + ansi.CursorHome)
	for _, line := range c.screen {
		c.term.Write(line + "\n")
	}
}

// announceUpdate surfaces the background update check's cached result at
// the top of an input cycle — the check itself runs in a detached child
// process, so this only ever reads a local file.
func (c *Controller) announceUpdate() {
	if c.home == "" {
		return
	}
	res, _ := update.ReadCache(c.home)
	if !update.NeedsAnnounce(res, c.version) || res.LatestVersion == c.lastAnnounced {
		return
	}
	c.lastAnnounced = res.LatestVersion
	c.writeSystemMessage(fmt.Sprintf("CLIO %s is available (you have %s); see /update status", res.LatestVersion, c.version))
}

func (c *Controller) printError(err error) {
	c.term.Write(c.theme.Render(style.KeyError, "error: "+err.Error()) + "\n")
}

// debugTrace logs a non-fatal internal failure to the structured stderr
// logger when "/debug" (or --debug) is on; stdout stays clean for the
// conversation itself.
func (c *Controller) debugTrace(what string, err error) {
	if c.debug == nil || !*c.debug {
		return
	}
	slog.Debug(what, "error", err)
}

func (c *Controller) commitUserTurn(text string) error {
	if c.session == nil || c.sessionStore == nil {
		return nil
	}
	return c.sessionStore.CommitTurn(c.session, chatsession.Message{
		Role: chatsession.RoleUser, Content: text, Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) commitSystemTurn(text string) error {
	if c.session == nil || c.sessionStore == nil {
		return nil
	}
	return c.sessionStore.CommitTurn(c.session, chatsession.Message{
		Role: chatsession.RoleSystem, Content: text, Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) commitAssistantTurn(text string) error {
	if c.session == nil || c.sessionStore == nil {
		return nil
	}
	return c.sessionStore.CommitTurn(c.session, chatsession.Message{
		Role: chatsession.RoleAssistant, Content: text, Timestamp: time.Now().UTC(),
	})
}

// Collab exposes a collab.Session sharing this controller's pager,
// spinner, router, reader, and theme, for an Agent implementation that
// needs to ask the user a question mid-turn.
func (c *Controller) Collab() *collab.Session {
	return collab.New(c.pager, c.spinner, c.router, c.theme, c.md, c.reader, c.term.Write)
}

// Ask lets the controller itself serve as a collaboration hook: a fresh
// collab.Session is built per question, so a theme change between turns
// is picked up rather than frozen at startup.
func (c *Controller) Ask(ctx context.Context, question, contextBlock string) (modelagent.CollabReply, error) {
	return c.Collab().Ask(ctx, question, contextBlock)
}
