// clio is a terminal-based AI coding assistant with a retro BBS-styled
// chat client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clio-cli/clio/internal/auth"
	"github.com/clio-cli/clio/internal/billing"
	"github.com/clio-cli/clio/internal/chat"
	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/handlers"
	"github.com/clio-cli/clio/internal/localagent"
	"github.com/clio-cli/clio/internal/modelagent"
	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/termio"
	"github.com/clio-cli/clio/internal/update"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == update.InternalCheckFlag {
		os.Exit(runInternalUpdateCheck(os.Args[2:]))
	}
	os.Exit(run())
}

// runInternalUpdateCheck is the detached child entrypoint spawned by
// update.SpawnDetachedCheck: it performs one version check against the
// URL passed as argv[2], caches the result, and exits. It never touches
// the terminal or enters the chat loop.
func runInternalUpdateCheck(args []string) int {
	if len(args) == 0 {
		return 1
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return 1
	}
	if err := update.RunAndCache(home, update.HTTPCheck(args[0]), version); err != nil {
		return 1
	}
	return 0
}

func run() int {
	newSession := flag.Bool("new", false, "start a fresh session instead of resuming the most recent one")
	resumeID := flag.String("resume", "", "resume a specific saved session by ID")
	input := flag.String("input", "", "read one prompt from this string instead of an interactive terminal")
	noColor := flag.Bool("no-color", false, "disable themed/colored output")
	debug := flag.Bool("debug", false, "enable verbose internal logging")
	flag.Parse()

	// DEBUG traces go to stderr as structured log lines; stdout belongs
	// to the conversation. Emission is gated per-call on the debug flag,
	// so "/debug" can toggle it mid-session without touching the handler.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "clio: resolving home directory:", err)
		return 1
	}

	paths := config.DefaultPaths()
	settings, err := config.Load(paths)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clio: loading configuration:", err)
		return 1
	}
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if settings.NoColor {
		*noColor = true
	}

	theme := style.Load(settings.Theme)
	if *noColor {
		theme = style.NoColor()
	}

	sessionStore := chatsession.NewStore(home)
	sess, err := resolveSession(sessionStore, *newSession, *resumeID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clio:", err)
		return 1
	}

	billingMgr := billing.NewManager(home)
	tokenStore := auth.NewStore(home)
	if tok, ok, terr := tokenStore.Get("github"); terr == nil {
		if notice := auth.CheckMigration(tok, ok); notice != nil {
			fmt.Fprintln(os.Stderr, "clio:", notice.Message())
		}
	}
	refresher := auth.NewRefresher(tokenStore, auth.NewCopilotExchanger(),
		filepath.Join(home, ".clio", "auth_refresh.lock"))

	// The terminal stays in cooked mode for line input; the pager flips
	// to cbreak around each single-key pause and restores on its way out.
	term := termio.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		// Sessions commit at every turn boundary, so the on-disk state is
		// already current; give an in-flight turn a moment to notice the
		// cancellation and commit its accumulated text, then exit. A
		// second signal skips the grace period.
		select {
		case <-sigCh:
		case <-time.After(500 * time.Millisecond):
		}
		// Deferred restores never run across os.Exit: unwind any active
		// cbreak/alt-screen switch here so Ctrl-C during a pager pause or
		// an alt-screen view never strands the user's terminal.
		term.Restore()
		os.Exit(0)
	}()

	runCheckAndAnnounce(home, settings)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	deps := &handlers.Deps{
		Settings:     settings,
		SettingsDir:  paths.Global,
		Theme:        theme,
		Session:      sess,
		SessionStore: sessionStore,
		Billing:      billingMgr,
		TokenStore:   tokenStore,
		WorkDir:      workDir,
		Home:         home,
		Version:      version,
		Debug:        debug,
	}

	// deps.Session tracks the live session across "/session new|switch",
	// so this releases whichever session lock is held at exit.
	defer func() { deps.Session.Close() }()

	agent := localagent.New()

	controller, err := chat.New(chat.Config{
		Term:         term,
		Theme:        theme,
		Agent:        agent,
		Settings:     settings,
		SettingsDir:  paths.Global,
		Home:         home,
		Version:      version,
		Session:      sess,
		SessionStore: sessionStore,
		Billing:      billingMgr,
		HandlerDeps:  deps,
		Refresher:    refresher,
		NewAgent: func(provider, model string) modelagent.Agent {
			// Only the local echo backend ships in-tree; a provider
			// switch still rebuilds the client so the rebind path is
			// exercised end to end.
			return localagent.New()
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "clio: initializing session:", err)
		return 1
	}
	agent.SetCollaborator(controller)

	if *input != "" {
		if err := controller.RunOnce(ctx, *input); err != nil {
			fmt.Fprintln(os.Stderr, "clio:", err)
			return 1
		}
		return 0
	}

	if err := controller.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "clio:", err)
		return 1
	}
	return 0
}

// resolveSession picks which session the controller should append to:
// a brand-new one, an explicitly named one, or (by default) the most
// recently updated session on disk. Opening acquires the session's
// lifetime lock; a session held by another clio process aborts startup
// with a clear in-use error.
func resolveSession(store *chatsession.Store, fresh bool, resumeID string) (*chatsession.Session, error) {
	if fresh {
		return store.New()
	}
	if resumeID != "" {
		return store.Load(resumeID)
	}
	summaries, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if len(summaries) == 0 {
		return store.New()
	}
	return store.Load(summaries[0].ID)
}

// runCheckAndAnnounce spawns a detached child process to refresh the
// update-check cache when it's gone stale, never blocking the interactive
// session on the network itself.
func runCheckAndAnnounce(home string, settings *config.Settings) {
	if !settings.UpdateCheckEnabled() {
		return
	}
	if _, needs := update.ReadCache(home); !needs {
		return
	}
	url := os.Getenv("CLIO_UPDATE_URL")
	if url == "" {
		return
	}
	_ = update.SpawnDetachedCheck(url)
}

const version = "0.1.0"
