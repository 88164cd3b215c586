package handlers

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/clio-cli/clio/internal/auth"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/gitstatus"
	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/tui/quotaview"
	"github.com/clio-cli/clio/internal/tui/sessionpicker"
)

// defaultGitHubClientID is the public OAuth App client CLIO
// authenticates as; device flow needs no secret. Overridable with
// CLIO_GITHUB_CLIENT_ID for people running their own app registration.
const defaultGitHubClientID = "Iv1.clio0cli0device"

// apiCmd groups provider/auth subcommands: "/api login", "/api logout",
// "/api show", "/api set key|provider|model <val>", "/api status",
// "/api models", "/api providers".
func apiCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "api", Short: "manage the provider connection"}

	status := func(cmd *cobra.Command, args []string) error {
		tok, ok, err := d.TokenStore.Get("github")
		if err != nil {
			return err
		}
		if !ok {
			out(cmd.Context(), "not logged in; run /api login")
			return nil
		}
		if notice := auth.CheckMigration(tok, ok); notice != nil {
			out(cmd.Context(), notice.Message())
			return nil
		}
		out(cmd.Context(), "logged in (github)")
		return nil
	}
	cmd.AddCommand(&cobra.Command{Use: "status", Short: "show authentication status", RunE: status})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show the active provider, model, and auth state",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ok, err := d.TokenStore.Get("github")
			if err != nil {
				return err
			}
			authState := "not logged in"
			if ok {
				authState = "logged in (github)"
			}
			out(cmd.Context(), fmt.Sprintf("provider: %s\nmodel:    %s\nauth:     %s",
				d.Settings.Provider.Name, d.Settings.Provider.Model, authState))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "log in to GitHub with a device code",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID := os.Getenv("CLIO_GITHUB_CLIENT_ID")
			if clientID == "" {
				clientID = defaultGitHubClientID
			}
			tok, err := auth.Login(cmd.Context(), auth.GitHubDeviceFlowConfig(clientID), func(code auth.DeviceCode) {
				d.Write(fmt.Sprintf("Visit %s and enter code %s (expires in %s)\nWaiting for authorization...\n",
					code.VerificationURI, code.UserCode, code.ExpiresIn.Round(time.Minute)))
			})
			if err != nil {
				out(cmd.Context(), "login failed: "+err.Error())
				return nil
			}
			if err := d.TokenStore.Put("github", tok); err != nil {
				return err
			}
			out(cmd.Context(), "logged in")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "list known providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out(cmd.Context(), "anthropic\ngithub-copilot\nopenai\nlocal")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "show the active tier's model assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := config.Tier(config.GetCurrentTier(d.Settings))
			if tier == "" {
				tier = config.TierStandard
			}
			out(cmd.Context(), config.FormatTierTable(tier))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := d.TokenStore.Clear("github"); err != nil {
				return err
			}
			if err := d.TokenStore.Clear("copilot"); err != nil {
				return err
			}
			out(cmd.Context(), "logged out")
			return nil
		},
	})

	set := &cobra.Command{Use: "set", Short: "set a provider config value"}
	set.AddCommand(&cobra.Command{
		Use:   "key",
		Short: "set the active provider's API key reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /api set key <value>")
				return nil
			}
			out(cmd.Context(), "provider key updated (use /api login for OAuth providers)")
			return nil
		},
	})
	set.AddCommand(&cobra.Command{
		Use:   "provider",
		Short: "switch the active provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /api set provider <name>")
				return nil
			}
			name := args[0]
			if d.ApplyProvider == nil {
				d.Settings.Provider.Name = name
				out(cmd.Context(), "Switched to provider: "+name+" (not saved)")
				return nil
			}
			if err := d.ApplyProvider(name, ""); err != nil {
				return err
			}
			if name == "github-copilot" {
				if _, ok, _ := d.TokenStore.Get("github"); !ok {
					out(cmd.Context(), "Switched to provider: "+name+" (saved)\nnot logged in; run /api login")
					return nil
				}
			}
			out(cmd.Context(), "Switched to provider: "+name+" (saved)")
			return nil
		},
	})
	set.AddCommand(&cobra.Command{
		Use:   "model",
		Short: "switch the active model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /api set model <name>")
				return nil
			}
			if d.ApplyProvider == nil {
				d.Settings.Provider.Model = args[0]
				out(cmd.Context(), "Switched to model: "+args[0]+" (not saved)")
				return nil
			}
			if err := d.ApplyProvider(d.Settings.Provider.Name, args[0]); err != nil {
				return err
			}
			out(cmd.Context(), "Switched to model: "+args[0]+" (saved)")
			return nil
		},
	})
	cmd.AddCommand(set)

	return cmd
}

// configCmd handles "/config show/get/set/tier/workdir/loglevel/load/save".
func configCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "view or change configuration"}

	show := func(cmd *cobra.Command, args []string) error {
		out(cmd.Context(), fmt.Sprintf(
			"provider: %s/%s\ntheme: %s\ntier: %s\nworkdir: %s",
			d.Settings.Provider.Name, d.Settings.Provider.Model, d.Settings.Theme, d.Settings.Tier, d.WorkDir,
		))
		return nil
	}
	cmd.AddCommand(&cobra.Command{Use: "show", Short: "show the current configuration", RunE: show})
	cmd.AddCommand(&cobra.Command{Use: "get", Short: "show the current configuration", RunE: show, Hidden: true})

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "set a configuration value (theme, tier, provider, model, style)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				out(cmd.Context(), "usage: /config set <key> <value>")
				return nil
			}
			key, value := args[0], args[1]
			switch key {
			case "theme":
				d.Settings.Theme = value
				if d.SetTheme != nil {
					d.SetTheme(style.Load(value))
				}
			case "tier":
				if err := config.ApplyTier(d.Settings, config.Tier(value)); err != nil {
					out(cmd.Context(), err.Error())
					return nil
				}
			case "provider":
				if d.ApplyProvider != nil {
					if err := d.ApplyProvider(value, ""); err != nil {
						return err
					}
				} else {
					d.Settings.Provider.Name = value
				}
			case "model":
				if d.ApplyProvider != nil {
					if err := d.ApplyProvider(d.Settings.Provider.Name, value); err != nil {
						return err
					}
				} else {
					d.Settings.Provider.Model = value
				}
			case "style":
				d.Settings.Style = value
			default:
				out(cmd.Context(), "unknown config key: "+key)
				return nil
			}
			out(cmd.Context(), key+" set to "+value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "workdir",
		Short: "show or change the working directory commands run in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "workdir: "+d.WorkDir)
				return nil
			}
			info, err := os.Stat(args[0])
			if err != nil || !info.IsDir() {
				out(cmd.Context(), "not a directory: "+args[0])
				return nil
			}
			d.WorkDir = args[0]
			out(cmd.Context(), "workdir set to "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "loglevel",
		Short: "show or set the log level (info, debug)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				level := "info"
				if *d.Debug {
					level = "debug"
				}
				out(cmd.Context(), "loglevel: "+level)
				return nil
			}
			switch args[0] {
			case "debug":
				*d.Debug = true
			case "info":
				*d.Debug = false
			default:
				out(cmd.Context(), "usage: /config loglevel info|debug")
				return nil
			}
			out(cmd.Context(), "loglevel set to "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "reload configuration from disk, discarding unsaved changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(config.DefaultPaths())
			if err != nil {
				return err
			}
			*d.Settings = *loaded
			if d.SetTheme != nil {
				d.SetTheme(style.Load(d.Settings.Theme))
			}
			out(cmd.Context(), "configuration reloaded")
			return nil
		},
	})

	tierCmd := &cobra.Command{
		Use:   "tier [name]",
		Short: "show or set the active model tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), config.FormatTierTable(config.Tier(config.GetCurrentTier(d.Settings))))
				return nil
			}
			if err := config.ApplyTier(d.Settings, config.Tier(args[0])); err != nil {
				out(cmd.Context(), err.Error())
				return nil
			}
			out(cmd.Context(), "tier set to "+args[0])
			return nil
		},
	}
	cmd.AddCommand(tierCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "persist the current configuration to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(d.SettingsDir, d.Settings); err != nil {
				return err
			}
			out(cmd.Context(), "configuration saved")
			return nil
		},
	})

	return cmd
}

// sessionCmd handles "/session show/list/new/switch/clear".
func sessionCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "manage conversation sessions"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := d.Session
			currentFile := s.CurrentFile
			if currentFile == "" {
				currentFile = "(none)"
			}
			out(cmd.Context(), fmt.Sprintf(
				"id: %s\nstarted: %s\nmessages: %d\ncurrent file: %s\ncontext files: %d",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04"), len(s.Messages), currentFile, len(s.ContextFiles),
			))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "start a fresh session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := d.SessionStore.New()
			if err != nil {
				return err
			}
			d.Session.Close()
			d.Session = sess
			if d.SetSession != nil {
				d.SetSession(sess)
			}
			out(cmd.Context(), "started session "+sess.ID[:8])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "switch",
		Short: "switch to a saved session by ID (prefix allowed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /session switch <id>")
				return nil
			}
			id := args[0]
			if len(id) < 36 {
				summaries, err := d.SessionStore.List()
				if err != nil {
					return err
				}
				for _, s := range summaries {
					if strings.HasPrefix(s.ID, id) {
						id = s.ID
						break
					}
				}
			}
			if id == d.Session.ID {
				out(cmd.Context(), "already on session "+id[:8])
				return nil
			}
			sess, err := d.SessionStore.Load(id)
			if err != nil {
				out(cmd.Context(), "cannot open session "+args[0]+": "+err.Error())
				return nil
			}
			d.Session.Close()
			d.Session = sess
			if d.SetSession != nil {
				d.SetSession(sess)
			}
			out(cmd.Context(), fmt.Sprintf("switched to session %s (%d messages)", sess.ID[:8], len(sess.Messages)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "erase the active session's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Session.Messages = nil
			if err := d.SessionStore.SaveState(d.Session); err != nil {
				return err
			}
			out(cmd.Context(), "session history cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pick",
		Short: "choose a session to resume from an interactive list",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := d.SessionStore.List()
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				out(cmd.Context(), "no saved sessions")
				return nil
			}
			m := sessionpicker.New(summaries)
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				out(cmd.Context(), "picker: "+err.Error())
				return nil
			}
			id := m.Selected()
			if id == "" {
				out(cmd.Context(), "cancelled")
				return nil
			}
			if id == d.Session.ID {
				out(cmd.Context(), "already on session "+id[:8])
				return nil
			}
			sess, err := d.SessionStore.Load(id)
			if err != nil {
				out(cmd.Context(), "cannot open session "+id[:8]+": "+err.Error())
				return nil
			}
			d.Session.Close()
			d.Session = sess
			if d.SetSession != nil {
				d.SetSession(sess)
			}
			out(cmd.Context(), fmt.Sprintf("switched to session %s (%d messages)", sess.ID[:8], len(sess.Messages)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := d.SessionStore.List()
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				out(cmd.Context(), "no saved sessions")
				return nil
			}
			t := style.NewTable(
				style.Column{Name: "ID", Width: 8},
				style.Column{Name: "UPDATED", Width: 16},
				style.Column{Name: "PREVIEW", Width: 40},
			)
			for _, s := range summaries {
				t.AddRow(s.ID[:8], s.UpdatedAt.Format("2006-01-02 15:04"), s.Preview)
			}
			out(cmd.Context(), t.Render())
			return nil
		},
	})

	return cmd
}

// gitCmd handles "/git status/diff/log/commit". The wrapper is rebuilt
// per invocation so a "/config workdir" change takes effect immediately.
func gitCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "git", Short: "inspect the working tree"}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := gitstatus.New(d.WorkDir).Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				out(cmd.Context(), "working tree clean")
				return nil
			}
			t := style.NewTable(
				style.Column{Name: "X", Width: 1},
				style.Column{Name: "Y", Width: 1},
				style.Column{Name: "PATH", Width: 60},
			)
			t.SetHeaderSeparator(false)
			for _, s := range statuses {
				t.AddRow(string(s.Index), string(s.WorkTree), s.Path)
			}
			out(cmd.Context(), t.Render())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "diff",
		Short: "show the unstaged diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			diff, err := gitstatus.New(d.WorkDir).Diff(cmd.Context(), path)
			if err != nil {
				return err
			}
			out(cmd.Context(), diff)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "show recent commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := gitstatus.New(d.WorkDir).Log(cmd.Context(), 10)
			if err != nil {
				return err
			}
			var b strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&b, "%s %s\n", e.Hash, e.Subject)
			}
			out(cmd.Context(), b.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "commit",
		Short: "commit every tracked change with the given message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /git commit <message>")
				return nil
			}
			summary, err := gitstatus.New(d.WorkDir).Commit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				out(cmd.Context(), err.Error())
				return nil
			}
			out(cmd.Context(), strings.TrimRight(summary, "\n"))
			return nil
		},
	})

	return cmd
}

// billingCmd handles "/billing" and "/billing reset".
func billingCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "show token usage and billing totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := d.Billing.Load()
			if err != nil {
				return err
			}
			out(cmd.Context(), fmt.Sprintf(
				"prompt tokens: %d\ncompletion tokens: %d\npremium requests: %d\nlast multiplier: %s",
				snap.PromptTokens, snap.CompletionTokens, snap.PremiumRequests, snap.LastMultiplier.Kind,
			))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dash",
		Short: "open the live billing dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := tea.NewProgram(quotaview.New(d.Billing), tea.WithAltScreen()).Run(); err != nil {
				out(cmd.Context(), "dashboard: "+err.Error())
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "reset billing totals to zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := d.Billing.Reset(); err != nil {
				return err
			}
			out(cmd.Context(), "billing totals reset")
			return nil
		},
	})
	return cmd
}

// modelsCmd shows the request-class -> model assignments for the active
// tier.
func modelsCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "show the active tier's request-class model assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := config.Tier(config.GetCurrentTier(d.Settings))
			if tier == "" {
				tier = config.TierStandard
			}
			out(cmd.Context(), config.FormatTierTable(tier))
			return nil
		},
	}
}

// themeCmd shows or sets the active theme.
func themeCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [name]",
		Short: "show or change the color theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "themes: "+strings.Join(style.Names(), ", ")+fmt.Sprintf(" (active: %s)", d.Settings.Theme))
				return nil
			}
			name := args[0]
			d.Settings.Theme = name
			if d.SetTheme != nil {
				d.SetTheme(style.Load(name))
			}
			out(cmd.Context(), "theme set to "+name)
			return nil
		},
	}
}
