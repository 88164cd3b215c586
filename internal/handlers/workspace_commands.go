package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/update"
)

// todoCmd manages the session-scoped task list.
func todoCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "todo", Short: "manage the session task list"}

	save := func() {
		if d.Session != nil && d.SessionStore != nil {
			_ = d.SessionStore.SaveState(d.Session)
		}
	}

	view := func(cmd *cobra.Command, args []string) error {
		if len(d.Session.Todos) == 0 {
			out(cmd.Context(), "no todos")
			return nil
		}
		var b strings.Builder
		for i, item := range d.Session.Todos {
			mark := " "
			if item.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "%2d [%s] %s\n", i+1, mark, item.Text)
		}
		out(cmd.Context(), strings.TrimRight(b.String(), "\n"))
		return nil
	}
	cmd.RunE = view
	cmd.AddCommand(&cobra.Command{Use: "view", Short: "show the task list", RunE: view})

	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /todo add <text>")
				return nil
			}
			d.Session.Todos = append(d.Session.Todos, chatsession.TodoItem{Text: strings.Join(args, " ")})
			save()
			out(cmd.Context(), fmt.Sprintf("added todo %d", len(d.Session.Todos)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "done",
		Short: "mark a task done by number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /todo done <number>")
				return nil
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(d.Session.Todos) {
				out(cmd.Context(), "no such todo: "+args[0])
				return nil
			}
			d.Session.Todos[n-1].Done = true
			save()
			out(cmd.Context(), "done: "+d.Session.Todos[n-1].Text)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "remove every task",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Session.Todos = nil
			save()
			out(cmd.Context(), "todos cleared")
			return nil
		},
	})

	return cmd
}

// memoryPath is the cross-session memory file appended to by "/memory
// store" and read back on "/memory list".
func memoryPath(home string) string {
	return filepath.Join(home, ".clio", "memory.md")
}

// memoryCmd manages durable notes that outlive any one session. "store"
// both persists the note and hands it to the model as the next prompt,
// so the assistant acknowledges and applies it immediately.
func memoryCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "memory", Short: "manage durable cross-session notes"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "show stored notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(memoryPath(d.Home))
			if os.IsNotExist(err) || len(data) == 0 {
				out(cmd.Context(), "no stored memory")
				return nil
			}
			if err != nil {
				return err
			}
			out(cmd.Context(), strings.TrimRight(string(data), "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "store",
		Short: "store a note and tell the model about it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /memory store <note>")
				return nil
			}
			note := strings.Join(args, " ")
			path := memoryPath(d.Home)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return err
			}
			_, werr := fmt.Fprintf(f, "- %s (%s)\n", note, time.Now().Format("2006-01-02"))
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return werr
			}
			aiPrompt(cmd.Context(), "Remember and apply this going forward: "+note)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "delete every stored note",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := os.Remove(memoryPath(d.Home))
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			out(cmd.Context(), "memory cleared")
			return nil
		},
	})

	return cmd
}

func skillsDir(home string) string {
	return filepath.Join(home, ".clio", "skills")
}

// skillsCmd manages reusable prompt snippets saved as one markdown file
// per skill; "use" feeds the chosen skill (plus any extra arguments) to
// the model as the next prompt.
func skillsCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "skills", Short: "manage reusable prompt skills"}

	skillPath := func(name string) string {
		return filepath.Join(skillsDir(d.Home), name+".md")
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "save a new skill",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				out(cmd.Context(), "usage: /skills add <name> <instructions...>")
				return nil
			}
			if err := os.MkdirAll(skillsDir(d.Home), 0755); err != nil {
				return err
			}
			name := args[0]
			body := strings.Join(args[1:], " ") + "\n"
			if err := os.WriteFile(skillPath(name), []byte(body), 0644); err != nil {
				return err
			}
			out(cmd.Context(), "skill saved: "+name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list saved skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(skillsDir(d.Home))
			if os.IsNotExist(err) || len(entries) == 0 {
				out(cmd.Context(), "no skills saved")
				return nil
			}
			if err != nil {
				return err
			}
			var names []string
			for _, e := range entries {
				if filepath.Ext(e.Name()) == ".md" {
					names = append(names, strings.TrimSuffix(e.Name(), ".md"))
				}
			}
			out(cmd.Context(), strings.Join(names, "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show a skill's instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /skills show <name>")
				return nil
			}
			data, err := os.ReadFile(skillPath(args[0]))
			if err != nil {
				out(cmd.Context(), "no such skill: "+args[0])
				return nil
			}
			out(cmd.Context(), strings.TrimRight(string(data), "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use",
		Short: "run a skill as the next model prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /skills use <name> [input...]")
				return nil
			}
			data, err := os.ReadFile(skillPath(args[0]))
			if err != nil {
				out(cmd.Context(), "no such skill: "+args[0])
				return nil
			}
			prompt := strings.TrimRight(string(data), "\n")
			if len(args) > 1 {
				prompt += "\n\nInput: " + strings.Join(args[1:], " ")
			}
			aiPrompt(cmd.Context(), prompt)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "delete a saved skill",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /skills delete <name>")
				return nil
			}
			if err := os.Remove(skillPath(args[0])); err != nil {
				out(cmd.Context(), "no such skill: "+args[0])
				return nil
			}
			out(cmd.Context(), "deleted skill "+args[0])
			return nil
		},
	})

	return cmd
}

func promptsDir(home string) string {
	return filepath.Join(home, ".clio", "prompts")
}

// promptCmd manages named system-prompt templates. The active template
// name lives in Settings so it survives restarts with the rest of the
// configuration.
func promptCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "prompt", Short: "manage system prompt templates"}

	promptPath := func(name string) string {
		return filepath.Join(promptsDir(d.Home), name+".md")
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show the active prompt template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.Settings.Prompt == "" {
				out(cmd.Context(), "using the built-in default prompt")
				return nil
			}
			data, err := os.ReadFile(promptPath(d.Settings.Prompt))
			if err != nil {
				out(cmd.Context(), fmt.Sprintf("active prompt %q is missing on disk; run /prompt reset", d.Settings.Prompt))
				return nil
			}
			out(cmd.Context(), fmt.Sprintf("active: %s\n\n%s", d.Settings.Prompt, strings.TrimRight(string(data), "\n")))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list saved prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(promptsDir(d.Home))
			if os.IsNotExist(err) || len(entries) == 0 {
				out(cmd.Context(), "no prompt templates saved")
				return nil
			}
			if err != nil {
				return err
			}
			var b strings.Builder
			for _, e := range entries {
				if filepath.Ext(e.Name()) != ".md" {
					continue
				}
				name := strings.TrimSuffix(e.Name(), ".md")
				if name == d.Settings.Prompt {
					name += " (active)"
				}
				b.WriteString(name + "\n")
			}
			out(cmd.Context(), strings.TrimRight(b.String(), "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "activate a saved prompt template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /prompt set <name>")
				return nil
			}
			if _, err := os.Stat(promptPath(args[0])); err != nil {
				out(cmd.Context(), "no such prompt template: "+args[0])
				return nil
			}
			d.Settings.Prompt = args[0]
			out(cmd.Context(), "active prompt set to "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "save a prompt template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				out(cmd.Context(), "usage: /prompt save <name> <text...>")
				return nil
			}
			if err := os.MkdirAll(promptsDir(d.Home), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(promptPath(args[0]), []byte(strings.Join(args[1:], " ")+"\n"), 0644); err != nil {
				return err
			}
			out(cmd.Context(), "prompt template saved: "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "edit a prompt template in your editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := d.Settings.Prompt
			if len(args) > 0 {
				name = args[0]
			}
			if name == "" {
				out(cmd.Context(), "usage: /prompt edit <name>")
				return nil
			}
			existing, _ := os.ReadFile(promptPath(name))
			text, err := composeInEditor(string(existing))
			if err != nil {
				out(cmd.Context(), "editor: "+err.Error())
				return nil
			}
			if err := os.MkdirAll(promptsDir(d.Home), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(promptPath(name), []byte(text), 0644); err != nil {
				return err
			}
			out(cmd.Context(), "prompt template updated: "+name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "delete a prompt template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /prompt delete <name>")
				return nil
			}
			if err := os.Remove(promptPath(args[0])); err != nil {
				out(cmd.Context(), "no such prompt template: "+args[0])
				return nil
			}
			if d.Settings.Prompt == args[0] {
				d.Settings.Prompt = ""
			}
			out(cmd.Context(), "deleted prompt template "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "return to the built-in default prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Settings.Prompt = ""
			out(cmd.Context(), "prompt reset to the built-in default")
			return nil
		},
	})

	return cmd
}

// styleNames are the response styles "/style set" accepts. They shape
// how the assistant answers, not how the terminal looks (that's /theme).
var styleNames = []string{"default", "concise", "detailed", "tutor"}

func styleCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "style", Short: "show or change the response style"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list available response styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			out(cmd.Context(), strings.Join(styleNames, "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show the session's response style",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := d.Session.Style
			if s == "" {
				s = "default"
			}
			out(cmd.Context(), "style: "+s)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "set the session's response style",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /style set "+strings.Join(styleNames, "|"))
				return nil
			}
			if !containsString(styleNames, args[0]) {
				out(cmd.Context(), "unknown style: "+args[0])
				return nil
			}
			d.Session.Style = args[0]
			if d.SessionStore != nil {
				_ = d.SessionStore.SaveState(d.Session)
			}
			out(cmd.Context(), "style set to "+args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "make the session's style the global default",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Settings.Style = d.Session.Style
			if err := config.Save(d.SettingsDir, d.Settings); err != nil {
				return err
			}
			out(cmd.Context(), "style saved as the global default")
			return nil
		},
	})

	return cmd
}

// updateCmd surfaces the background version check. Downloading and
// installing binaries is the installer's job, not the chat client's, so
// install/switch point there instead of doing it inline.
func updateCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "update", Short: "check for newer CLIO versions"}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "show the cached update-check result",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, stale := update.ReadCache(d.Home)
			if res == nil {
				out(cmd.Context(), "no update check has run yet; run /update check")
				return nil
			}
			msg := fmt.Sprintf("current: %s\nlatest:  %s (checked %s)", d.Version, res.LatestVersion, res.CheckedAt.Format("2006-01-02 15:04"))
			if stale {
				msg += "\n(cache is stale; run /update check)"
			}
			if update.NeedsAnnounce(res, d.Version) {
				msg += "\nan update is available; run /update install"
			}
			out(cmd.Context(), msg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "refresh the update check in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := os.Getenv("CLIO_UPDATE_URL")
			if url == "" {
				out(cmd.Context(), "no update endpoint configured (set CLIO_UPDATE_URL)")
				return nil
			}
			if err := update.SpawnDetachedCheck(url); err != nil {
				return err
			}
			out(cmd.Context(), "update check started; results appear on your next prompt")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "show known versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _ := update.ReadCache(d.Home)
			if res == nil || res.LatestVersion == "" {
				out(cmd.Context(), "installed: "+d.Version)
				return nil
			}
			out(cmd.Context(), fmt.Sprintf("installed: %s\nlatest:    %s", d.Version, res.LatestVersion))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "how to install the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _ := update.ReadCache(d.Home)
			if res == nil || !update.NeedsAnnounce(res, d.Version) {
				out(cmd.Context(), "already up to date ("+d.Version+")")
				return nil
			}
			out(cmd.Context(), fmt.Sprintf("CLIO %s is available; download it from %s and restart", res.LatestVersion, res.UpdateURL))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "switch",
		Short: "how to switch between installed versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			out(cmd.Context(), "version switching is managed by the installer; re-run it with the version you want")
			return nil
		},
	})

	return cmd
}
