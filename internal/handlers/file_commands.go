package handlers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// maxFileDisplay caps how much of a file "/file read" prints; anything
// larger is truncated with a note rather than flooding the pager.
const maxFileDisplay = 256 * 1024

// fileCmd handles "/file read/list/edit". Reading or editing a file also
// records it as the session's current file, which "/file edit" falls back
// to when no path is given.
func fileCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "file", Short: "read, list, or edit workspace files"}

	cmd.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "show a file's contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /file read <path>")
				return nil
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				out(cmd.Context(), "reading "+path+": "+err.Error())
				return nil
			}
			text := string(data)
			if len(text) > maxFileDisplay {
				text = text[:maxFileDisplay] + fmt.Sprintf("\n… (%d more bytes truncated)", len(data)-maxFileDisplay)
			}
			if d.Session != nil {
				d.Session.CurrentFile = path
				if d.SessionStore != nil {
					_ = d.SessionStore.SaveState(d.Session)
				}
			}
			out(cmd.Context(), text)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list files in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				out(cmd.Context(), "listing "+dir+": "+err.Error())
				return nil
			}
			var b strings.Builder
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				b.WriteString(name + "\n")
			}
			out(cmd.Context(), b.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "open a file in your editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			switch {
			case len(args) > 0:
				path = args[0]
			case d.Session != nil && d.Session.CurrentFile != "":
				path = d.Session.CurrentFile
			default:
				out(cmd.Context(), "usage: /file edit <path>")
				return nil
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = os.Getenv("VISUAL")
			}
			if editor == "" {
				editor = "vi"
			}
			c := exec.Command(editor, path)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				out(cmd.Context(), "editor: "+err.Error())
				return nil
			}
			if d.Session != nil {
				d.Session.CurrentFile = path
				if d.SessionStore != nil {
					_ = d.SessionStore.SaveState(d.Session)
				}
			}
			out(cmd.Context(), "edited "+path)
			return nil
		},
	})

	return cmd
}

// contextCmd manages the session's list of attached context file paths,
// persisted with the session state. The chat turn path does not read the
// list; the files are not sent to the model.
func contextCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{Use: "context", Short: "manage the session's attached context files"}

	save := func() {
		if d.Session != nil && d.SessionStore != nil {
			_ = d.SessionStore.SaveState(d.Session)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "attach one or more files to the session context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /context add <path> [path...]")
				return nil
			}
			var added, missing []string
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					missing = append(missing, path)
					continue
				}
				if !containsString(d.Session.ContextFiles, path) {
					d.Session.ContextFiles = append(d.Session.ContextFiles, path)
					added = append(added, path)
				}
			}
			save()
			var b strings.Builder
			if len(added) > 0 {
				fmt.Fprintf(&b, "added: %s\n", strings.Join(added, ", "))
			}
			if len(missing) > 0 {
				fmt.Fprintf(&b, "not found: %s\n", strings.Join(missing, ", "))
			}
			if b.Len() == 0 {
				b.WriteString("already attached\n")
			}
			out(cmd.Context(), strings.TrimRight(b.String(), "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "show the attached context files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(d.Session.ContextFiles) == 0 {
				out(cmd.Context(), "no context files attached")
				return nil
			}
			files := append([]string(nil), d.Session.ContextFiles...)
			sort.Strings(files)
			out(cmd.Context(), strings.Join(files, "\n"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "detach a file from the session context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				out(cmd.Context(), "usage: /context remove <path>")
				return nil
			}
			target := args[0]
			kept := d.Session.ContextFiles[:0]
			removed := false
			for _, f := range d.Session.ContextFiles {
				if f == target || filepath.Clean(f) == filepath.Clean(target) {
					removed = true
					continue
				}
				kept = append(kept, f)
			}
			d.Session.ContextFiles = kept
			save()
			if !removed {
				out(cmd.Context(), target+" was not attached")
				return nil
			}
			out(cmd.Context(), "removed "+target)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "detach every context file",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Session.ContextFiles = nil
			save()
			out(cmd.Context(), "context cleared")
			return nil
		},
	})

	return cmd
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
