package handlers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clio-cli/clio/internal/chatsession"
)

func TestTodoLifecycle(t *testing.T) {
	d := testDeps(t)

	dispatch(t, d, "/todo add refactor the pager")
	dispatch(t, d, "/todo add write release notes")
	if len(d.Session.Todos) != 2 {
		t.Fatalf("todos = %d, want 2", len(d.Session.Todos))
	}

	dispatch(t, d, "/todo done 1")
	if !d.Session.Todos[0].Done {
		t.Error("todo 1 should be done")
	}

	disp := dispatch(t, d, "/todo view")
	if !strings.Contains(disp.Output, "[x] refactor the pager") {
		t.Errorf("view output missing done marker: %q", disp.Output)
	}
	if !strings.Contains(disp.Output, "[ ] write release notes") {
		t.Errorf("view output missing open item: %q", disp.Output)
	}

	dispatch(t, d, "/todo clear")
	if len(d.Session.Todos) != 0 {
		t.Error("clear should empty the list")
	}
}

func TestTodoDoneRejectsBadIndex(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/todo done 7")
	if !strings.Contains(disp.Output, "no such todo") {
		t.Errorf("Output = %q", disp.Output)
	}
	if !disp.Continue {
		t.Error("bad input must not stop the loop")
	}
}

func TestContextAddListRemove(t *testing.T) {
	d := testDeps(t)
	path := filepath.Join(d.WorkDir, "notes.md")
	if err := os.WriteFile(path, []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}

	disp := dispatch(t, d, "/context add "+path)
	if !strings.Contains(disp.Output, "added") {
		t.Errorf("Output = %q", disp.Output)
	}

	disp = dispatch(t, d, "/context add "+filepath.Join(d.WorkDir, "missing.md"))
	if !strings.Contains(disp.Output, "not found") {
		t.Errorf("Output = %q", disp.Output)
	}

	disp = dispatch(t, d, "/context list")
	if !strings.Contains(disp.Output, "notes.md") {
		t.Errorf("list missing added file: %q", disp.Output)
	}

	dispatch(t, d, "/context remove "+path)
	disp = dispatch(t, d, "/context list")
	if disp.Output != "no context files attached" {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestFileReadSetsCurrentFile(t *testing.T) {
	d := testDeps(t)
	path := filepath.Join(d.WorkDir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	disp := dispatch(t, d, "/file read "+path)
	if !strings.Contains(disp.Output, "package main") {
		t.Errorf("Output = %q", disp.Output)
	}
	if d.Session.CurrentFile != path {
		t.Errorf("CurrentFile = %q, want %q", d.Session.CurrentFile, path)
	}
}

func TestReadRewritesToFileRead(t *testing.T) {
	d := testDeps(t)
	path := filepath.Join(d.WorkDir, "a.txt")
	if err := os.WriteFile(path, []byte("alpha\n"), 0644); err != nil {
		t.Fatal(err)
	}
	disp := dispatch(t, d, "/read "+path)
	if !strings.Contains(disp.Output, "alpha") {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestSkillsAddUseDelete(t *testing.T) {
	d := testDeps(t)

	dispatch(t, d, "/skills add greet Say hello politely")
	disp := dispatch(t, d, "/skills list")
	if !strings.Contains(disp.Output, "greet") {
		t.Errorf("list = %q", disp.Output)
	}

	disp = dispatch(t, d, "/skills use greet the new user")
	if !strings.Contains(disp.AIPrompt, "Say hello politely") {
		t.Errorf("AIPrompt = %q", disp.AIPrompt)
	}
	if !strings.Contains(disp.AIPrompt, "the new user") {
		t.Errorf("AIPrompt should carry extra input: %q", disp.AIPrompt)
	}

	dispatch(t, d, "/skills delete greet")
	disp = dispatch(t, d, "/skills use greet")
	if disp.AIPrompt != "" {
		t.Error("deleted skill must not produce a prompt")
	}
}

func TestMemoryStoreProducesPromptAndPersists(t *testing.T) {
	d := testDeps(t)

	disp := dispatch(t, d, "/memory store prefer table-driven tests")
	if !strings.Contains(disp.AIPrompt, "prefer table-driven tests") {
		t.Errorf("AIPrompt = %q", disp.AIPrompt)
	}

	disp = dispatch(t, d, "/memory list")
	if !strings.Contains(disp.Output, "prefer table-driven tests") {
		t.Errorf("list = %q", disp.Output)
	}

	dispatch(t, d, "/memory clear")
	disp = dispatch(t, d, "/memory list")
	if disp.Output != "no stored memory" {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestPromptTemplateLifecycle(t *testing.T) {
	d := testDeps(t)

	dispatch(t, d, "/prompt save terse Answer in one sentence.")
	dispatch(t, d, "/prompt set terse")
	if d.Settings.Prompt != "terse" {
		t.Errorf("Settings.Prompt = %q, want terse", d.Settings.Prompt)
	}

	disp := dispatch(t, d, "/prompt show")
	if !strings.Contains(disp.Output, "Answer in one sentence.") {
		t.Errorf("show = %q", disp.Output)
	}

	dispatch(t, d, "/prompt delete terse")
	if d.Settings.Prompt != "" {
		t.Error("deleting the active template should deactivate it")
	}

	disp = dispatch(t, d, "/prompt show")
	if disp.Output != "using the built-in default prompt" {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestStyleSetPersistsOnSession(t *testing.T) {
	d := testDeps(t)

	dispatch(t, d, "/style set concise")
	if d.Session.Style != "concise" {
		t.Errorf("Session.Style = %q", d.Session.Style)
	}

	disp := dispatch(t, d, "/style set shouty")
	if !strings.Contains(disp.Output, "unknown style") {
		t.Errorf("Output = %q", disp.Output)
	}

	// Peek: the live session still holds its lifetime lock.
	loaded, err := d.SessionStore.Peek(d.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Style != "concise" {
		t.Errorf("persisted style = %q", loaded.Style)
	}
}

func TestSessionNewAndSwitch(t *testing.T) {
	d := testDeps(t)
	var rebound *chatsession.Session
	d.SetSession = func(s *chatsession.Session) { rebound = s }

	first := d.Session
	if err := d.SessionStore.SaveState(first); err != nil {
		t.Fatal(err)
	}

	dispatch(t, d, "/session new")
	if d.Session == first || rebound != d.Session {
		t.Error("new session should replace and rebind the live session")
	}

	disp := dispatch(t, d, "/session switch "+first.ID[:8])
	if d.Session.ID != first.ID {
		t.Errorf("switch landed on %s, want %s", d.Session.ID, first.ID)
	}
	if !strings.Contains(disp.Output, "switched to session") {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestSessionClearEmptiesHistory(t *testing.T) {
	d := testDeps(t)
	if err := d.SessionStore.CommitTurn(d.Session, chatsession.Message{Role: chatsession.RoleUser, Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	dispatch(t, d, "/session clear")
	if len(d.Session.Messages) != 0 {
		t.Errorf("messages = %d, want 0", len(d.Session.Messages))
	}
}

func TestAPISetProviderGoesThroughApplyProvider(t *testing.T) {
	d := testDeps(t)
	var applied string
	d.ApplyProvider = func(name, model string) error {
		applied = name
		d.Settings.Provider.Name = name
		return nil
	}

	disp := dispatch(t, d, "/api set provider openai")
	if applied != "openai" {
		t.Errorf("ApplyProvider got %q, want openai", applied)
	}
	if !strings.Contains(disp.Output, "Switched to provider: openai (saved)") {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestAPIKeyBackCompatRewrite(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/api key abc123")
	if !strings.Contains(disp.Output, "provider key updated") {
		t.Errorf("old-style /api key should reach /api set key, got %q", disp.Output)
	}
}

func TestQuitAliasExits(t *testing.T) {
	d := testDeps(t)
	for _, line := range []string{"/q", "/quit", "/exit"} {
		if disp := dispatch(t, d, line); disp.Continue {
			t.Errorf("%s should stop the loop", line)
		}
	}
}

func TestConfigWorkdirValidatesDirectory(t *testing.T) {
	d := testDeps(t)

	disp := dispatch(t, d, "/config workdir "+filepath.Join(d.WorkDir, "nope"))
	if !strings.Contains(disp.Output, "not a directory") {
		t.Errorf("Output = %q", disp.Output)
	}

	sub := filepath.Join(d.WorkDir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	dispatch(t, d, "/config workdir "+sub)
	if d.WorkDir != sub {
		t.Errorf("WorkDir = %q, want %q", d.WorkDir, sub)
	}
}

func TestConfigLoglevelTogglesDebug(t *testing.T) {
	d := testDeps(t)
	dispatch(t, d, "/config loglevel debug")
	if !*d.Debug {
		t.Error("debug should be on")
	}
	dispatch(t, d, "/config loglevel info")
	if *d.Debug {
		t.Error("debug should be off")
	}
}

func TestUpdateStatusWithoutCache(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/update status")
	if !strings.Contains(disp.Output, "no update check has run yet") {
		t.Errorf("Output = %q", disp.Output)
	}
}

func TestMemoryStoreUsage(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/memory store")
	if disp.AIPrompt != "" || !strings.Contains(disp.Output, "usage:") {
		t.Errorf("bare store should print usage, got %q / %q", disp.Output, disp.AIPrompt)
	}
}
