package handlers

import (
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/clio-cli/clio/internal/auth"
	"github.com/clio-cli/clio/internal/billing"
	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/command"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/style"
)

func testDeps(t *testing.T) *Deps {
	dir := t.TempDir()
	sessionStore := chatsession.NewStore(dir)
	sess, err := sessionStore.New()
	if err != nil {
		t.Fatalf("sessionStore.New: %v", err)
	}
	debug := false
	return &Deps{
		Settings:     config.NewSettings(),
		SettingsDir:  dir + "/config.toml",
		Theme:        style.Load("default"),
		Session:      sess,
		SessionStore: sessionStore,
		Billing:      billing.NewManager(dir),
		TokenStore:   auth.NewStore(dir),
		WorkDir:      dir,
		Home:         dir,
		Version:      "0.1.0",
		SetTheme:     func(*style.Theme) {},
		Write:        func(string) {},
		Debug:        &debug,
	}
}

func dispatch(t *testing.T, d *Deps, line string) *command.Dispatch {
	t.Helper()
	root := &cobra.Command{Use: "clio"}
	Register(root, d)
	r := command.New(root)
	disp, err := r.Dispatch(context.Background(), line)
	if err != nil {
		t.Fatalf("Dispatch(%q): %v", line, err)
	}
	return disp
}

func TestHelpListsCommands(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/help")
	if disp.Output == "" {
		t.Error("expected non-empty help output")
	}
}

func TestExitStopsLoop(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/exit")
	if disp.Continue {
		t.Error("expected Continue false")
	}
}

func TestExplainProducesAIPrompt(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/explain the parser")
	if disp.AIPrompt == "" {
		t.Error("expected a non-empty AIPrompt")
	}
}

func TestConfigTierAppliesAndReports(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/config tier economy")
	if disp.Output == "" {
		t.Error("expected confirmation output")
	}
	if d.Settings.Tier != "economy" {
		t.Errorf("Settings.Tier = %q, want economy", d.Settings.Tier)
	}

	disp = dispatch(t, d, "/config tier")
	if disp.Output == "" {
		t.Error("expected a tier table when called with no args")
	}
}

func TestThemeSetUpdatesSettings(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/theme bbs")
	if disp.Output == "" {
		t.Error("expected confirmation output")
	}
	if d.Settings.Theme != "bbs" {
		t.Errorf("Settings.Theme = %q, want bbs", d.Settings.Theme)
	}
}

func TestBillingShowsZeroTotalsInitially(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/billing")
	if disp.Output == "" {
		t.Error("expected billing output")
	}
}

func TestSessionListEmpty(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/session list")
	if disp.Output != "no saved sessions" {
		t.Errorf("Output = %q, want %q", disp.Output, "no saved sessions")
	}
}

func TestAPIStatusNotLoggedIn(t *testing.T) {
	d := testDeps(t)
	disp := dispatch(t, d, "/api status")
	if disp.Output != "not logged in; run /api login" {
		t.Errorf("Output = %q", disp.Output)
	}
}
