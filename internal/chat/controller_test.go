package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clio-cli/clio/internal/billing"
	"github.com/clio-cli/clio/internal/chatsession"
	"github.com/clio-cli/clio/internal/config"
	"github.com/clio-cli/clio/internal/handlers"
	"github.com/clio-cli/clio/internal/localagent"
	"github.com/clio-cli/clio/internal/modelagent"
	"github.com/clio-cli/clio/internal/style"
	"github.com/clio-cli/clio/internal/termio"

	"github.com/clio-cli/clio/internal/auth"
)

func testController(t *testing.T, newAgent func(provider, model string) modelagent.Agent) *Controller {
	t.Helper()
	dir := t.TempDir()
	settings := config.NewSettings()
	store := chatsession.NewStore(dir)
	sess, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	theme := style.Load("plain")
	debug := false

	deps := &handlers.Deps{
		Settings:     settings,
		SettingsDir:  filepath.Join(dir, "config.toml"),
		Theme:        theme,
		Session:      sess,
		SessionStore: store,
		Billing:      billing.NewManager(dir),
		TokenStore:   auth.NewStore(dir),
		WorkDir:      dir,
		Home:         dir,
		Version:      "0.1.0",
		SetTheme:     func(*style.Theme) {},
		Debug:        &debug,
	}

	c, err := New(Config{
		Term:         termio.New(),
		Theme:        theme,
		Agent:        localagent.New(),
		Settings:     settings,
		SettingsDir:  filepath.Join(dir, "config.toml"),
		Home:         dir,
		Version:      "0.1.0",
		Session:      sess,
		SessionStore: store,
		Billing:      deps.Billing,
		HandlerDeps:  deps,
		NewAgent:     newAgent,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestApplyProviderConfigRebindsAgent(t *testing.T) {
	var rebuilt modelagent.Agent
	c := testController(t, func(provider, model string) modelagent.Agent {
		rebuilt = localagent.New()
		return rebuilt
	})
	original := c.agent

	if err := c.ApplyProviderConfig("openai", "gpt-x"); err != nil {
		t.Fatalf("ApplyProviderConfig: %v", err)
	}
	if c.settings.Provider.Name != "openai" || c.settings.Provider.Model != "gpt-x" {
		t.Errorf("settings = %+v", c.settings.Provider)
	}
	if c.agent == original || c.agent != rebuilt {
		t.Error("agent reference should be rebound to the rebuilt client")
	}
	if _, err := os.Stat(c.settingsPath); err != nil {
		t.Errorf("provider change should persist the config: %v", err)
	}
}

func TestApplyProviderConfigKeepsModelWhenUnspecified(t *testing.T) {
	c := testController(t, nil)
	c.settings.Provider.Model = "sonnet"

	if err := c.ApplyProviderConfig("anthropic", ""); err != nil {
		t.Fatal(err)
	}
	if c.settings.Provider.Model != "sonnet" {
		t.Errorf("model = %q, want sonnet to survive a provider-only switch", c.settings.Provider.Model)
	}
}

func TestHandleLineRoutesSlashCommands(t *testing.T) {
	c := testController(t, nil)
	ctx := context.Background()

	cont, prompt, handled := c.handleLine(ctx, "/exit")
	if cont || !handled || prompt != "" {
		t.Errorf("/exit: cont=%v handled=%v prompt=%q", cont, handled, prompt)
	}

	cont, prompt, handled = c.handleLine(ctx, "/explain the loop")
	if !cont || !handled || prompt == "" {
		t.Errorf("/explain: cont=%v handled=%v prompt=%q", cont, handled, prompt)
	}

	cont, prompt, handled = c.handleLine(ctx, "what is 2+2?")
	if !cont || handled || prompt != "" {
		t.Errorf("plain text: cont=%v handled=%v prompt=%q", cont, handled, prompt)
	}
}

func TestSessionRebindHookFollowsSwitch(t *testing.T) {
	c := testController(t, nil)
	before := c.session

	if _, _, handled := c.handleLine(context.Background(), "/session new"); !handled {
		t.Fatal("expected /session new to be handled")
	}
	if c.session == before {
		t.Error("controller session should be rebound by /session new")
	}
}

func TestRememberRingIsBounded(t *testing.T) {
	c := testController(t, nil)
	for i := 0; i < screenRing*2; i++ {
		c.remember("line")
	}
	if len(c.screen) != screenRing {
		t.Errorf("ring length = %d, want %d", len(c.screen), screenRing)
	}
}
