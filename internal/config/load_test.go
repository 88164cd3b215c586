package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesGlobalAndProjectLayers(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.toml")
	project := filepath.Join(dir, "project.toml")

	if err := os.WriteFile(global, []byte("theme = \"bbs\"\n[provider]\nname = \"anthropic\"\nmodel = \"opus\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(project, []byte("[provider]\nname = \"anthropic\"\nmodel = \"sonnet\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(Paths{Global: global, Project: project})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Theme != "bbs" {
		t.Errorf("Theme = %q, want %q (from global layer)", settings.Theme, "bbs")
	}
	if settings.Provider.Model != "sonnet" {
		t.Errorf("Provider.Model = %q, want %q (project overrides global)", settings.Provider.Model, "sonnet")
	}
}

func TestLoadMissingFilesReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	settings, err := Load(Paths{
		Global:  filepath.Join(dir, "missing-global.toml"),
		Project: filepath.Join(dir, "missing-project.toml"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Theme != "default" {
		t.Errorf("Theme = %q, want default", settings.Theme)
	}
	if !settings.UpdateCheckEnabled() {
		t.Error("UpdateCheckEnabled() should default true")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")

	settings := NewSettings()
	settings.Provider = ProviderConfig{Name: "github-copilot", Model: "gpt"}
	if err := ApplyTier(settings, TierEconomy); err != nil {
		t.Fatalf("ApplyTier: %v", err)
	}

	if err := Save(path, settings); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(Paths{Global: path, Project: filepath.Join(dir, "nonexistent.toml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Provider.Name != "github-copilot" {
		t.Errorf("Provider.Name = %q, want %q", loaded.Provider.Name, "github-copilot")
	}
	if loaded.Tier != "economy" {
		t.Errorf("Tier = %q, want %q", loaded.Tier, "economy")
	}
}

func TestExplicitUpdateCheckFalseOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(global, []byte("update_check = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	settings, err := Load(Paths{Global: global, Project: filepath.Join(dir, "none.toml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.UpdateCheckEnabled() {
		t.Error("UpdateCheckEnabled() should be false when explicitly disabled")
	}
}
