// Package config implements CLIO's layered configuration: the global
// ~/.clio/config.toml merged with a project-local .clio.toml. Flag and
// environment overrides (--no-color, NO_COLOR) are applied by cmd/clio
// after loading, not by this package.
package config

// RuntimeConfig describes how to invoke a model runtime binary — the
// command and argument list, one entry per request-class preset.
type RuntimeConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// ProviderConfig holds the active provider's connection settings.
type ProviderConfig struct {
	Name  string `toml:"name"`  // "anthropic", "github-copilot", ...
	Model string `toml:"model"`
}

// Settings is CLIO's full persisted configuration, written to
// ~/.clio/config.toml and merged with any project-local .clio.toml.
type Settings struct {
	Provider ProviderConfig `toml:"provider"`

	// Tier is the active model/cost tier name ("standard", "economy",
	// "budget"), or "" for a custom configuration not matching any tier.
	Tier string `toml:"tier"`

	// Tiers maps a tier name to its request-class → model assignments.
	// Populated by ApplyTier, which replaces a tier's whole class map, so
	// hand edits to that tier's entry are overwritten when it is applied.
	Tiers map[string]map[string]string `toml:"tiers"`

	// Agents holds named RuntimeConfig presets referenced by Tiers values.
	Agents map[string]*RuntimeConfig `toml:"agents"`

	Theme    string `toml:"theme"`
	NoColor  bool   `toml:"no_color"`
	DebugLog bool   `toml:"debug_log"`

	// Style is the default response style new sessions start with; a
	// session can override it via "/style set" without touching this.
	Style string `toml:"style"`

	// Prompt names the active system-prompt template under
	// ~/.clio/prompts, or "" for the built-in default.
	Prompt string `toml:"prompt"`

	// UpdateCheck is a pointer so an unset TOML key is distinguishable
	// from an explicit "update_check = false" while layering global and
	// project files.
	UpdateCheck *bool `toml:"update_check"`
}

// NewSettings returns a Settings with its maps initialized, so callers
// never need a nil check before indexing into Tiers or Agents.
func NewSettings() *Settings {
	enabled := true
	return &Settings{
		Tiers:       make(map[string]map[string]string),
		Agents:      make(map[string]*RuntimeConfig),
		Theme:       "default",
		UpdateCheck: &enabled,
	}
}

// UpdateCheckEnabled reports whether background update checks should run.
func (s *Settings) UpdateCheckEnabled() bool {
	return s.UpdateCheck == nil || *s.UpdateCheck
}
