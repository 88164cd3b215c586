package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Paths holds the two locations config is assembled from: a global file
// in the user's home directory and an optional project-local override.
type Paths struct {
	Global  string
	Project string
}

// DefaultPaths returns the standard config locations: ~/.clio/config.toml
// and ./.clio.toml in the current directory.
func DefaultPaths() Paths {
	home, _ := os.UserHomeDir()
	return Paths{
		Global:  filepath.Join(home, ".clio", "config.toml"),
		Project: ".clio.toml",
	}
}

// Load reads the global config, then merges any project-local overrides
// on top, giving a project file precedence over the global one when
// both are present. A missing file at either layer is not an error —
// the zero-value layer simply contributes nothing.
func Load(paths Paths) (*Settings, error) {
	settings := NewSettings()
	if err := mergeFile(settings, paths.Global); err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if err := mergeFile(settings, paths.Project); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return settings, nil
}

// mergeFile decodes path into a fresh Settings and layers its non-zero
// fields onto dst. Layer-at-a-time decoding (rather than decoding
// straight into dst) means a project file that only sets [provider] does
// not clobber a global file's [tiers] table.
func mergeFile(dst *Settings, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var layer Settings
	if _, err := toml.Decode(string(data), &layer); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if layer.Provider.Name != "" {
		dst.Provider = layer.Provider
	}
	if layer.Tier != "" {
		dst.Tier = layer.Tier
	}
	for name, classes := range layer.Tiers {
		dst.Tiers[name] = classes
	}
	for name, rc := range layer.Agents {
		dst.Agents[name] = rc
	}
	if layer.Theme != "" {
		dst.Theme = layer.Theme
	}
	if layer.Style != "" {
		dst.Style = layer.Style
	}
	if layer.Prompt != "" {
		dst.Prompt = layer.Prompt
	}
	if layer.NoColor {
		dst.NoColor = true
	}
	if layer.DebugLog {
		dst.DebugLog = true
	}
	if layer.UpdateCheck != nil {
		dst.UpdateCheck = layer.UpdateCheck
	}

	return nil
}

// Save writes settings to path atomically via a sibling temp file,
// creating the parent directory as needed.
func Save(path string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "clio-config-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}
	defer os.Remove(f.Name())

	enc := toml.NewEncoder(f)
	if err := enc.Encode(settings); err != nil {
		f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
