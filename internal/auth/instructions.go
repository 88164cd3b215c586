package auth

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed templates/copilot-instructions.md
var templatesFS embed.FS

// EnsureInstructionsAt ensures the CLIO session-instructions file exists
// in workDir, writing the bundled default template if it's missing.
// Already-present files are left untouched, so a user's own edits are
// never clobbered.
func EnsureInstructionsAt(workDir, subDir, fileName string) error {
	if subDir == "" || fileName == "" {
		return nil
	}

	path := filepath.Join(workDir, subDir, fileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking session instructions file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating session instructions directory: %w", err)
	}

	content, err := templatesFS.ReadFile("templates/copilot-instructions.md")
	if err != nil {
		return fmt.Errorf("reading bundled instructions template: %w", err)
	}

	return os.WriteFile(path, content, 0644)
}
