// Package auth manages CLIO's GitHub OAuth device-flow login and the
// proactive refresh of the short-lived Copilot API token exchanged from
// the resulting GitHub token. Refresh runs as a lock-load-mutate-save
// critical section, so two CLIO processes sharing a home directory never
// race to refresh the same token.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clio-cli/clio/internal/util"
)

// SchemeVersion is bumped whenever the on-disk token schema changes in a
// way old CLIO versions can't read, driving a one-time migration notice.
const SchemeVersion = 1

// Token is a persisted OAuth credential for one provider.
type Token struct {
	SchemeVersion int       `json:"scheme_version"`
	Provider      string    `json:"provider"` // "github"
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
	ObtainedAt    time.Time `json:"obtained_at"`
}

// Expired reports whether the token is at or past its expiry.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// NeedsRefresh reports whether the token should be proactively refreshed:
// within the safety window before actual expiry, so a long-running
// session never hits a 401 mid-turn.
func (t Token) NeedsRefresh(now time.Time, safetyWindow time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(safetyWindow).After(t.ExpiresAt)
}

// Store persists tokens to ~/.clio/github_tokens.json at 0600, since
// this file holds live OAuth credentials.
type Store struct {
	path string
}

// NewStore builds a Store rooted at the user's home directory, or dir if
// non-empty (used by tests).
func NewStore(dir string) *Store {
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = home
	}
	return &Store{path: filepath.Join(dir, ".clio", "github_tokens.json")}
}

// Load reads the stored token set, returning an empty map if none exists
// yet (first run, not yet logged in).
func (s *Store) Load() (map[string]Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token store: %w", err)
	}
	var tokens map[string]Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parsing token store: %w", err)
	}
	if tokens == nil {
		tokens = map[string]Token{}
	}
	return tokens, nil
}

// Save writes the token set atomically and sets 0600 permissions
// explicitly, since EnsureDirAndWriteJSON's default (0644) is too
// permissive for credential material.
func (s *Store) Save(tokens map[string]Token) error {
	if err := util.EnsureDirAndWriteJSON(s.path, tokens); err != nil {
		return err
	}
	return os.Chmod(s.path, 0600)
}

// Put stores (or replaces) a single provider's token.
func (s *Store) Put(provider string, tok Token) error {
	tokens, err := s.Load()
	if err != nil {
		return err
	}
	tok.Provider = provider
	tok.SchemeVersion = SchemeVersion
	tokens[provider] = tok
	return s.Save(tokens)
}

// Get returns a provider's token and whether it was found.
func (s *Store) Get(provider string) (Token, bool, error) {
	tokens, err := s.Load()
	if err != nil {
		return Token{}, false, err
	}
	tok, ok := tokens[provider]
	return tok, ok, nil
}

// Clear removes a provider's stored token, called by "/api logout".
func (s *Store) Clear(provider string) error {
	tokens, err := s.Load()
	if err != nil {
		return err
	}
	delete(tokens, provider)
	return s.Save(tokens)
}

// NeedsMigration reports whether a stored token predates SchemeVersion,
// signaling the one-time migration notice should be shown. A token with
// no recorded scheme at all (version 0) predates the field itself and
// needs migration too.
func NeedsMigration(tok Token) bool {
	return tok.SchemeVersion < SchemeVersion
}
