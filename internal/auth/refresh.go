package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clio-cli/clio/internal/lock"
)

// SafetyWindow is how far ahead of actual expiry CLIO proactively
// refreshes a token, so a long streaming turn never runs into a 401
// partway through.
const SafetyWindow = 5 * time.Minute

// Exchanger turns a GitHub access token into a short-lived Copilot API
// token. It is the one piece of this package that talks to a live
// endpoint; tests supply a fake.
type Exchanger interface {
	Exchange(ctx context.Context, githubToken string) (Token, error)
}

// Refresher owns the store-locked refresh lifecycle: lock, load, check,
// exchange-if-needed, save — a single critical section so two concurrent
// CLIO processes sharing the same home directory never race to refresh
// the same token.
type Refresher struct {
	store     *Store
	exchanger Exchanger
	lockPath  string
}

// NewRefresher builds a Refresher backed by store, using exchanger to
// obtain fresh Copilot tokens from a GitHub access token.
func NewRefresher(store *Store, exchanger Exchanger, lockPath string) *Refresher {
	return &Refresher{store: store, exchanger: exchanger, lockPath: lockPath}
}

// EnsureFresh returns a valid Copilot token for the current session,
// refreshing it first if it's within SafetyWindow of expiry or already
// expired. Returns ErrNotLoggedIn if no GitHub token is on file.
func (r *Refresher) EnsureFresh(ctx context.Context) (Token, error) {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0755); err != nil {
		return Token{}, fmt.Errorf("creating auth lock directory: %w", err)
	}
	unlock, err := lock.FlockAcquire(r.lockPath)
	if err != nil {
		return Token{}, fmt.Errorf("acquiring auth refresh lock: %w", err)
	}
	defer unlock()

	github, ok, err := r.store.Get("github")
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, ErrNotLoggedIn
	}

	copilot, ok, err := r.store.Get("copilot")
	if err != nil {
		return Token{}, err
	}
	now := time.Now()
	if ok && !copilot.NeedsRefresh(now, SafetyWindow) && !copilot.Expired(now) {
		return copilot, nil
	}

	fresh, err := r.exchanger.Exchange(ctx, github.AccessToken)
	if err != nil {
		return Token{}, fmt.Errorf("exchanging for copilot token: %w", err)
	}
	if err := r.store.Put("copilot", fresh); err != nil {
		return Token{}, fmt.Errorf("persisting refreshed copilot token: %w", err)
	}
	return fresh, nil
}

// notLoggedInError is the type of ErrNotLoggedIn, returned by EnsureFresh
// when no GitHub token is stored; its message prompts the user to run
// "/api login".
type notLoggedInError struct{}

func (notLoggedInError) Error() string { return "not logged in: run /api login" }

// ErrNotLoggedIn is returned by EnsureFresh when no GitHub token exists.
var ErrNotLoggedIn error = notLoggedInError{}
