package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	tok := Token{ExpiresAt: now.Add(-time.Minute)}
	if !tok.Expired(now) {
		t.Error("expected Expired() true for a past expiry")
	}
	tok = Token{ExpiresAt: now.Add(time.Hour)}
	if tok.Expired(now) {
		t.Error("expected Expired() false for a future expiry")
	}
}

func TestTokenNeedsRefresh(t *testing.T) {
	now := time.Now()
	tok := Token{ExpiresAt: now.Add(2 * time.Minute)}
	if !tok.NeedsRefresh(now, 5*time.Minute) {
		t.Error("expected NeedsRefresh true when within the safety window")
	}
	tok = Token{ExpiresAt: now.Add(time.Hour)}
	if tok.NeedsRefresh(now, 5*time.Minute) {
		t.Error("expected NeedsRefresh false when well before expiry")
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	tok := Token{AccessToken: "ghu_abc", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.Put("github", tok); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get("github")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected token to be found")
	}
	if got.AccessToken != "ghu_abc" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
	if got.SchemeVersion != SchemeVersion {
		t.Errorf("SchemeVersion = %d, want %d", got.SchemeVersion, SchemeVersion)
	}
}

func TestStoreClearRemovesToken(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_ = s.Put("github", Token{AccessToken: "x"})
	if err := s.Clear("github"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	_, ok, err := s.Get("github")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected token to be cleared")
	}
}

func TestGetMissingProviderNotFound(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, ok, err := s.Get("github")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected not-found for a provider never stored")
	}
}

func TestCheckMigrationDetectsStaleScheme(t *testing.T) {
	notice := CheckMigration(Token{SchemeVersion: 0}, true)
	if notice == nil {
		t.Fatal("expected a migration notice for scheme version 0 (pre-schema token)")
	}
	if notice.Message() == "" {
		t.Error("expected a non-empty message")
	}
}

func TestCheckMigrationCurrentSchemeNoNotice(t *testing.T) {
	if notice := CheckMigration(Token{SchemeVersion: SchemeVersion}, true); notice != nil {
		t.Errorf("expected no migration notice for a current-scheme token, got %+v", notice)
	}
}

func TestCheckMigrationNotFoundNoNotice(t *testing.T) {
	if notice := CheckMigration(Token{}, false); notice != nil {
		t.Errorf("expected no migration notice when no token is stored, got %+v", notice)
	}
}

type fakeExchanger struct {
	calls int
	token Token
	err   error
}

func (f *fakeExchanger) Exchange(ctx context.Context, githubToken string) (Token, error) {
	f.calls++
	return f.token, f.err
}

func TestRefresherExchangesOnceWhenFresh(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	_ = store.Put("github", Token{AccessToken: "gh-token"})

	fx := &fakeExchanger{token: Token{AccessToken: "cop-1", ExpiresAt: time.Now().Add(time.Hour)}}
	r := NewRefresher(store, fx, filepath.Join(dir, "refresh.lock"))

	tok, err := r.EnsureFresh(context.Background())
	if err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if tok.AccessToken != "cop-1" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
	if fx.calls != 1 {
		t.Fatalf("expected 1 exchange call, got %d", fx.calls)
	}

	// second call should reuse the cached, still-fresh copilot token
	if _, err := r.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh (cached): %v", err)
	}
	if fx.calls != 1 {
		t.Errorf("expected cached token to avoid a second exchange, got %d calls", fx.calls)
	}
}

func TestRefresherErrorsWithoutGithubToken(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	fx := &fakeExchanger{}
	r := NewRefresher(store, fx, filepath.Join(dir, "refresh.lock"))

	_, err := r.EnsureFresh(context.Background())
	if err != ErrNotLoggedIn {
		t.Fatalf("EnsureFresh error = %v, want ErrNotLoggedIn", err)
	}
}

func TestEnsureInstructionsDoesNotClobberExisting(t *testing.T) {
	dir := t.TempDir()
	sub := "session"
	file := "instructions.md"

	if err := EnsureInstructionsAt(dir, sub, file); err != nil {
		t.Fatalf("EnsureInstructionsAt: %v", err)
	}
	path := filepath.Join(dir, sub, file)

	custom := []byte("custom instructions")
	if err := os.WriteFile(path, custom, 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if err := EnsureInstructionsAt(dir, sub, file); err != nil {
		t.Fatalf("EnsureInstructionsAt (second call): %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}
	if string(got) != "custom instructions" {
		t.Errorf("existing file was clobbered: %q", got)
	}
}
