package update

import (
	"context"
	"testing"
	"time"
)

func TestReadCacheMissingNeedsCheck(t *testing.T) {
	dir := t.TempDir()
	res, needs := ReadCache(dir)
	if res != nil {
		t.Errorf("res = %+v, want nil", res)
	}
	if !needs {
		t.Error("expected needsCheck true when cache is missing")
	}
}

func TestRunAndCacheThenReadFresh(t *testing.T) {
	dir := t.TempDir()
	fake := func(ctx context.Context, currentVersion string) (CheckResult, error) {
		return CheckResult{CheckedAt: time.Now().UTC(), LatestVersion: "2.0.0", UpdateURL: "https://example.invalid"}, nil
	}
	if err := RunAndCache(dir, fake, "1.0.0"); err != nil {
		t.Fatalf("RunAndCache: %v", err)
	}
	res, needs := ReadCache(dir)
	if needs {
		t.Error("expected a freshly cached result to not need a re-check")
	}
	if res.LatestVersion != "2.0.0" {
		t.Errorf("LatestVersion = %q, want 2.0.0", res.LatestVersion)
	}
}

func TestNeedsAnnounceDiffersFromCurrent(t *testing.T) {
	res := &CheckResult{LatestVersion: "2.0.0"}
	if !NeedsAnnounce(res, "1.0.0") {
		t.Error("expected NeedsAnnounce true for a newer version")
	}
	if NeedsAnnounce(res, "2.0.0") {
		t.Error("expected NeedsAnnounce false when versions match")
	}
	if NeedsAnnounce(nil, "1.0.0") {
		t.Error("expected NeedsAnnounce false for a nil result")
	}
}
