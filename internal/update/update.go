// Package update runs a background version check as a short-lived
// detached process: it makes a single HTTP GET, caches the result, and
// exits, never blocking the interactive session. The child is the same
// binary re-exec'd with a hidden flag, so there is no second executable
// to install or keep in sync.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/clio-cli/clio/internal/util"
)

// InternalCheckFlag is the hidden flag cmd/clio recognizes to run as the
// detached update-check child rather than the interactive session: when
// present on argv, main performs one RunAndCache call and exits, never
// entering the chat loop.
const InternalCheckFlag = "--internal-update-check"

// CacheTTL is how long a cached check result is considered fresh, so
// every CLIO invocation doesn't re-check on every launch.
const CacheTTL = 24 * time.Hour

// CheckResult is the cached outcome of the last version check.
type CheckResult struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version"`
	UpdateURL     string    `json:"update_url"`
}

func cachePath(root string) string {
	return filepath.Join(root, ".clio", "update_check_cache")
}

// ReadCache returns the cached result if it's still within CacheTTL, and
// whether a fresh check is needed.
func ReadCache(root string) (*CheckResult, bool) {
	data, err := os.ReadFile(cachePath(root))
	if err != nil {
		return nil, true
	}
	var res CheckResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, true
	}
	if time.Since(res.CheckedAt) > CacheTTL {
		return &res, true
	}
	return &res, false
}

// CheckFunc abstracts the network call so tests don't hit a real
// endpoint; production wires HTTPCheck.
type CheckFunc func(ctx context.Context, currentVersion string) (CheckResult, error)

// HTTPCheck queries url, expecting a JSON body {"version": "...", "url": "..."}.
func HTTPCheck(url string) CheckFunc {
	return func(ctx context.Context, currentVersion string) (CheckResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return CheckResult{}, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return CheckResult{}, err
		}
		defer resp.Body.Close()

		var body struct {
			Version string `json:"version"`
			URL     string `json:"url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return CheckResult{}, fmt.Errorf("decoding update-check response: %w", err)
		}
		return CheckResult{CheckedAt: time.Now().UTC(), LatestVersion: body.Version, UpdateURL: body.URL}, nil
	}
}

// RunAndCache performs one check (bounded by a short timeout so a slow or
// hanging endpoint never delays anything else that shares this process)
// and writes the result to the cache file.
func RunAndCache(root string, check CheckFunc, currentVersion string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := check(ctx, currentVersion)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}
	return util.EnsureDirAndWriteJSON(cachePath(root), res)
}

// NeedsAnnounce reports whether the cached result names a version that
// differs from currentVersion, worth surfacing to the user on the next
// prompt. Versions are compared as plain strings, not by ordering.
func NeedsAnnounce(res *CheckResult, currentVersion string) bool {
	return res != nil && res.LatestVersion != "" && res.LatestVersion != currentVersion
}

// SpawnDetachedCheck launches a child copy of the running binary with
// InternalCheckFlag set, closes its stdio, and returns immediately without
// waiting — the interactive session never blocks on the network. The
// child re-enters main with the flag, performs one RunAndCache, and exits.
func SpawnDetachedCheck(url string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable for update check: %w", err)
	}
	cmd := exec.Command(self, InternalCheckFlag, url)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning update-check child: %w", err)
	}
	return nil
}
