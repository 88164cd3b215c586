//go:build windows

package lock

import "errors"

// ErrLocked is returned by FlockTryAcquire when another process already
// holds the lock. Never produced on Windows, where locking is a no-op.
var ErrLocked = errors.New("lock held by another process")

// FlockAcquire is a no-op on Windows. CLIO doesn't run on Windows in
// production, so the advisory lock is not critical here.
func FlockAcquire(path string) (func(), error) {
	return func() {}, nil
}

// FlockTryAcquire is a no-op on Windows, mirroring FlockAcquire.
func FlockTryAcquire(path string) (func(), error) {
	return func() {}, nil
}

// flockAcquire is a no-op on Windows. CLIO doesn't run on Windows in
// production, so the advisory lock is not critical here.
func flockAcquire(path string) (func(), error) {
	return func() {}, nil
}
