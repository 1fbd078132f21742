// Package worklock provides the process-exclusive advisory lock that
// guarantees only one engine writes a given working directory at a time.
package worklock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Acquire when another process already
// holds the lock. Callers must exit without touching the ledger.
type ErrAlreadyRunning struct {
	Path string
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("another crawler process is already running in %s", e.Path)
}

// Lock wraps an advisory, exclusive, non-blocking file lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a Lock bound to path. It does not acquire the lock.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Acquire attempts a non-blocking exclusive lock. If another process holds
// it, Acquire returns *ErrAlreadyRunning.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("worklock: %w", err)
	}
	if !ok {
		return &ErrAlreadyRunning{Path: l.path}
	}
	return nil
}

// Release drops the lock. Safe to call even if Acquire was never called or
// failed.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Probe reports whether the lock is currently held by some process, without
// disturbing that holder. It opens its own independent file handle so it
// never contends with an already-acquired Lock in the same process.
func Probe(path string) (held bool, err error) {
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("worklock: probe: %w", err)
	}
	if !ok {
		return true, nil
	}
	defer probe.Unlock()
	return false, nil
}
