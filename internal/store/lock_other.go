//go:build !unix

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockPollInterval = 20 * time.Millisecond

// FileLock falls back to an exclusive-create lock file where flock(2) is not
// available. A lock file left behind by a crashed process expires after
// staleLockAge.
type FileLock struct {
	path string
	held bool
}

const staleLockAge = time.Minute

func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_ = f.Close()
			l.held = true
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("locking %s: %w", l.path, err)
		}
		if info, statErr := os.Stat(l.path); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			_ = os.Remove(l.path)
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s held for more than %s", ErrLockTimeout, l.path, timeout)
		case <-ticker.C:
		}
	}
}

func (l *FileLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	return os.Remove(l.path)
}
