package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_ContendedAcquireTimesOut(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.db.lock")

	holder := NewFileLock(path)
	require.NoError(t, holder.Acquire(context.Background(), time.Second))
	defer func() { _ = holder.Release() }()

	waiter := NewFileLock(path)
	start := time.Now()
	err := waiter.Acquire(context.Background(), 100*time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrLockTimeout)
	assert.Less(t, elapsed, time.Second, "wait must stay bounded")
}

func TestFileLock_ReleaseAllowsReacquire(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.db.lock")

	first := NewFileLock(path)
	require.NoError(t, first.Acquire(context.Background(), time.Second))
	require.NoError(t, first.Release())

	second := NewFileLock(path)
	require.NoError(t, second.Acquire(context.Background(), time.Second))
	require.NoError(t, second.Release())
}

func TestFileLock_ReleaseWithoutAcquire(t *testing.T) {
	t.Parallel()
	l := NewFileLock(filepath.Join(t.TempDir(), "x.lock"))
	assert.NoError(t, l.Release())
}
