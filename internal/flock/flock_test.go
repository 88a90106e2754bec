//go:build unix

package flock_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/flock"
)

func TestExclusive_SecondDescriptorBlocked(t *testing.T) {
	lockFile := filepath.Join(t.TempDir(), "test.lock")

	f1, err := os.OpenFile(lockFile, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	defer func() { _ = f1.Close() }()

	f2, err := os.OpenFile(lockFile, os.O_RDWR, 0o600) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()

	require.NoError(t, flock.Exclusive(f1.Fd()))
	require.Error(t, flock.Exclusive(f2.Fd()))

	require.NoError(t, flock.Unlock(f1.Fd()))
	require.NoError(t, flock.Exclusive(f2.Fd()))
	require.NoError(t, flock.Unlock(f2.Fd()))
}

func TestAcquire_CreatesDirectoryAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "root.lock")

	l, err := flock.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.FileExists(t, path)
	require.NoError(t, l.Release())
	require.NoError(t, l.Release(), "double release is a no-op")

	l2, err := flock.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquire_TimesOutWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.lock")

	held, err := flock.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	_, err = flock.Acquire(context.Background(), path, 120*time.Millisecond)
	require.ErrorIs(t, err, errors.ErrLockTimeout)
}

func TestAcquire_ContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.lock")

	held, err := flock.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = flock.Acquire(ctx, path, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRelease_NilLock(t *testing.T) {
	var l *flock.Lock
	require.NoError(t, l.Release())
}
