package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/flock"
)

// Locker grants exclusive access to the sandbox tree.
//
// Within the process a channel semaphore serializes holders; across
// processes an flock on a file outside the sandbox does the same.
// An empty lock path disables the cross-process half.
type Locker struct {
	sem      chan struct{}
	path     string
	timeout  time.Duration
	acquired sync.Once // logs the lock path the first time it is used
}

// NewLocker creates a Locker. timeout bounds each Lock call.
func NewLocker(lockPath string, timeout time.Duration) *Locker {
	return &Locker{
		sem:     make(chan struct{}, 1),
		path:    lockPath,
		timeout: timeout,
	}
}

// Lock blocks until the sandbox is exclusively held, ctx is done, or the
// timeout elapses (ErrLockTimeout). The returned function releases the lock.
func (l *Locker) Lock(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case l.sem <- struct{}{}:
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrLockTimeout, "sandbox is busy")
	}

	if l.path == "" {
		return func() { <-l.sem }, nil
	}

	l.acquired.Do(func() {
		zerolog.Ctx(ctx).Debug().Str("lock_file", l.path).Msg("using sandbox lock file")
	})

	remaining := l.timeout
	if deadline, ok := waitCtx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	fl, err := flock.Acquire(ctx, l.path, remaining)
	if err != nil {
		<-l.sem
		return nil, err
	}

	return func() {
		if err := fl.Release(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("lock_file", l.path).Msg("failed to release sandbox lock")
		}
		<-l.sem
	}, nil
}
