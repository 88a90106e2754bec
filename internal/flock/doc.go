// Package flock provides cross-process exclusive file locks.
//
// The sandbox uses one lock file per root so that an apply from one
// patchbay process and a commit from another never interleave writes.
//
// Usage:
//
//	l, err := flock.Acquire(ctx, path, 30*time.Second)
//	if err != nil {
//	    return err // errors.ErrLockTimeout when held elsewhere
//	}
//	defer l.Release()
package flock
