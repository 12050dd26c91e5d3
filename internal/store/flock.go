package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// errLockBusy is returned by tryLock when another process holds the lock.
var errLockBusy = errors.New("state lock held by another process")

// fileLock is an exclusive flock(2) on a lock file next to the state file.
// It serializes lockable processes sharing a state directory; it does not
// protect against concurrent use within one process.
type fileLock struct {
	path string
	file *os.File
}

// tryLock takes the lock without blocking. It returns errLockBusy when
// another process holds it.
func (fl *fileLock) tryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return errLockBusy
		}
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// lock polls tryLock with exponential backoff until it succeeds or ctx is
// done.
func (fl *fileLock) lock(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 0 // bounded by ctx

	return backoff.Retry(func() error {
		err := fl.tryLock()
		if err == nil || errors.Is(err, errLockBusy) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// unlock releases the lock and closes the lock file. Unlocking a lock that
// is not held is a no-op.
func (fl *fileLock) unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
