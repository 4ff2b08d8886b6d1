// Package runlock prevents overlapping pipeline runs against one state path.
package runlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock holds an advisory file lock next to the state file. Two processes
// pointed at the same state path cannot both hold it.
type Lock struct {
	fl *flock.Flock
}

// Acquire try-locks <statePath>.lock without blocking. ok is false when
// another run holds the lock; callers treat that as a clean skip.
func Acquire(statePath string) (lock *Lock, ok bool, err error) {
	fl := flock.New(statePath + ".lock")
	got, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !got {
		return nil, false, nil
	}
	return &Lock{fl: fl}, true, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. Call once after a successful Acquire.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
