// Package flock provides a file-based cross-process lock.
package flock

import (
	"github.com/fwojciec/docdex"
	"github.com/gofrs/flock"
)

// Locker implements docdex.Locker with an advisory file lock, so
// instances in separate processes sharing one database coordinate
// through the filesystem.
type Locker struct {
	fl *flock.Flock
}

var _ docdex.Locker = (*Locker)(nil)

// NewLocker creates a Locker on the given lock file path. The file is
// created on first acquisition if it does not exist.
func NewLocker(path string) *Locker {
	return &Locker{fl: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking.
func (l *Locker) TryLock() (bool, error) {
	return l.fl.TryLock()
}

// Unlock releases the lock. Releasing a lock that is not held is a
// no-op.
func (l *Locker) Unlock() error {
	return l.fl.Unlock()
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.fl.Path()
}
