package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Refresher = (*Refresher)(nil)

// Refresher is a mock implementation of docdex.Refresher.
type Refresher struct {
	RefreshFn func(ctx context.Context) (*docdex.RefreshResult, error)
}

func (r *Refresher) Refresh(ctx context.Context) (*docdex.RefreshResult, error) {
	return r.RefreshFn(ctx)
}

var _ docdex.Locker = (*Locker)(nil)

// Locker is a mock implementation of docdex.Locker.
type Locker struct {
	TryLockFn func() (bool, error)
	UnlockFn  func() error
}

func (l *Locker) TryLock() (bool, error) {
	return l.TryLockFn()
}

func (l *Locker) Unlock() error {
	return l.UnlockFn()
}
