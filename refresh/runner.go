package refresh

import (
	"context"
	"time"

	"github.com/fwojciec/docdex"
)

// StaleFunc reports whether the store needs a refresh before serving.
type StaleFunc func(ctx context.Context) (bool, error)

// Runner drives refresh cycles for a long-running server: an optional
// catch-up refresh at startup when the store is stale, then periodic
// refreshes on a fixed interval until the context is canceled.
type Runner struct {
	refresher   docdex.Refresher
	stale       StaleFunc
	interval    time.Duration
	skipStartup bool
}

// NewRunner creates a Runner. A nil stale func makes the startup
// refresh unconditional.
func NewRunner(refresher docdex.Refresher, stale StaleFunc, interval time.Duration, skipStartup bool) *Runner {
	return &Runner{
		refresher:   refresher,
		stale:       stale,
		interval:    interval,
		skipStartup: skipStartup,
	}
}

// Run blocks until the context is canceled. Refresh failures do not
// stop the loop; the next tick tries again.
func (r *Runner) Run(ctx context.Context) error {
	if !r.skipStartup {
		needed := true
		if r.stale != nil {
			// A failing staleness check falls back to refreshing
			// unconditionally; a real store problem will surface from
			// the cycle itself without taking the server down.
			if stale, err := r.stale(ctx); err == nil {
				needed = stale
			}
		}
		if needed {
			if _, err := r.refresher.Refresh(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.refresher.Refresh(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
