package docdex

import "context"

// Refresh outcome statuses.
const (
	RefreshCompleted = "completed"
	RefreshSkipped   = "skipped"
	RefreshPartial   = "partial"
)

// SourceRefreshStats summarizes one source after a refresh cycle.
type SourceRefreshStats struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	DocCount int    `json:"docCount"`
	Changed  int    `json:"changed"`
	Pruned   int    `json:"pruned"`
	Errors   int    `json:"errors"`
}

// RefreshResult reports the outcome of a refresh cycle. Status is
// "completed" when every document applied cleanly, "partial" when some
// documents failed but the cycle ran, and "skipped" when another
// instance held the write lock.
type RefreshResult struct {
	Status  string               `json:"status"`
	Reason  string               `json:"reason,omitempty"`
	Applied int                  `json:"applied"`
	Sources []SourceRefreshStats `json:"sources"`
	Errors  []string             `json:"errors,omitempty"`
}

// Refresher drives the fetch/diff/apply cycle that keeps the store in
// sync with the configured sources.
type Refresher interface {
	// Refresh fetches all sources and applies changes under the
	// exclusive write lock. A held lock yields a skipped result, not an
	// error. Per-document failures are isolated and aggregated in the
	// result.
	Refresh(ctx context.Context) (*RefreshResult, error)
}

// Locker is an exclusive, non-blocking cross-process lock guarding the
// single-writer discipline on the store.
type Locker interface {
	// TryLock attempts to acquire the lock without blocking and reports
	// whether it was acquired.
	TryLock() (bool, error)

	// Unlock releases the lock. Safe to call when the lock is not held.
	Unlock() error
}
