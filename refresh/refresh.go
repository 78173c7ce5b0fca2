// Package refresh keeps the document store in sync with the
// configured sources. A refresh cycle fetches every source, then
// applies changes under an exclusive cross-process lock so multiple
// instances sharing one database never write concurrently.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/docdex"
)

// Refresher implements docdex.Refresher.
type Refresher struct {
	store    docdex.DocumentStore
	fetcher  docdex.Fetcher
	locker   docdex.Locker
	sources  []docdex.Source
	interval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

var _ docdex.Refresher = (*Refresher)(nil)

// NewRefresher creates a Refresher for the given sources.
func NewRefresher(store docdex.DocumentStore, fetcher docdex.Fetcher, locker docdex.Locker, sources []docdex.Source, interval time.Duration) *Refresher {
	return &Refresher{
		store:    store,
		fetcher:  fetcher,
		locker:   locker,
		sources:  sources,
		interval: interval,
		now:      time.Now,
	}
}

// Refresh fetches all sources and applies changes to the store.
// Fetching happens before the lock is taken so the lock covers only
// the write phase. When another instance holds the lock the cycle is
// skipped without error.
func (r *Refresher) Refresh(ctx context.Context) (*docdex.RefreshResult, error) {
	result := &docdex.RefreshResult{Status: docdex.RefreshCompleted}

	// Phase one, unlocked: fetch every source. A source whose link
	// list cannot be retrieved is reported and skipped; the cycle
	// continues with the rest.
	var fetches []*docdex.SourceFetch
	for _, src := range r.sources {
		fetch, err := r.fetcher.FetchSource(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", src.Name, err))
			continue
		}
		fetches = append(fetches, fetch)
	}

	// Phase two, locked: apply. The lock is non-blocking so a second
	// instance refreshing concurrently backs off instead of queueing.
	acquired, err := r.locker.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire refresh lock: %w", err)
	}
	if !acquired {
		// Keep the listing-fetch errors collected in phase one so
		// skipped cycles still report what went wrong.
		result.Status = docdex.RefreshSkipped
		result.Reason = "another instance holds the refresh lock"
		return result, nil
	}
	defer func() {
		if err := r.locker.Unlock(); err != nil && result != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("unlock: %v", err))
		}
	}()

	// Prior listing digests let applySource skip pruning for sources
	// whose link list is unchanged since the last cycle. A state read
	// failure just disables the short-circuit.
	prior := make(map[string]string)
	if states, err := r.store.SourceStates(ctx); err == nil {
		for _, st := range states {
			prior[st.Name] = st.ListingDigest
		}
	}

	for _, fetch := range fetches {
		stats := r.applySource(ctx, fetch, prior[fetch.Source.Name], result)
		result.Sources = append(result.Sources, stats)
		result.Applied += stats.Changed
	}

	if len(result.Errors) > 0 {
		result.Status = docdex.RefreshPartial
	}
	return result, nil
}

// applySource upserts one source's fetched documents and prunes
// documents no longer listed. Pruning is skipped when any document in
// the source failed to fetch, so a transient failure never drops a
// document from the index, and when the listing digest matches
// priorDigest, since an unchanged link list cannot unlist anything.
func (r *Refresher) applySource(ctx context.Context, fetch *docdex.SourceFetch, priorDigest string, result *docdex.RefreshResult) docdex.SourceRefreshStats {
	stats := docdex.SourceRefreshStats{
		Name:   fetch.Source.Name,
		URL:    fetch.Source.URL,
		Errors: len(fetch.Errors),
	}
	result.Errors = append(result.Errors, fetch.Errors...)

	keep := make([]string, 0, len(fetch.Documents))
	for _, fd := range fetch.Documents {
		doc := &docdex.Document{
			SourceName: fetch.Source.Name,
			SourceURL:  fetch.Source.URL,
			DocURL:     fd.URL,
			Title:      fd.Title,
			Content:    fd.Content,
		}
		changed, err := r.store.UpsertDocument(ctx, doc)
		if err != nil {
			stats.Errors++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", fd.URL, err))
			continue
		}
		keep = append(keep, fd.URL)
		stats.DocCount++
		if changed {
			stats.Changed++
		}
	}

	listingUnchanged := fetch.ListingDigest != "" && fetch.ListingDigest == priorDigest
	if !listingUnchanged && len(fetch.Errors) == 0 && stats.Errors == 0 {
		pruned, err := r.store.DeleteDocumentsNotIn(ctx, fetch.Source.Name, keep)
		if err != nil {
			stats.Errors++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: prune: %v", fetch.Source.Name, err))
		} else {
			stats.Pruned = pruned
		}
	}

	if err := r.store.SaveSourceState(ctx, docdex.SourceState{
		Name:          fetch.Source.Name,
		URL:           fetch.Source.URL,
		ListingDigest: fetch.ListingDigest,
		RefreshedAt:   r.now().UTC(),
	}); err != nil {
		stats.Errors++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: save state: %v", fetch.Source.Name, err))
	}
	return stats
}

// Stale reports whether any configured source is missing from the
// store or was last refreshed longer than the refresh interval ago.
func (r *Refresher) Stale(ctx context.Context) (bool, error) {
	states, err := r.store.SourceStates(ctx)
	if err != nil {
		return false, err
	}
	byName := make(map[string]docdex.SourceState, len(states))
	for _, st := range states {
		byName[st.Name] = st
	}
	cutoff := r.now().Add(-r.interval)
	for _, src := range r.sources {
		st, ok := byName[src.Name]
		if !ok || st.RefreshedAt.Before(cutoff) {
			return true, nil
		}
	}
	return false, nil
}
