package refresh_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/mock"
	"github.com/fwojciec/docdex/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLocker() *mock.Locker {
	return &mock.Locker{
		TryLockFn: func() (bool, error) { return true, nil },
		UnlockFn:  func() error { return nil },
	}
}

func quietStore() *mock.DocumentStore {
	return &mock.DocumentStore{
		UpsertDocumentFn: func(ctx context.Context, doc *docdex.Document) (bool, error) {
			return false, nil
		},
		DeleteDocumentsNotInFn: func(ctx context.Context, sourceName string, keep []string) (int, error) {
			return 0, nil
		},
		SaveSourceStateFn: func(ctx context.Context, state docdex.SourceState) error {
			return nil
		},
		SourceStatesFn: func(ctx context.Context) ([]docdex.SourceState, error) {
			return nil, nil
		},
	}
}

func singleSourceFetcher(docs []docdex.FetchedDocument, errs []string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchSourceFn: func(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error) {
			return &docdex.SourceFetch{
				Source:        source,
				Documents:     docs,
				ListingDigest: "digest1",
				Errors:        errs,
			}, nil
		},
	}
}

var testSources = []docdex.Source{{Name: "go_docs", URL: "https://example.com/llms.txt"}}

func TestRefresher_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("applies fetched documents and reports changes", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		var upserted []string
		store.UpsertDocumentFn = func(ctx context.Context, doc *docdex.Document) (bool, error) {
			upserted = append(upserted, doc.DocURL)
			return doc.DocURL == "https://example.com/a", nil
		}

		fetcher := singleSourceFetcher([]docdex.FetchedDocument{
			{URL: "https://example.com/a", Title: "A", Content: "new content"},
			{URL: "https://example.com/b", Title: "B", Content: "unchanged content"},
		}, nil)

		r := refresh.NewRefresher(store, fetcher, openLocker(), testSources, time.Hour)
		result, err := r.Refresh(context.Background())
		require.NoError(t, err)

		assert.Equal(t, docdex.RefreshCompleted, result.Status)
		assert.Equal(t, 1, result.Applied)
		assert.Len(t, upserted, 2)
		require.Len(t, result.Sources, 1)
		assert.Equal(t, 2, result.Sources[0].DocCount)
		assert.Equal(t, 1, result.Sources[0].Changed)
	})

	t.Run("skips when the lock is held", func(t *testing.T) {
		t.Parallel()

		var upserts int
		store := quietStore()
		store.UpsertDocumentFn = func(ctx context.Context, doc *docdex.Document) (bool, error) {
			upserts++
			return true, nil
		}
		locker := &mock.Locker{
			TryLockFn: func() (bool, error) { return false, nil },
			UnlockFn:  func() error { t.Fatal("unlock should not be called"); return nil },
		}

		fetcher := singleSourceFetcher([]docdex.FetchedDocument{{URL: "https://example.com/a"}}, nil)
		r := refresh.NewRefresher(store, fetcher, locker, testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, docdex.RefreshSkipped, result.Status)
		assert.NotEmpty(t, result.Reason)
		assert.Zero(t, upserts, "no writes should happen without the lock")
	})

	t.Run("a skipped cycle keeps listing fetch errors", func(t *testing.T) {
		t.Parallel()

		locker := &mock.Locker{
			TryLockFn: func() (bool, error) { return false, nil },
		}
		fetcher := &mock.Fetcher{
			FetchSourceFn: func(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error) {
				return nil, errors.New("connection refused")
			},
		}
		r := refresh.NewRefresher(quietStore(), fetcher, locker, testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, docdex.RefreshSkipped, result.Status)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "connection refused")
	})

	t.Run("releases the lock even when applying fails", func(t *testing.T) {
		t.Parallel()

		var unlocked bool
		locker := openLocker()
		locker.UnlockFn = func() error { unlocked = true; return nil }

		store := quietStore()
		store.UpsertDocumentFn = func(ctx context.Context, doc *docdex.Document) (bool, error) {
			return false, errors.New("disk full")
		}

		fetcher := singleSourceFetcher([]docdex.FetchedDocument{{URL: "https://example.com/a"}}, nil)
		r := refresh.NewRefresher(store, fetcher, locker, testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.True(t, unlocked)
		assert.Equal(t, docdex.RefreshPartial, result.Status)
	})

	t.Run("prunes documents missing from the listing", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		var prunedKeep []string
		store.DeleteDocumentsNotInFn = func(ctx context.Context, sourceName string, keep []string) (int, error) {
			prunedKeep = keep
			return 2, nil
		}

		fetcher := singleSourceFetcher([]docdex.FetchedDocument{
			{URL: "https://example.com/a"},
		}, nil)
		r := refresh.NewRefresher(store, fetcher, openLocker(), testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a"}, prunedKeep)
		assert.Equal(t, 2, result.Sources[0].Pruned)
	})

	t.Run("skips pruning when the listing digest is unchanged", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		store.SourceStatesFn = func(ctx context.Context) ([]docdex.SourceState, error) {
			return []docdex.SourceState{{Name: "go_docs", ListingDigest: "digest1"}}, nil
		}
		store.DeleteDocumentsNotInFn = func(ctx context.Context, sourceName string, keep []string) (int, error) {
			t.Fatal("an unchanged listing cannot unlist documents")
			return 0, nil
		}

		fetcher := singleSourceFetcher([]docdex.FetchedDocument{
			{URL: "https://example.com/a", Content: "updated content"},
		}, nil)
		r := refresh.NewRefresher(store, fetcher, openLocker(), testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, docdex.RefreshCompleted, result.Status)
		assert.Zero(t, result.Sources[0].Pruned)
	})

	t.Run("does not prune when documents failed to fetch", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		store.DeleteDocumentsNotInFn = func(ctx context.Context, sourceName string, keep []string) (int, error) {
			t.Fatal("prune should not run after fetch failures")
			return 0, nil
		}

		fetcher := singleSourceFetcher(
			[]docdex.FetchedDocument{{URL: "https://example.com/a"}},
			[]string{"https://example.com/b: 500 Internal Server Error"},
		)
		r := refresh.NewRefresher(store, fetcher, openLocker(), testSources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, docdex.RefreshPartial, result.Status)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("a failing source does not abort other sources", func(t *testing.T) {
		t.Parallel()

		sources := []docdex.Source{
			{Name: "broken", URL: "https://broken.example.com/llms.txt"},
			{Name: "go_docs", URL: "https://example.com/llms.txt"},
		}
		fetcher := &mock.Fetcher{
			FetchSourceFn: func(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error) {
				if source.Name == "broken" {
					return nil, errors.New("connection refused")
				}
				return &docdex.SourceFetch{
					Source:    source,
					Documents: []docdex.FetchedDocument{{URL: "https://example.com/a"}},
				}, nil
			},
		}
		r := refresh.NewRefresher(quietStore(), fetcher, openLocker(), sources, time.Hour)

		result, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, docdex.RefreshPartial, result.Status)
		require.Len(t, result.Sources, 1)
		assert.Equal(t, "go_docs", result.Sources[0].Name)
	})

	t.Run("records source state with the listing digest", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		var saved docdex.SourceState
		store.SaveSourceStateFn = func(ctx context.Context, state docdex.SourceState) error {
			saved = state
			return nil
		}

		fetcher := singleSourceFetcher(nil, nil)
		r := refresh.NewRefresher(store, fetcher, openLocker(), testSources, time.Hour)

		_, err := r.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "go_docs", saved.Name)
		assert.Equal(t, "digest1", saved.ListingDigest)
		assert.False(t, saved.RefreshedAt.IsZero())
	})
}

func TestRefresher_Stale(t *testing.T) {
	t.Parallel()

	t.Run("stale when a source has never been refreshed", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		store.SourceStatesFn = func(ctx context.Context) ([]docdex.SourceState, error) {
			return nil, nil
		}
		r := refresh.NewRefresher(store, nil, nil, testSources, time.Hour)

		stale, err := r.Stale(context.Background())
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("stale when the last refresh is older than the interval", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		store.SourceStatesFn = func(ctx context.Context) ([]docdex.SourceState, error) {
			return []docdex.SourceState{{
				Name:        "go_docs",
				RefreshedAt: time.Now().Add(-2 * time.Hour),
			}}, nil
		}
		r := refresh.NewRefresher(store, nil, nil, testSources, time.Hour)

		stale, err := r.Stale(context.Background())
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("fresh when all sources are within the interval", func(t *testing.T) {
		t.Parallel()

		store := quietStore()
		store.SourceStatesFn = func(ctx context.Context) ([]docdex.SourceState, error) {
			return []docdex.SourceState{{
				Name:        "go_docs",
				RefreshedAt: time.Now().Add(-10 * time.Minute),
			}}, nil
		}
		r := refresh.NewRefresher(store, nil, nil, testSources, time.Hour)

		stale, err := r.Stale(context.Background())
		require.NoError(t, err)
		assert.False(t, stale)
	})
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("refreshes at startup when stale", func(t *testing.T) {
		t.Parallel()

		refreshed := make(chan struct{}, 1)
		refresher := &mock.Refresher{
			RefreshFn: func(ctx context.Context) (*docdex.RefreshResult, error) {
				select {
				case refreshed <- struct{}{}:
				default:
				}
				return &docdex.RefreshResult{Status: docdex.RefreshCompleted}, nil
			},
		}
		stale := func(ctx context.Context) (bool, error) { return true, nil }

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = refresh.NewRunner(refresher, stale, time.Hour, false).Run(ctx)
		}()

		select {
		case <-refreshed:
		case <-time.After(2 * time.Second):
			t.Fatal("startup refresh did not run")
		}
		cancel()
		<-done
	})

	t.Run("a failing stale check degrades to an unconditional startup refresh", func(t *testing.T) {
		t.Parallel()

		refreshed := make(chan struct{}, 1)
		refresher := &mock.Refresher{
			RefreshFn: func(ctx context.Context) (*docdex.RefreshResult, error) {
				select {
				case refreshed <- struct{}{}:
				default:
				}
				return &docdex.RefreshResult{Status: docdex.RefreshCompleted}, nil
			},
		}
		stale := func(ctx context.Context) (bool, error) { return false, errors.New("database locked") }

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			errc <- refresh.NewRunner(refresher, stale, time.Hour, false).Run(ctx)
		}()

		select {
		case <-refreshed:
		case <-time.After(2 * time.Second):
			t.Fatal("startup refresh did not run")
		}
		cancel()
		assert.ErrorIs(t, <-errc, context.Canceled)
	})

	t.Run("skips startup refresh when configured", func(t *testing.T) {
		t.Parallel()

		refresher := &mock.Refresher{
			RefreshFn: func(ctx context.Context) (*docdex.RefreshResult, error) {
				t.Error("refresh should not run before the first tick")
				return nil, nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = refresh.NewRunner(refresher, nil, time.Hour, true).Run(ctx)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()
		<-done
	})

	t.Run("returns when the context is canceled", func(t *testing.T) {
		t.Parallel()

		refresher := &mock.Refresher{
			RefreshFn: func(ctx context.Context) (*docdex.RefreshResult, error) {
				return &docdex.RefreshResult{Status: docdex.RefreshCompleted}, nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			errc <- refresh.NewRunner(refresher, nil, time.Hour, true).Run(ctx)
		}()
		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not stop")
		}
	})
}
