package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docdex.Fetcher.
type Fetcher struct {
	FetchSourceFn func(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error)
}

func (f *Fetcher) FetchSource(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error) {
	return f.FetchSourceFn(ctx, source)
}

var _ docdex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of docdex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
