package docdex

import "context"

// FetchedDocument is a document retrieved from a source, already
// converted to markdown.
type FetchedDocument struct {
	URL     string
	Title   string
	Content string
}

// SourceFetch is the outcome of fetching one source's link list and
// all documents it names. Errors are per-document fetch failures; a
// failed document is simply absent from Documents and left unchanged
// in the store for this cycle.
type SourceFetch struct {
	Source        Source
	Documents     []FetchedDocument
	ListingDigest string
	Errors        []string
}

// Fetcher retrieves all documents for a source: llms.txt link lists,
// XML sitemaps, or a single page fetched directly.
type Fetcher interface {
	// FetchSource resolves the source's link list and fetches every
	// linked document. Per-document failures are collected in the
	// result rather than aborting the fetch; an error is returned only
	// when the link list itself cannot be retrieved.
	FetchSource(ctx context.Context, source Source) (*SourceFetch, error)
}

// DomainLimiter rate-limits outbound requests per domain.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain,
	// or the context is canceled.
	Wait(ctx context.Context, domain string) error
}
