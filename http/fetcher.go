// Package http provides an HTTP-based implementation of docdex.Fetcher
// for retrieving llms.txt link lists, XML sitemaps, and the documents
// they reference.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxConcurrent bounds in-flight document fetches per source.
const DefaultMaxConcurrent = 5

// expectedURLsPerSource sizes the per-cycle dedup filter.
const expectedURLsPerSource = 10_000

var _ docdex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves a source's link list and every document it names.
// HTML documents are passed through content extraction and markdown
// conversion; markdown and plain text documents are stored as-is.
type Fetcher struct {
	client        *http.Client
	extractor     docdex.Extractor
	fallback      docdex.Extractor
	converter     docdex.Converter
	limiter       docdex.DomainLimiter
	maxConcurrent int
	retryDelays   []time.Duration
	timeout       time.Duration
	userAgent     string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMaxConcurrent bounds the number of documents fetched in parallel
// for one source.
func WithMaxConcurrent(n int) Option {
	return func(f *Fetcher) { f.maxConcurrent = n }
}

// WithLimiter sets the per-domain rate limiter.
func WithLimiter(l docdex.DomainLimiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRetryDelays overrides the backoff delays between fetch attempts.
// Useful in tests.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) { f.retryDelays = delays }
}

// WithFallbackExtractor sets a second extractor tried when the primary
// one fails or finds no content.
func WithFallbackExtractor(e docdex.Extractor) Option {
	return func(f *Fetcher) { f.fallback = e }
}

// NewFetcher creates a Fetcher using the given extraction pipeline.
func NewFetcher(extractor docdex.Extractor, converter docdex.Converter, opts ...Option) *Fetcher {
	f := &Fetcher{
		extractor:     extractor,
		converter:     converter,
		maxConcurrent: DefaultMaxConcurrent,
		retryDelays:   DefaultRetryDelays(),
		timeout:       DefaultFetchTimeout,
		userAgent:     "docdex/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.limiter == nil {
		f.limiter = NewDomainLimiter(2)
	}
	f.client = &http.Client{Timeout: f.timeout}
	return f
}

// FetchSource resolves the source's link list and fetches every linked
// document concurrently. Per-document failures are collected in the
// result; an error is returned only when the link list itself cannot
// be retrieved.
func (f *Fetcher) FetchSource(ctx context.Context, source docdex.Source) (*docdex.SourceFetch, error) {
	links, digest, err := f.resolveLinks(ctx, source)
	if err != nil {
		return nil, err
	}

	fetch := &docdex.SourceFetch{Source: source, ListingDigest: digest}

	// Listings occasionally repeat a URL; fetch each one once.
	seen := bloom.NewFilter(expectedURLsPerSource, 0.001)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)

	for _, link := range links {
		if seen.TestAndAdd(link.URL) {
			continue
		}
		g.Go(func() error {
			doc, err := f.fetchDocument(ctx, link)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fetch.Errors = append(fetch.Errors, fmt.Sprintf("%s: %v", link.URL, err))
				return nil
			}
			fetch.Documents = append(fetch.Documents, *doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fetch, nil
}

// resolveLinks fetches the source's listing and returns the document
// links it names together with a digest of the raw listing. A source
// URL that is neither an llms.txt file nor a sitemap is treated as a
// single document.
func (f *Fetcher) resolveLinks(ctx context.Context, source docdex.Source) ([]docdex.DocLink, string, error) {
	switch {
	case docdex.IsSitemapURL(source.URL):
		body, err := f.get(ctx, source.URL)
		if err != nil {
			return nil, "", fmt.Errorf("fetching sitemap: %w", err)
		}
		urls, err := f.sitemapURLs(ctx, body, 0)
		if err != nil {
			return nil, "", err
		}
		links := make([]docdex.DocLink, len(urls))
		for i, u := range urls {
			links[i] = docdex.DocLink{URL: u}
		}
		return links, digest(body), nil

	case docdex.IsLLMSTxtURL(source.URL):
		body, err := f.get(ctx, source.URL)
		if err != nil {
			return nil, "", fmt.Errorf("fetching llms.txt: %w", err)
		}
		return docdex.ParseLinks(body, source.URL), digest(body), nil

	default:
		// A plain page URL is its own single-document listing.
		return []docdex.DocLink{{URL: source.URL}}, digest(source.URL), nil
	}
}

// fetchDocument retrieves one document and normalizes it to markdown.
func (f *Fetcher) fetchDocument(ctx context.Context, link docdex.DocLink) (*docdex.FetchedDocument, error) {
	if u, err := url.Parse(link.URL); err == nil {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	body, contentType, err := f.getWithRetry(ctx, link.URL)
	if err != nil {
		return nil, err
	}

	title := link.Title
	content := body
	if isHTML(contentType, body) {
		extracted, err := f.extract(body)
		if err != nil {
			return nil, fmt.Errorf("extracting content: %w", err)
		}
		content, err = f.converter.Convert(extracted.ContentHTML)
		if err != nil {
			return nil, fmt.Errorf("converting to markdown: %w", err)
		}
		if extracted.Title != "" {
			title = extracted.Title
		}
	}
	if title == "" {
		title = docdex.ExtractMarkdownTitle(content)
	}
	if title == "" {
		title = link.URL
	}

	return &docdex.FetchedDocument{URL: link.URL, Title: title, Content: content}, nil
}

// extract runs the primary extractor, falling back to the secondary
// one when the primary fails or returns an empty body.
func (f *Fetcher) extract(body string) (*docdex.ExtractResult, error) {
	result, err := f.extractor.Extract(body)
	if f.fallback == nil {
		return result, err
	}
	if err == nil && strings.TrimSpace(result.ContentHTML) != "" {
		return result, nil
	}
	return f.fallback.Extract(body)
}

// getWithRetry fetches a URL with exponential backoff, returning the
// body and the response content type.
func (f *Fetcher) getWithRetry(ctx context.Context, rawURL string) (string, string, error) {
	var contentType string
	body, err := FetchWithRetryDelays(ctx, rawURL, func(ctx context.Context, u string) (string, error) {
		b, ct, err := f.getWithType(ctx, u)
		contentType = ct
		return b, err
	}, f.retryDelays)
	return body, contentType, err
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	body, _, err := f.getWithType(ctx, rawURL)
	return body, err
}

func (f *Fetcher) getWithType(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(body), resp.Header.Get("Content-Type"), nil
}

// isHTML decides whether a response body needs content extraction.
func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(body)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// digest fingerprints a listing so refresh cycles can detect source
// level changes cheaply.
func digest(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
