package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

var _ docdex.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with structured logging.
type LoggingFetcher struct {
	next   docdex.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next docdex.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// FetchSource delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) FetchSource(ctx context.Context, source docdex.Source) (fetch *docdex.SourceFetch, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"source", source.Name,
			"url", source.URL,
			"duration", time.Since(begin),
			"err", err,
		}
		if fetch != nil {
			attrs = append(attrs, "documents", len(fetch.Documents), "errors", len(fetch.Errors))
		}
		f.logger.Info("fetch source", attrs...)
	}(time.Now())
	return f.next.FetchSource(ctx, source)
}
