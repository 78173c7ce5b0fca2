// Package slog provides logging decorators for docdex services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

var _ docdex.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with structured logging.
type LoggingSearchService struct {
	next   docdex.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next docdex.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) Search(ctx context.Context, query string, limit int, source string) (results []docdex.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"source", source,
			"results", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, limit, source)
}

// GetDocument delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) GetDocument(ctx context.Context, docURL string, offset, limit int) (page *docdex.DocumentPage, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("get document",
			"url", docURL,
			"offset", offset,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetDocument(ctx, docURL, offset, limit)
}

// GetExcerpts delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) GetExcerpts(ctx context.Context, docURL, query string, maxChunks, contextChars int) (excerpts *docdex.DocumentExcerpts, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("get excerpts",
			"url", docURL,
			"query", query,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetExcerpts(ctx, docURL, query, maxChunks, contextChars)
}
