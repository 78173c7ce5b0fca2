package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

var _ docdex.Refresher = (*LoggingRefresher)(nil)

// LoggingRefresher wraps a Refresher with structured logging.
type LoggingRefresher struct {
	next   docdex.Refresher
	logger *slog.Logger
}

// NewLoggingRefresher creates a new LoggingRefresher.
func NewLoggingRefresher(next docdex.Refresher, logger *slog.Logger) *LoggingRefresher {
	return &LoggingRefresher{next: next, logger: logger}
}

// Refresh delegates to the wrapped refresher and logs the outcome.
func (r *LoggingRefresher) Refresh(ctx context.Context) (result *docdex.RefreshResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin), "err", err}
		if result != nil {
			attrs = append(attrs,
				"status", result.Status,
				"applied", result.Applied,
				"errors", len(result.Errors),
			)
		}
		r.logger.Info("refresh", attrs...)
	}(time.Now())
	return r.next.Refresh(ctx)
}
