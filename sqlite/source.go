package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/docdex"
)

// ListSources returns per-source document counts derived from the indexed
// documents, newest refresh first recorded in the sources table when present.
func (s *DocumentService) ListSources(ctx context.Context) ([]docdex.SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.source_name, d.source_url, COUNT(*) AS doc_count,
		       COALESCE(src.refreshed_at, MAX(d.updated_at)) AS last_updated
		FROM documents d
		LEFT JOIN sources src ON src.name = d.source_name
		GROUP BY d.source_name, d.source_url
		ORDER BY d.source_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var infos []docdex.SourceInfo
	for rows.Next() {
		var (
			info        docdex.SourceInfo
			lastUpdated string
		)
		if err := rows.Scan(&info.Name, &info.URL, &info.DocumentCount, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, lastUpdated); err == nil {
			info.LastUpdated = t
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}
	return infos, nil
}

// SaveSourceState records a source's listing digest and refresh time,
// replacing any previous state for the same source name.
func (s *DocumentService) SaveSourceState(ctx context.Context, state docdex.SourceState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (name, url, listing_digest, refreshed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			listing_digest = excluded.listing_digest,
			refreshed_at = excluded.refreshed_at`,
		state.Name, state.URL, state.ListingDigest, state.RefreshedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save source state: %w", err)
	}
	return nil
}

// SourceStates returns the recorded state for every known source.
func (s *DocumentService) SourceStates(ctx context.Context) ([]docdex.SourceState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, url, listing_digest, refreshed_at FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source states: %w", err)
	}
	defer rows.Close()

	var states []docdex.SourceState
	for rows.Next() {
		var (
			state       docdex.SourceState
			refreshedAt string
		)
		if err := rows.Scan(&state.Name, &state.URL, &state.ListingDigest, &refreshedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source state: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, refreshedAt); err == nil {
			state.RefreshedAt = t
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source states: %w", err)
	}
	return states, nil
}
