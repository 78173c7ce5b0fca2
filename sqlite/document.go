package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/google/uuid"
)

// DocumentService implements docdex.DocumentStore using SQLite.
type DocumentService struct {
	db      *DB
	chunker docdex.Chunker
}

var _ docdex.DocumentStore = (*DocumentService)(nil)

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB, chunker docdex.Chunker) *DocumentService {
	return &DocumentService{db: db, chunker: chunker}
}

// UpsertDocument inserts or updates a document keyed by its URL.
// Content is hashed; a document whose stored hash matches is left untouched
// and changed reports false. On change the document's chunks and index
// entries are regenerated in the same transaction.
func (s *DocumentService) UpsertDocument(ctx context.Context, doc *docdex.Document) (changed bool, err error) {
	if err := doc.Validate(); err != nil {
		return false, err
	}

	hash := sha256.Sum256([]byte(doc.Content))
	doc.ContentHash = hex.EncodeToString(hash[:])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID, existingHash string
	err = tx.QueryRowContext(ctx,
		`SELECT id, content_hash FROM documents WHERE doc_url = ?`,
		doc.DocURL,
	).Scan(&existingID, &existingHash)

	switch {
	case err == nil:
		if existingHash == doc.ContentHash {
			doc.ID = existingID
			return false, nil
		}
		doc.ID = existingID
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents
			 SET source_name = ?, source_url = ?, title = ?, content = ?, content_hash = ?, updated_at = ?
			 WHERE id = ?`,
			doc.SourceName, doc.SourceURL, doc.Title, doc.Content, doc.ContentHash,
			doc.UpdatedAt.Format(time.RFC3339), doc.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.ID); err != nil {
			return false, fmt.Errorf("failed to delete stale chunks: %w", err)
		}

	case errors.Is(err, sql.ErrNoRows):
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, source_name, source_url, doc_url, title, content, content_hash, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.SourceName, doc.SourceURL, doc.DocURL, doc.Title, doc.Content, doc.ContentHash,
			doc.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert document: %w", err)
		}

	default:
		return false, fmt.Errorf("failed to look up document: %w", err)
	}

	if err := s.insertChunks(ctx, tx, doc.ID, doc.Content); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (s *DocumentService) insertChunks(ctx context.Context, tx *sql.Tx, docID, content string) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (doc_id, content, start_pos, end_pos) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range s.chunker.Split(content) {
		if _, err := stmt.ExecContext(ctx, docID, chunk.Content, chunk.StartPos, chunk.EndPos); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return nil
}

// DeleteDocumentsNotIn removes documents belonging to sourceName whose URL is
// not in keep, returning the number of documents pruned. An empty keep list
// removes every document for the source.
func (s *DocumentService) DeleteDocumentsNotIn(ctx context.Context, sourceName string, keep []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Large listings can push an inline placeholder list past SQLite's
	// bind-variable limit, so the keep set is staged through a temp table.
	where := `source_name = ?`
	args := []any{sourceName}
	if len(keep) > 0 {
		if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE keep_urls (url TEXT PRIMARY KEY)`); err != nil {
			return 0, fmt.Errorf("failed to create keep table: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO keep_urls (url) VALUES (?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare keep insert: %w", err)
		}
		for _, u := range keep {
			if _, err := stmt.ExecContext(ctx, u); err != nil {
				stmt.Close()
				return 0, fmt.Errorf("failed to insert keep URL: %w", err)
			}
		}
		stmt.Close()
		where += ` AND doc_url NOT IN (SELECT url FROM keep_urls)`
	}

	// Chunks are deleted explicitly rather than via the FK cascade so the
	// FTS sync triggers always fire.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE doc_id IN (SELECT id FROM documents WHERE `+where+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted documents: %w", err)
	}

	if len(keep) > 0 {
		// The shared connection outlives this transaction; the temp
		// table must not.
		if _, err := tx.ExecContext(ctx, `DROP TABLE keep_urls`); err != nil {
			return 0, fmt.Errorf("failed to drop keep table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

// ftsTokenRe matches word tokens safe to embed in an FTS5 MATCH expression.
var ftsTokenRe = regexp.MustCompile(`[\pL\pN_]+`)

// ftsQuery converts free text into an OR-of-terms FTS5 MATCH expression.
// Each token is quoted so query punctuation can't be parsed as FTS syntax.
func ftsQuery(query string) string {
	tokens := ftsTokenRe.FindAllString(query, -1)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}

// LexicalCandidates returns up to limit chunks matching the query, best
// lexical match first. Candidate documents carry metadata only; Content is
// left empty and must be fetched with GetDocument when needed. A query with
// no indexable tokens returns no candidates.
func (s *DocumentService) LexicalCandidates(ctx context.Context, query string, limit int, source string) ([]docdex.Candidate, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = docdex.DefaultCandidateLimit
	}

	q := `
		SELECT c.id, c.doc_id, c.content, c.start_pos, c.end_pos,
		       d.source_name, d.source_url, d.doc_url, d.title, d.content_hash, d.updated_at,
		       bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN documents d ON d.id = c.doc_id
		WHERE chunks_fts MATCH ?`
	args := []any{match}
	if source != "" {
		q += ` AND d.source_name = ?`
		args = append(args, source)
	}
	q += ` ORDER BY score LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []docdex.Candidate
	for rows.Next() {
		var (
			c         docdex.Chunk
			d         docdex.Document
			updatedAt string
			score     float64
		)
		err := rows.Scan(
			&c.ID, &c.DocumentID, &c.Content, &c.StartPos, &c.EndPos,
			&d.SourceName, &d.SourceURL, &d.DocURL, &d.Title, &d.ContentHash, &updatedAt,
			&score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		d.ID = c.DocumentID
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			d.UpdatedAt = t
		}
		// SQLite's bm25() reports better matches as more negative.
		candidates = append(candidates, docdex.Candidate{Chunk: c, Document: &d, RawScore: -score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// GetDocument returns the document with the given URL, including content.
func (s *DocumentService) GetDocument(ctx context.Context, docURL string) (*docdex.Document, error) {
	var (
		d         docdex.Document
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_name, source_url, doc_url, title, content, content_hash, updated_at
		 FROM documents WHERE doc_url = ?`,
		docURL,
	).Scan(&d.ID, &d.SourceName, &d.SourceURL, &d.DocURL, &d.Title, &d.Content, &d.ContentHash, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docdex.Errorf(docdex.ENOTFOUND, "Document not found: %s", docURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		d.UpdatedAt = t
	}
	return &d, nil
}

// ChunksByDocument returns a document's chunks in document order.
func (s *DocumentService) ChunksByDocument(ctx context.Context, documentID string) ([]docdex.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, content, start_pos, end_pos
		 FROM chunks WHERE doc_id = ? ORDER BY start_pos`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []docdex.Chunk
	for rows.Next() {
		var c docdex.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.StartPos, &c.EndPos); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}
	return chunks, nil
}
