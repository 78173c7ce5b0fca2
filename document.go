package docdex

import (
	"context"
	"time"
)

// Document represents a fetched documentation page.
type Document struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"sourceName"`
	SourceURL   string    `json:"sourceUrl"`
	DocURL      string    `json:"docUrl"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHash string    `json:"contentHash"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.SourceName == "" {
		return Errorf(EINVALID, "document source name required")
	}
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	if d.DocURL == "" {
		return Errorf(EINVALID, "document URL required")
	}
	return nil
}

// Chunk is a contiguous span of a document's text sized for retrieval.
// Content is always the exact substring content[StartPos:EndPos] of the
// parent document.
type Chunk struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
	StartPos   int    `json:"startPos"`
	EndPos     int    `json:"endPos"`
}

// Candidate is a chunk returned by the lexical recall stage, joined with
// its parent document and the raw full-text score (higher is better).
type Candidate struct {
	Chunk    Chunk
	Document *Document
	RawScore float64
}

// SourceInfo describes one documentation source and its indexed state.
type SourceInfo struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	DocumentCount int       `json:"documentCount"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// SourceState records the outcome of the last successful refresh of a
// source. ListingDigest is a digest of the source's link list, used to
// detect when the list itself changed between refreshes.
type SourceState struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	ListingDigest string    `json:"listingDigest"`
	RefreshedAt   time.Time `json:"refreshedAt"`
}

// DefaultCandidateLimit is the lexical candidate pool size. It is
// intentionally independent of the final result limit: stage one is
// tuned for recall, stage two for precision.
const DefaultCandidateLimit = 100

// DocumentStore is durable storage for documents and their chunks, with
// a full-text index over chunk content.
//
// All mutating operations are atomic per document: a concurrent reader
// observes either the old document with its old chunks or the new
// document with its new chunks, never a partial state.
type DocumentStore interface {
	// UpsertDocument inserts or updates the document keyed by DocURL.
	// When the stored content hash matches the incoming content the call
	// is a no-op and reports changed=false. Otherwise the document row
	// and all of its chunks are replaced in a single transaction.
	// The store assigns ID, ContentHash, and UpdatedAt.
	UpsertDocument(ctx context.Context, doc *Document) (changed bool, err error)

	// DeleteDocumentsNotIn removes documents for the named source whose
	// URL is absent from keep, cascading chunk deletion. Returns the
	// number of removed documents.
	DeleteDocumentsNotIn(ctx context.Context, sourceName string, keep []string) (int, error)

	// LexicalCandidates runs the stemmed, accent-normalized full-text
	// query over chunk content and returns up to limit candidates in
	// descending score order. A non-empty source restricts matching to
	// that source's documents. A query with no indexable tokens returns
	// an empty slice.
	LexicalCandidates(ctx context.Context, query string, limit int, source string) ([]Candidate, error)

	// GetDocument retrieves a document by URL.
	// Returns ENOTFOUND if no document has that URL.
	GetDocument(ctx context.Context, docURL string) (*Document, error)

	// ChunksByDocument returns the stored chunks for a document in
	// position order.
	ChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)

	// ListSources reports each source present in the store with its
	// document count and last refresh time.
	ListSources(ctx context.Context) ([]SourceInfo, error)

	// SaveSourceState records a source's last successful refresh.
	SaveSourceState(ctx context.Context, state SourceState) error

	// SourceStates returns the recorded refresh state for all sources.
	SourceStates(ctx context.Context) ([]SourceState, error)
}
