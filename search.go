package docdex

import "context"

// Retrieval defaults exposed to the tool layer.
const (
	DefaultSearchLimit  = 10
	SnippetLength       = 200
	DefaultPageLimit    = 50_000
	MaxPageLimit        = 100_000
	DefaultMaxChunks    = 5
	DefaultContextChars = 500
)

// SearchResult is a ranked search hit: one document represented by its
// best-scoring chunk.
type SearchResult struct {
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	DocURL     string  `json:"url"`
	SourceName string  `json:"source"`
	SourceURL  string  `json:"sourceUrl"`
	Score      float64 `json:"score"`
}

// DocumentPage is a byte range of a stored document's content with
// pagination metadata.
type DocumentPage struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	DocURL      string `json:"url"`
	SourceName  string `json:"source"`
	SourceURL   string `json:"sourceUrl"`
	Offset      int    `json:"offset"`
	Length      int    `json:"length"`
	TotalLength int    `json:"totalLength"`
	HasMore     bool   `json:"hasMore"`
}

// Excerpt is a relevant span of a document, expanded with surrounding
// context.
type Excerpt struct {
	Content  string  `json:"content"`
	StartPos int     `json:"startPos"`
	EndPos   int     `json:"endPos"`
	Score    float64 `json:"score"`
}

// DocumentExcerpts is the set of query-relevant excerpts from one
// document.
type DocumentExcerpts struct {
	Title       string    `json:"title"`
	DocURL      string    `json:"url"`
	SourceName  string    `json:"source"`
	SourceURL   string    `json:"sourceUrl"`
	TotalLength int       `json:"totalLength"`
	Excerpts    []Excerpt `json:"excerpts"`
}

// SearchService answers queries over the document store using
// two-stage retrieval: broad lexical recall from the store's full-text
// index, then exact-term probabilistic reranking over the candidates.
type SearchService interface {
	// Search returns up to limit results for the query, deduplicated by
	// document URL, optionally restricted to one source. A blank query
	// returns EINVALID; a query matching nothing returns an empty
	// slice, not an error.
	Search(ctx context.Context, query string, limit int, source string) ([]SearchResult, error)

	// GetDocument returns a byte range of the document's content.
	// offset past the end yields an empty Content with HasMore=false.
	// Returns ENOTFOUND if no document has that URL.
	GetDocument(ctx context.Context, docURL string, offset, limit int) (*DocumentPage, error)

	// GetExcerpts scores the document's stored chunks against the query
	// and returns the top maxChunks spans, each expanded by up to
	// contextChars of surrounding content. Ties preserve document
	// order. Returns ENOTFOUND if no document has that URL.
	GetExcerpts(ctx context.Context, docURL, query string, maxChunks, contextChars int) (*DocumentExcerpts, error)
}
