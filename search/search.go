// Package search implements two-stage retrieval over the document
// store: broad lexical recall from the store's full-text index, then
// exact-term BM25 reranking over the recalled candidates.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/rank"
)

// Searcher implements docdex.SearchService.
type Searcher struct {
	store docdex.DocumentStore

	// CandidatePool is how many chunks stage one recalls before
	// reranking. Larger pools trade latency for recall.
	CandidatePool int
}

var _ docdex.SearchService = (*Searcher)(nil)

// NewSearcher creates a Searcher backed by the given store.
func NewSearcher(store docdex.DocumentStore) *Searcher {
	return &Searcher{store: store, CandidatePool: docdex.DefaultCandidateLimit}
}

// Search runs the two-stage pipeline and returns the top results,
// deduplicated so each document appears once, represented by its
// best-scoring chunk.
func (s *Searcher) Search(ctx context.Context, query string, limit int, source string) ([]docdex.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "Search query is required.")
	}
	if limit <= 0 {
		limit = docdex.DefaultSearchLimit
	}
	// A query that tokenizes to nothing (all stopwords) can never score
	// a chunk, so it matches nothing.
	if len(rank.Tokenize(query)) == 0 {
		return []docdex.SearchResult{}, nil
	}

	candidates, err := s.store.LexicalCandidates(ctx, query, s.CandidatePool, source)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []docdex.SearchResult{}, nil
	}

	// Stage two: rerank the recalled chunks with BM25 computed over
	// the candidate pool itself. The corpus is per query, so scores
	// reflect exact query terms rather than the index's stemmed view.
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Content
	}
	scores := rank.NewCorpus(texts).Scores(query)

	type hit struct {
		candidate docdex.Candidate
		score     float64
		rank      int // lexical recall order, the tiebreaker
	}
	best := make(map[string]hit)
	order := make([]string, 0, len(candidates))
	for i, c := range candidates {
		// Chunks sharing no exact token with the query score zero; the
		// stemmed recall stage may still surface them, so drop them here.
		if scores[i] <= 0 {
			continue
		}
		url := c.Document.DocURL
		prev, seen := best[url]
		switch {
		case !seen:
			best[url] = hit{candidate: c, score: scores[i], rank: i}
			order = append(order, url)
		case scores[i] > prev.score:
			// Keep the document's first lexical rank as the tiebreaker.
			best[url] = hit{candidate: c, score: scores[i], rank: prev.rank}
		}
	}

	hits := make([]hit, 0, len(best))
	for _, url := range order {
		hits = append(hits, best[url])
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rank < hits[j].rank
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]docdex.SearchResult, len(hits))
	for i, h := range hits {
		doc := h.candidate.Document
		results[i] = docdex.SearchResult{
			Title:      doc.Title,
			Snippet:    snippet(h.candidate.Chunk.Content),
			DocURL:     doc.DocURL,
			SourceName: doc.SourceName,
			SourceURL:  doc.SourceURL,
			Score:      h.score,
		}
	}
	return results, nil
}

// snippet truncates chunk content for display, marking the cut. The
// cut point backs off to a rune boundary so the snippet stays valid
// UTF-8.
func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= docdex.SnippetLength {
		return content
	}
	cut := docdex.SnippetLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

// GetDocument returns a byte range of a document's content.
func (s *Searcher) GetDocument(ctx context.Context, docURL string, offset, limit int) (*docdex.DocumentPage, error) {
	doc, err := s.store.GetDocument(ctx, docURL)
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = docdex.DefaultPageLimit
	}
	if limit > docdex.MaxPageLimit {
		limit = docdex.MaxPageLimit
	}

	total := len(doc.Content)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &docdex.DocumentPage{
		Title:       doc.Title,
		Content:     doc.Content[start:end],
		DocURL:      doc.DocURL,
		SourceName:  doc.SourceName,
		SourceURL:   doc.SourceURL,
		Offset:      start,
		Length:      end - start,
		TotalLength: total,
		HasMore:     end < total,
	}, nil
}

// GetExcerpts reranks a single document's stored chunks against the
// query and returns the best spans expanded with surrounding content.
func (s *Searcher) GetExcerpts(ctx context.Context, docURL, query string, maxChunks, contextChars int) (*docdex.DocumentExcerpts, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "Excerpt query is required.")
	}
	if maxChunks <= 0 {
		maxChunks = docdex.DefaultMaxChunks
	}
	if contextChars < 0 {
		contextChars = docdex.DefaultContextChars
	}

	doc, err := s.store.GetDocument(ctx, docURL)
	if err != nil {
		return nil, err
	}
	chunks, err := s.store.ChunksByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	out := &docdex.DocumentExcerpts{
		Title:       doc.Title,
		DocURL:      doc.DocURL,
		SourceName:  doc.SourceName,
		SourceURL:   doc.SourceURL,
		TotalLength: len(doc.Content),
		Excerpts:    []docdex.Excerpt{},
	}
	if len(chunks) == 0 || len(rank.Tokenize(query)) == 0 {
		return out, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	scores := rank.NewCorpus(texts).Scores(query)

	idx := make([]int, 0, len(chunks))
	for i := range chunks {
		if scores[i] > 0 {
			idx = append(idx, i)
		}
	}
	// Stable sort keeps ties in document order.
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if len(idx) > maxChunks {
		idx = idx[:maxChunks]
	}

	for _, i := range idx {
		c := chunks[i]
		start := c.StartPos - contextChars
		if start < 0 {
			start = 0
		}
		end := c.EndPos + contextChars
		if end > len(doc.Content) {
			end = len(doc.Content)
		}
		out.Excerpts = append(out.Excerpts, docdex.Excerpt{
			Content:  doc.Content[start:end],
			StartPos: start,
			EndPos:   end,
			Score:    scores[i],
		})
	}
	return out, nil
}
