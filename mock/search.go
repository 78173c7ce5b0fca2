package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of docdex.SearchService.
type SearchService struct {
	SearchFn      func(ctx context.Context, query string, limit int, source string) ([]docdex.SearchResult, error)
	GetDocumentFn func(ctx context.Context, docURL string, offset, limit int) (*docdex.DocumentPage, error)
	GetExcerptsFn func(ctx context.Context, docURL, query string, maxChunks, contextChars int) (*docdex.DocumentExcerpts, error)
}

func (s *SearchService) Search(ctx context.Context, query string, limit int, source string) ([]docdex.SearchResult, error) {
	return s.SearchFn(ctx, query, limit, source)
}

func (s *SearchService) GetDocument(ctx context.Context, docURL string, offset, limit int) (*docdex.DocumentPage, error) {
	return s.GetDocumentFn(ctx, docURL, offset, limit)
}

func (s *SearchService) GetExcerpts(ctx context.Context, docURL, query string, maxChunks, contextChars int) (*docdex.DocumentExcerpts, error) {
	return s.GetExcerptsFn(ctx, docURL, query, maxChunks, contextChars)
}
