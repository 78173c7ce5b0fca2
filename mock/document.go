package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock implementation of docdex.DocumentStore.
type DocumentStore struct {
	UpsertDocumentFn       func(ctx context.Context, doc *docdex.Document) (bool, error)
	DeleteDocumentsNotInFn func(ctx context.Context, sourceName string, keep []string) (int, error)
	LexicalCandidatesFn    func(ctx context.Context, query string, limit int, source string) ([]docdex.Candidate, error)
	GetDocumentFn          func(ctx context.Context, docURL string) (*docdex.Document, error)
	ChunksByDocumentFn     func(ctx context.Context, documentID string) ([]docdex.Chunk, error)
	ListSourcesFn          func(ctx context.Context) ([]docdex.SourceInfo, error)
	SaveSourceStateFn      func(ctx context.Context, state docdex.SourceState) error
	SourceStatesFn         func(ctx context.Context) ([]docdex.SourceState, error)
}

func (s *DocumentStore) UpsertDocument(ctx context.Context, doc *docdex.Document) (bool, error) {
	return s.UpsertDocumentFn(ctx, doc)
}

func (s *DocumentStore) DeleteDocumentsNotIn(ctx context.Context, sourceName string, keep []string) (int, error) {
	return s.DeleteDocumentsNotInFn(ctx, sourceName, keep)
}

func (s *DocumentStore) LexicalCandidates(ctx context.Context, query string, limit int, source string) ([]docdex.Candidate, error) {
	return s.LexicalCandidatesFn(ctx, query, limit, source)
}

func (s *DocumentStore) GetDocument(ctx context.Context, docURL string) (*docdex.Document, error) {
	return s.GetDocumentFn(ctx, docURL)
}

func (s *DocumentStore) ChunksByDocument(ctx context.Context, documentID string) ([]docdex.Chunk, error) {
	return s.ChunksByDocumentFn(ctx, documentID)
}

func (s *DocumentStore) ListSources(ctx context.Context) ([]docdex.SourceInfo, error) {
	return s.ListSourcesFn(ctx)
}

func (s *DocumentStore) SaveSourceState(ctx context.Context, state docdex.SourceState) error {
	return s.SaveSourceStateFn(ctx, state)
}

func (s *DocumentStore) SourceStates(ctx context.Context) ([]docdex.SourceState, error) {
	return s.SourceStatesFn(ctx)
}
