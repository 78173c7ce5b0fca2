package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(docURL string) *docdex.Document {
	return &docdex.Document{
		SourceName: "go_docs",
		SourceURL:  "https://example.com/llms.txt",
		DocURL:     docURL,
		Title:      "Getting Started",
		Content:    "# Getting Started\n\nInstall the binary and run the server. Goroutines are lightweight threads managed by the Go runtime.",
	}
}

func TestDocumentService_UpsertDocument(t *testing.T) {
	t.Parallel()

	t.Run("inserts new document with generated ID and hash", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/start")
		changed, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		assert.True(t, changed)
		assert.NotEmpty(t, doc.ID, "ID should be generated")
		assert.NotEmpty(t, doc.ContentHash, "ContentHash should be generated")
		assert.False(t, doc.UpdatedAt.IsZero(), "UpdatedAt should be set")
	})

	t.Run("returns error for invalid document", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)

		_, err := svc.UpsertDocument(context.Background(), &docdex.Document{})
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})

	t.Run("unchanged content is a no-op", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/start")
		changed, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)
		require.True(t, changed)
		first, err := svc.GetDocument(ctx, doc.DocURL)
		require.NoError(t, err)

		again := testDocument("https://example.com/docs/start")
		changed, err = svc.UpsertDocument(ctx, again)
		require.NoError(t, err)

		assert.False(t, changed)
		assert.Equal(t, doc.ID, again.ID, "existing ID should be reused")
		second, err := svc.GetDocument(ctx, doc.DocURL)
		require.NoError(t, err)
		assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "timestamp should not move")
	})

	t.Run("changed content replaces document and chunks", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/start")
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		updated := testDocument("https://example.com/docs/start")
		updated.Content = "# Getting Started\n\nCompletely rewritten guide about channels and goroutines."
		changed, err := svc.UpsertDocument(ctx, updated)
		require.NoError(t, err)

		assert.True(t, changed)
		assert.Equal(t, doc.ID, updated.ID)
		assert.NotEqual(t, doc.ContentHash, updated.ContentHash)

		chunks, err := svc.ChunksByDocument(ctx, updated.ID)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.Equal(t, updated.Content[c.StartPos:c.EndPos], c.Content)
		}
	})

	t.Run("rewrites index so stale terms stop matching", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/start")
		doc.Content = "Everything about zebras."
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		doc2 := testDocument("https://example.com/docs/start")
		doc2.Content = "Everything about giraffes."
		_, err = svc.UpsertDocument(ctx, doc2)
		require.NoError(t, err)

		stale, err := svc.LexicalCandidates(ctx, "zebras", 10, "")
		require.NoError(t, err)
		assert.Empty(t, stale)

		fresh, err := svc.LexicalCandidates(ctx, "giraffes", 10, "")
		require.NoError(t, err)
		assert.Len(t, fresh, 1)
	})
}

func TestDocumentService_DeleteDocumentsNotIn(t *testing.T) {
	t.Parallel()

	t.Run("prunes documents missing from keep list", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			doc := testDocument(fmt.Sprintf("https://example.com/docs/page%d", i))
			doc.Content = fmt.Sprintf("Page %d content about goroutines.", i)
			_, err := svc.UpsertDocument(ctx, doc)
			require.NoError(t, err)
		}

		pruned, err := svc.DeleteDocumentsNotIn(ctx, "go_docs", []string{
			"https://example.com/docs/page0",
			"https://example.com/docs/page2",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)

		_, err = svc.GetDocument(ctx, "https://example.com/docs/page1")
		assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
		_, err = svc.GetDocument(ctx, "https://example.com/docs/page0")
		assert.NoError(t, err)
	})

	t.Run("empty keep list removes all documents for the source", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		_, err := svc.UpsertDocument(ctx, testDocument("https://example.com/docs/a"))
		require.NoError(t, err)
		other := testDocument("https://other.com/docs/b")
		other.SourceName = "other_docs"
		_, err = svc.UpsertDocument(ctx, other)
		require.NoError(t, err)

		pruned, err := svc.DeleteDocumentsNotIn(ctx, "go_docs", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)

		_, err = svc.GetDocument(ctx, "https://other.com/docs/b")
		assert.NoError(t, err, "other sources should be untouched")
	})

	t.Run("handles keep lists larger than the bind-variable limit", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		_, err := svc.UpsertDocument(ctx, testDocument("https://example.com/docs/kept"))
		require.NoError(t, err)
		_, err = svc.UpsertDocument(ctx, testDocument("https://example.com/docs/dropped"))
		require.NoError(t, err)

		keep := make([]string, 0, 40_000)
		keep = append(keep, "https://example.com/docs/kept")
		for i := 0; i < 40_000; i++ {
			keep = append(keep, fmt.Sprintf("https://example.com/docs/unindexed%d", i))
		}

		pruned, err := svc.DeleteDocumentsNotIn(ctx, "go_docs", keep)
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)

		_, err = svc.GetDocument(ctx, "https://example.com/docs/kept")
		assert.NoError(t, err)

		// A second prune on the same connection must work too.
		pruned, err = svc.DeleteDocumentsNotIn(ctx, "go_docs", keep)
		require.NoError(t, err)
		assert.Zero(t, pruned)
	})

	t.Run("pruned documents disappear from the index", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/a")
		doc.Content = "All about wombats."
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		_, err = svc.DeleteDocumentsNotIn(ctx, "go_docs", nil)
		require.NoError(t, err)

		candidates, err := svc.LexicalCandidates(ctx, "wombats", 10, "")
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestDocumentService_LexicalCandidates(t *testing.T) {
	t.Parallel()

	t.Run("matches any query term", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		a := testDocument("https://example.com/docs/goroutines")
		a.Content = "Goroutines are lightweight threads."
		_, err := svc.UpsertDocument(ctx, a)
		require.NoError(t, err)

		b := testDocument("https://example.com/docs/channels")
		b.Content = "Channels connect concurrent functions."
		_, err = svc.UpsertDocument(ctx, b)
		require.NoError(t, err)

		candidates, err := svc.LexicalCandidates(ctx, "goroutines channels", 10, "")
		require.NoError(t, err)
		assert.Len(t, candidates, 2)
		for _, c := range candidates {
			assert.Positive(t, c.RawScore)
			assert.NotNil(t, c.Document)
		}
	})

	t.Run("porter stemming matches morphological variants", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/conn")
		doc.Content = "The driver manages connections to the database."
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		candidates, err := svc.LexicalCandidates(ctx, "connection", 10, "")
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})

	t.Run("query punctuation is not parsed as match syntax", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/http")
		doc.Content = "Use http.Get to fetch a URL."
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		candidates, err := svc.LexicalCandidates(ctx, `"http.Get" (fetch) AND NOT`, 10, "")
		require.NoError(t, err)
		assert.NotEmpty(t, candidates)
	})

	t.Run("filters by source name", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		a := testDocument("https://example.com/docs/a")
		a.Content = "Goroutines everywhere."
		_, err := svc.UpsertDocument(ctx, a)
		require.NoError(t, err)

		b := testDocument("https://other.com/docs/b")
		b.SourceName = "other_docs"
		b.Content = "Goroutines here too."
		_, err = svc.UpsertDocument(ctx, b)
		require.NoError(t, err)

		candidates, err := svc.LexicalCandidates(ctx, "goroutines", 10, "other_docs")
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "other_docs", candidates[0].Document.SourceName)
	})

	t.Run("returns nothing for a query with no indexable tokens", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)

		candidates, err := svc.LexicalCandidates(context.Background(), "!!! ???", 10, "")
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("respects the candidate limit", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			doc := testDocument(fmt.Sprintf("https://example.com/docs/page%d", i))
			doc.Content = fmt.Sprintf("Page %d mentions goroutines.", i)
			_, err := svc.UpsertDocument(ctx, doc)
			require.NoError(t, err)
		}

		candidates, err := svc.LexicalCandidates(ctx, "goroutines", 3, "")
		require.NoError(t, err)
		assert.Len(t, candidates, 3)
	})
}

func TestDocumentService_GetDocument(t *testing.T) {
	t.Parallel()

	t.Run("returns stored document", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/start")
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		found, err := svc.GetDocument(ctx, doc.DocURL)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, found.ID)
		assert.Equal(t, doc.Content, found.Content)
		assert.Equal(t, doc.Title, found.Title)
	})

	t.Run("returns ENOTFOUND for unknown URL", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)

		_, err := svc.GetDocument(context.Background(), "https://example.com/missing")
		require.Error(t, err)
		assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
	})
}

func TestDocumentService_ChunksByDocument(t *testing.T) {
	t.Parallel()

	t.Run("returns chunks in document order with valid offsets", func(t *testing.T) {
		t.Parallel()

		svc := setupTestService(t)
		ctx := context.Background()

		doc := testDocument("https://example.com/docs/long")
		doc.Content = ""
		for i := 0; i < 30; i++ {
			doc.Content += fmt.Sprintf("Paragraph %d talks about goroutines and channels in some detail. ", i)
			doc.Content += "It keeps going so the document spans multiple chunks.\n\n"
		}
		_, err := svc.UpsertDocument(ctx, doc)
		require.NoError(t, err)

		chunks, err := svc.ChunksByDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		for i, c := range chunks {
			assert.Equal(t, doc.Content[c.StartPos:c.EndPos], c.Content)
			if i > 0 {
				assert.GreaterOrEqual(t, c.StartPos, chunks[i-1].StartPos)
			}
		}
	})
}
