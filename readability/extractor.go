// Package readability extracts main content from HTML using the
// go-readability port of Mozilla's Readability. It serves as a fallback
// for pages where trafilatura finds no content.
package readability

import (
	"strings"

	"github.com/fwojciec/docdex"
	"github.com/go-shiori/go-readability"
)

var _ docdex.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*docdex.ExtractResult, error) {
	if rawHTML == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &docdex.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
