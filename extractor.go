package docdex

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML with boilerplate
	// (nav, footer, sidebar) removed.
	ContentHTML string
}

// Extractor extracts main content from HTML documentation pages,
// removing boilerplate before markdown conversion.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}
