package mcp

import (
	"context"
	"fmt"

	"github.com/fwojciec/docdex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchInput is the input schema for the search_docs tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the search query"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10)"`
	Source string `json:"source,omitempty" jsonschema:"restrict results to one source by name"`
}

// SearchOutput is the output schema for the search_docs tool.
type SearchOutput struct {
	Results []docdex.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// GetDocInput is the input schema for the get_doc tool.
type GetDocInput struct {
	URL    string `json:"url" jsonschema:"the document URL returned by search_docs"`
	Offset int    `json:"offset,omitempty" jsonschema:"byte offset to start reading from (default 0)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum bytes to return (default 50000, max 100000)"`
}

// GetExcerptsInput is the input schema for the get_doc_excerpt tool.
type GetExcerptsInput struct {
	URL          string `json:"url" jsonschema:"the document URL returned by search_docs"`
	Query        string `json:"query" jsonschema:"the query used to select relevant excerpts"`
	MaxChunks    int    `json:"maxChunks,omitempty" jsonschema:"maximum number of excerpts (default 5)"`
	ContextChars int    `json:"contextChars,omitempty" jsonschema:"characters of surrounding context per excerpt (default 500)"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct{}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []docdex.SourceInfo `json:"sources"`
	Count   int                 `json:"count"`
}

// RefreshInput is the input schema for the refresh_sources tool.
type RefreshInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search the indexed documentation. Returns ranked results with snippets; use get_doc or get_doc_excerpt with a result URL for full content.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_doc",
		Description: "Read a stored document's markdown content, paginated by byte offset.",
	}, s.handleGetDoc)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_doc_excerpt",
		Description: "Return the most query-relevant excerpts of one document with surrounding context. Cheaper than paging through the whole document.",
	}, s.handleGetExcerpts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the indexed documentation sources with document counts and last refresh times.",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh_sources",
		Description: "Fetch all configured sources and update the index now instead of waiting for the next scheduled refresh.",
	}, s.handleRefresh)
}

// handleSearch handles the search_docs tool invocation. Store failures
// degrade to an empty result set so a transient index problem doesn't
// break the client's tool loop; invalid input is still an error.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.Limit, input.Source)
	if err != nil {
		if docdex.ErrorCode(err) == docdex.EINVALID {
			return nil, SearchOutput{}, err
		}
		s.logger.Error("search failed", "query", input.Query, "err", err)
		return nil, SearchOutput{Results: []docdex.SearchResult{}}, nil
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

// handleGetDoc handles the get_doc tool invocation.
func (s *Server) handleGetDoc(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocInput,
) (*mcp.CallToolResult, docdex.DocumentPage, error) {
	page, err := s.ports.Search.GetDocument(ctx, input.URL, input.Offset, input.Limit)
	if err != nil {
		return nil, docdex.DocumentPage{}, err
	}
	return nil, *page, nil
}

// handleGetExcerpts handles the get_doc_excerpt tool invocation.
func (s *Server) handleGetExcerpts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetExcerptsInput,
) (*mcp.CallToolResult, docdex.DocumentExcerpts, error) {
	excerpts, err := s.ports.Search.GetExcerpts(ctx, input.URL, input.Query, input.MaxChunks, input.ContextChars)
	if err != nil {
		return nil, docdex.DocumentExcerpts{}, err
	}
	return nil, *excerpts, nil
}

// handleListSources handles the list_sources tool invocation.
func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	sources, err := s.ports.Store.ListSources(ctx)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}
	if sources == nil {
		sources = []docdex.SourceInfo{}
	}
	return nil, ListSourcesOutput{Sources: sources, Count: len(sources)}, nil
}

// handleRefresh handles the refresh_sources tool invocation.
func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RefreshInput,
) (*mcp.CallToolResult, docdex.RefreshResult, error) {
	if s.ports.Refresher == nil {
		return nil, docdex.RefreshResult{}, fmt.Errorf("refresh is not available on this server")
	}
	result, err := s.ports.Refresher.Refresh(ctx)
	if err != nil {
		return nil, docdex.RefreshResult{}, err
	}
	return nil, *result, nil
}
