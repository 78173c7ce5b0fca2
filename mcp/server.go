// Package mcp exposes docdex search and refresh operations to LLM
// clients over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "1.0.0"

// Ports aggregates the services the MCP server exposes. A single
// injection point keeps wiring in one place.
type Ports struct {
	// Search answers queries over the document store.
	Search docdex.SearchService

	// Store lists sources for the list_sources tool and the sources
	// resource.
	Store docdex.DocumentStore

	// Refresher triggers on-demand refresh cycles. Optional; without
	// it the refresh_sources tool reports an error.
	Refresher docdex.Refresher
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return fmt.Errorf("mcp: search service is required")
	}
	if p.Store == nil {
		return fmt.Errorf("mcp: document store is required")
	}
	return nil
}

// Server is the MCP server for docdex.
type Server struct {
	ports  *Ports
	logger *slog.Logger
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, logger *slog.Logger) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	impl := &mcp.Implementation{
		Name:    "docdex",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		logger: logger,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
