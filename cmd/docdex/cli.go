package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/refresh"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Config    *docdex.Config
	Store     docdex.DocumentStore
	Search    docdex.SearchService
	Refresher docdex.Refresher
	Stale     refresh.StaleFunc
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" help:"Path to config file" type:"path"`

	Serve   ServeCmd   `cmd:"" help:"Serve the documentation index to MCP clients"`
	Refresh RefreshCmd `cmd:"" help:"Fetch all sources and update the index once"`
	Search  SearchCmd  `cmd:"" help:"Search the index from the command line"`
	Sources SourcesCmd `cmd:"" help:"List indexed sources"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	HTTP string `help:"Serve MCP over HTTP on this address instead of stdio (e.g. :8080)"`
}

// RefreshCmd is the "refresh" subcommand.
type RefreshCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Limit  int    `short:"n" default:"10" help:"Maximum number of results"`
	Source string `short:"s" help:"Restrict results to one source by name"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}
