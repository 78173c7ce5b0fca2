package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/flock"
	"github.com/fwojciec/docdex/htmltomarkdown"
	dochttp "github.com/fwojciec/docdex/http"
	"github.com/fwojciec/docdex/readability"
	"github.com/fwojciec/docdex/refresh"
	"github.com/fwojciec/docdex/search"
	docslog "github.com/fwojciec/docdex/slog"
	"github.com/fwojciec/docdex/sqlite"
	"github.com/fwojciec/docdex/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config overrides loading from file and environment when set.
	// Used by end-to-end tests.
	Config *docdex.Config

	// SQLite database used by the store.
	DB *sqlite.DB

	// Services exposed for end-to-end testing.
	Store     docdex.DocumentStore
	Search    docdex.SearchService
	Refresher docdex.Refresher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docdex"),
		kong.Description("Local documentation index served to LLM clients over MCP."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docdex --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := m.Config
	if cfg == nil {
		loaded, err := docdex.LoadConfig(cli.Config)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = &loaded
	}
	cfg.Clamp()
	deps.Config = cfg

	// The MCP stdio transport owns stdout, so logs go to stderr.
	deps.Logger = slog.New(slog.NewTextHandler(stderr, nil))

	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCDEX_DB to use a different database path")
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()

	chunker := docdex.NewChunker(docdex.DefaultChunkSize, docdex.DefaultChunkOverlap)
	store := sqlite.NewDocumentService(m.DB, chunker)
	m.Store = store
	m.Search = docslog.NewLoggingSearchService(search.NewSearcher(store), deps.Logger)

	fetcher := dochttp.NewFetcher(
		trafilatura.NewExtractor(),
		htmltomarkdown.NewConverter(),
		dochttp.WithMaxConcurrent(cfg.MaxConcurrentFetches),
		dochttp.WithFallbackExtractor(readability.NewExtractor()),
	)
	locker := flock.NewLocker(cfg.DBPath + ".lock")
	refresher := refresh.NewRefresher(
		store,
		docslog.NewLoggingFetcher(fetcher, deps.Logger),
		locker,
		cfg.Sources,
		cfg.RefreshInterval,
	)
	m.Refresher = docslog.NewLoggingRefresher(refresher, deps.Logger)

	deps.Store = m.Store
	deps.Search = m.Search
	deps.Refresher = m.Refresher
	deps.Stale = refresher.Stale

	return kongCtx.Run(deps)
}
