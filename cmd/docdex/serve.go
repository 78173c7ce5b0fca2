package main

import (
	"fmt"

	"github.com/fwojciec/docdex/mcp"
	"github.com/fwojciec/docdex/refresh"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command: the MCP server and the periodic
// refresh loop run side by side until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if len(deps.Config.Sources) == 0 {
		fmt.Fprintln(deps.Stderr, "Warning: no sources configured. Set DOCDEX_SOURCES or add sources to the config file.")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:    deps.Search,
		Store:     deps.Store,
		Refresher: deps.Refresher,
	}, deps.Logger)
	if err != nil {
		return err
	}

	runner := refresh.NewRunner(
		deps.Refresher,
		deps.Stale,
		deps.Config.RefreshInterval,
		deps.Config.SkipStartupRefresh,
	)

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if c.HTTP != "" {
			deps.Logger.Info("serving MCP over HTTP", "addr", c.HTTP)
			return server.RunHTTP(ctx, c.HTTP)
		}
		return server.Run(ctx)
	})

	if err := g.Wait(); err != nil && deps.Ctx.Err() == nil {
		return err
	}
	return nil
}
