package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	results, err := deps.Search.Search(deps.Ctx, c.Query, c.Limit, c.Source)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(deps.Stdout, "%d. %s (%.2f)\n   %s\n   %s\n", i+1, r.Title, r.Score, r.DocURL, r.Snippet)
	}
	return nil
}
