package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	sources, err := deps.Store.ListSources(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources indexed. Run 'docdex refresh' to build the index.")
		return nil
	}

	for _, s := range sources {
		fmt.Fprintf(deps.Stdout, "%s  %s  %d documents  updated %s\n",
			s.Name, s.URL, s.DocumentCount, s.LastUpdated.Format("2006-01-02 15:04"))
	}
	return nil
}
