package main

import (
	"fmt"

	"github.com/fwojciec/docdex"
)

// Run executes the refresh command.
func (c *RefreshCmd) Run(deps *Dependencies) error {
	if len(deps.Config.Sources) == 0 {
		return fmt.Errorf("no sources configured. Set DOCDEX_SOURCES or add sources to the config file")
	}

	result, err := deps.Refresher.Refresh(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	switch result.Status {
	case docdex.RefreshSkipped:
		fmt.Fprintf(deps.Stdout, "Refresh skipped: %s\n", result.Reason)
		return nil
	case docdex.RefreshPartial:
		fmt.Fprintf(deps.Stdout, "Refresh completed with errors: %d documents updated\n", result.Applied)
	default:
		fmt.Fprintf(deps.Stdout, "Refresh completed: %d documents updated\n", result.Applied)
	}

	for _, src := range result.Sources {
		fmt.Fprintf(deps.Stdout, "  %s: %d documents, %d changed, %d pruned, %d errors\n",
			src.Name, src.DocCount, src.Changed, src.Pruned, src.Errors)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(deps.Stderr, "  error: %s\n", e)
	}
	return nil
}
