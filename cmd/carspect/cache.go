package main

import (
	"fmt"

	"github.com/AbhigyanVE/carspect"
)

// Run executes the "cache list" command.
func (c *CacheListCmd) Run(deps *Dependencies) error {
	entries, err := deps.Entries.Entries(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carspect.ErrorMessage(err))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "Cache is empty.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Cached extractions (%d total):\n\n", len(entries))
	for _, entry := range entries {
		fmt.Fprintf(deps.Stdout, "  %s  tokens=%d  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04"), entry.Usage.TotalTokens, entry.URL)
	}

	return nil
}
