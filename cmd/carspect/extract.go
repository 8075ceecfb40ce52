package main

import (
	"encoding/json"
	"fmt"

	"github.com/AbhigyanVE/carspect"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	result, err := deps.Service.Extract(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carspect.ErrorMessage(err))
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))

	return nil
}
