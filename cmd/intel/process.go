package main

import (
	"fmt"

	"github.com/fwojciec/intel"
)

// Run executes the process command.
func (c *ProcessCmd) Run(deps *Dependencies) error {
	if len(c.URLs) == 0 {
		err := intel.Errorf(intel.EINVALID, "at least one URL required")
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	if err := checkHealth(deps); err != nil {
		return err
	}
	result, err := deps.Pipeline.ProcessBatch(deps.Ctx, c.URLs)
	return finishBatch(deps, "process", c.Report, c.JSON, result, err)
}
