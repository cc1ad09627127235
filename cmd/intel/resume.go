package main

// Run executes the resume command.
func (c *ResumeCmd) Run(deps *Dependencies) error {
	if err := checkHealth(deps); err != nil {
		return err
	}
	result, err := deps.Pipeline.Resume(deps.Ctx)
	return finishBatch(deps, "resume", c.Report, c.JSON, result, err)
}
