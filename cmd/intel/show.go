package main

import (
	"fmt"

	"github.com/fwojciec/intel"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	a, err := deps.Articles.FindArticleByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	if c.JSON {
		return writeJSON(deps.Stdout, a)
	}
	printArticle(deps.Stdout, a)
	return nil
}
