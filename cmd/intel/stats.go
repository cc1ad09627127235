package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/intel"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Articles.ArticleStats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	if c.JSON {
		return writeJSON(deps.Stdout, stats)
	}

	fmt.Fprintf(deps.Stdout, "Total:     %d\n", stats.Total)
	fmt.Fprintf(deps.Stdout, "Complete:  %d\n", stats.Complete)
	fmt.Fprintf(deps.Stdout, "Pending:   %d\n", stats.Pending)
	fmt.Fprintf(deps.Stdout, "Failed:    %d\n", stats.Failed)
	fmt.Fprintf(deps.Stdout, "Sentiment: %.2f\n", stats.AvgSentiment)
	if stats.LastAnalyzedAt != nil {
		fmt.Fprintf(deps.Stdout, "Updated:   %s\n", stats.LastAnalyzedAt.Format(time.RFC3339))
	}
	for _, cl := range intel.Classifications() {
		fmt.Fprintf(deps.Stdout, "  %-17s %d\n", cl, stats.ByClassification[cl])
	}
	return nil
}
