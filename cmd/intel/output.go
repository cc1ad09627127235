package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/fs"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outcomeLabel(o *intel.Outcome) string {
	if o.Skipped {
		return "skipped"
	}
	return string(o.Status())
}

// printBatch writes one line per outcome followed by the totals.
func printBatch(w io.Writer, r *intel.BatchResult) {
	for _, o := range r.Outcomes {
		id := "-"
		if o.Article != nil && o.Article.ID != "" {
			id = o.Article.ID
		}
		line := fmt.Sprintf("%-8s %s  %s", outcomeLabel(o), id, o.URL)
		if o.Reason != "" && !o.Skipped {
			line += "  (" + o.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d processed: %d complete, %d failed, %d pending, %d skipped\n",
		len(r.Outcomes), r.Complete, r.Failed, r.Pending, r.Skipped)
}

// finishBatch prints the result, writes the optional report and returns the
// batch error. Per-URL failures are reported but are not errors.
func finishBatch(deps *Dependencies, command, report string, asJSON bool, result *intel.BatchResult, err error) error {
	if result != nil {
		if asJSON {
			if werr := writeJSON(deps.Stdout, result); werr != nil {
				return werr
			}
		} else {
			printBatch(deps.Stdout, result)
		}
		if report != "" {
			if werr := fs.NewReportWriter(report).Write(command, result); werr != nil {
				fmt.Fprintf(deps.Stderr, "error: writing report: %v\n", werr)
				return werr
			}
			fmt.Fprintf(deps.Stderr, "Report written to %s\n", report)
		}
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	if deps.Ctx.Err() != nil {
		fmt.Fprintln(deps.Stderr, "Interrupted: remaining URLs were not processed")
	}
	return nil
}

// checkHealth aborts before any fetch when the model backend is unreachable.
func checkHealth(deps *Dependencies) error {
	if deps.Health == nil {
		return nil
	}
	if err := deps.Health.Ping(deps.Ctx); err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Start Ollama or set LLM_SERVICE_URL")
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	return nil
}

// printArticle writes a human-readable article view.
func printArticle(w io.Writer, a *intel.Article) {
	fmt.Fprintf(w, "ID:        %s\n", a.ID)
	fmt.Fprintf(w, "URL:       %s\n", a.URL)
	fmt.Fprintf(w, "Title:     %s\n", a.Title)
	fmt.Fprintf(w, "Source:    %s\n", a.Source)
	fmt.Fprintf(w, "Published: %s\n", a.PublishDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Status:    %s\n", a.Status)
	fmt.Fprintf(w, "Method:    %s\n", a.Metadata.ExtractionMethod)

	switch a.Status {
	case intel.StatusComplete:
		fmt.Fprintf(w, "Class:     %s\n", *a.Classification)
		fmt.Fprintf(w, "Sentiment: %d\n", *a.SentimentScore)
		fmt.Fprintf(w, "Model:     %s\n", a.Metadata.Model)
		fmt.Fprintf(w, "\n%s\n", *a.Summary)
		if len(a.Entities) > 0 {
			fmt.Fprintln(w, "\nEntities:")
			for _, e := range a.Entities {
				fmt.Fprintf(w, "  %-10s %s (%d)\n", e.Type, e.Text, e.Mentions)
			}
		}
	case intel.StatusFailed:
		if log := a.Metadata.ErrorLog; log != nil {
			fmt.Fprintf(w, "Error:     %s: %s\n", log.Kind, log.Message)
		}
	}
}

func printSummaries(w io.Writer, page *intel.ArticlePage) {
	if len(page.Data) == 0 {
		fmt.Fprintln(w, "No articles found. Use 'intel process' to analyze some.")
		return
	}
	for _, s := range page.Data {
		fmt.Fprintf(w, "%s  %s  %-17s %2d  %s\n",
			s.ID, s.PublishDate.Format("2006-01-02"), s.Classification, s.SentimentScore, s.Title)
		if len(s.TopEntities) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(s.TopEntities, ", "))
		}
	}
	fmt.Fprintf(w, "page %d, %d of %d articles\n", page.Page, len(page.Data), page.Total)
}
