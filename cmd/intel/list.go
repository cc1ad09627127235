package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/intel"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	q, err := c.query()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}

	page, err := intel.ListArticles(deps.Ctx, deps.Articles, q)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, page)
	}
	printSummaries(deps.Stdout, page)
	return nil
}

func (c *ListCmd) query() (intel.ListQuery, error) {
	q := intel.ListQuery{Page: c.Page, PageSize: c.PageSize}
	if c.Classification != "" {
		cl := intel.Classification(c.Classification)
		q.Classification = &cl
	}
	if c.MinSentiment != 0 {
		v := c.MinSentiment
		q.MinSentiment = &v
	}
	if c.MaxSentiment != 0 {
		v := c.MaxSentiment
		q.MaxSentiment = &v
	}
	if c.Source != "" {
		v := c.Source
		q.Source = &v
	}
	if c.Search != "" {
		v := c.Search
		q.SearchText = &v
	}

	var err error
	if q.From, err = parseDate(c.From, false); err != nil {
		return intel.ListQuery{}, err
	}
	if q.To, err = parseDate(c.To, true); err != nil {
		return intel.ListQuery{}, err
	}
	return q, nil
}

// parseDate accepts RFC3339 or a calendar date. A calendar date used as an
// upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, intel.Errorf(intel.EINVALID, "invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
