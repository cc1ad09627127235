package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/feed"
	"github.com/fwojciec/intel/goquery"
	intelslog "github.com/fwojciec/intel/slog"
	"github.com/fwojciec/intel/source"
)

// Run executes the discover command.
func (c *DiscoverCmd) Run(deps *Dependencies) error {
	src, target, err := c.resolve(deps.Sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}
	if c.Process {
		if err := checkHealth(deps); err != nil {
			return err
		}
	}

	discoverer := intelslog.NewLoggingDiscoverer(newDiscoverer(deps.Fetcher, src, c.Feed), deps.logger())
	urls, err := discoverer.Discover(deps.Ctx, target)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", intel.ErrorMessage(err))
		return err
	}

	if !c.Process {
		if c.JSON {
			return writeJSON(deps.Stdout, urls)
		}
		for _, u := range urls {
			fmt.Fprintln(deps.Stdout, u)
		}
		if len(urls) == 0 {
			fmt.Fprintf(deps.Stderr, "No article URLs found on %s\n", target)
		}
		return nil
	}

	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "No article URLs found on %s\n", target)
		return finishBatch(deps, "discover", c.Report, c.JSON, &intel.BatchResult{}, nil)
	}
	result, err := deps.Pipeline.ProcessBatch(deps.Ctx, urls)
	return finishBatch(deps, "discover", c.Report, c.JSON, result, err)
}

// resolve picks the source settings and the page to discover from. An
// explicit URL uses the source that owns its host; otherwise the named
// source's listing or feed URL is used.
func (c *DiscoverCmd) resolve(sources *source.Registry) (source.Source, string, error) {
	if c.URL != "" {
		src, err := sources.SourceFor(c.URL)
		if err != nil {
			return source.Source{}, "", intel.Errorf(intel.EINVALID, "invalid listing URL %q", c.URL)
		}
		return src, c.URL, nil
	}

	src, err := sources.Source(c.Source)
	if err != nil {
		var ids []string
		for _, s := range sources.Sources() {
			ids = append(ids, s.ID)
		}
		return source.Source{}, "", intel.Errorf(intel.ENOTFOUND, "%s (available: %s)", intel.ErrorMessage(err), strings.Join(ids, ", "))
	}
	target := src.ListingURL
	if c.Feed {
		target = src.FeedURL
	}
	if target == "" {
		kind := "listing"
		if c.Feed {
			kind = "feed"
		}
		return source.Source{}, "", intel.Errorf(intel.EINVALID, "source %q has no %s URL", src.ID, kind)
	}
	return src, target, nil
}

func newDiscoverer(f intel.Fetcher, src source.Source, isFeed bool) intel.URLDiscoverer {
	limit := src.MaxArticles
	if limit == 0 {
		limit = source.DefaultMaxArticles
	}
	if isFeed {
		return &feed.Discoverer{Fetcher: f, MaxArticles: limit}
	}
	return &goquery.ListingDiscoverer{Fetcher: f, Selector: src.LinkSelector, MaxArticles: limit}
}
