// Package feed discovers article URLs from RSS and Atom feeds.
package feed

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/bloom"
	"github.com/mmcdole/gofeed"
)

// Ensure Discoverer implements intel.URLDiscoverer at compile time.
var _ intel.URLDiscoverer = (*Discoverer)(nil)

// Discoverer returns item links from a feed in feed order.
// Fetching goes through Fetcher so feeds share the article fetch path.
type Discoverer struct {
	Fetcher intel.Fetcher

	// MaxArticles caps the result. Zero means no cap.
	MaxArticles int
}

// Discover fetches and parses the feed at feedURL.
// Fetch and parse failures are reported with EEXTRACTION.
func (d *Discoverer) Discover(ctx context.Context, feedURL string) ([]string, error) {
	base, err := url.Parse(feedURL)
	if err != nil || base.Host == "" {
		return nil, intel.Errorf(intel.EINVALID, "invalid feed URL %q", feedURL)
	}

	body, err := d.Fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, intel.Errorf(intel.EEXTRACTION, "fetching feed %s: %v", feedURL, err)
	}
	return Links(body, base, d.MaxArticles)
}

// Links parses an RSS or Atom document and returns absolute item links.
// Items without a link fall back to their GUID when it is a URL.
func Links(body string, base *url.URL, limit int) ([]string, error) {
	f, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, intel.Errorf(intel.EEXTRACTION, "parsing feed: %v", err)
	}

	seen := bloom.NewFilter(uint(len(f.Items)+1), 0)
	links := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		link := itemLink(item)
		if link == "" {
			continue
		}
		ref, err := url.Parse(link)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !seen.AddNew(resolved.String()) {
			continue
		}
		links = append(links, resolved.String())
		if limit > 0 && len(links) >= limit {
			break
		}
	}
	return links, nil
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	guid := strings.TrimSpace(item.GUID)
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}
