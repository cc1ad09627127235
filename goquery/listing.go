// Package goquery discovers article links on listing pages with CSS selectors.
package goquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/bloom"
)

// DefaultSelector matches headline links in article cards.
const DefaultSelector = "article h3 a"

// Ensure ListingDiscoverer implements intel.URLDiscoverer at compile time.
var _ intel.URLDiscoverer = (*ListingDiscoverer)(nil)

// ListingDiscoverer finds article URLs on a listing page.
type ListingDiscoverer struct {
	Fetcher intel.Fetcher

	// Selector matches anchor elements. Defaults to DefaultSelector.
	Selector string

	// MaxArticles caps the result. Zero means no cap.
	MaxArticles int
}

// Discover fetches the listing page and returns article URLs in document order.
// Fetch failures are reported with EEXTRACTION.
func (d *ListingDiscoverer) Discover(ctx context.Context, listingURL string) ([]string, error) {
	html, err := d.Fetcher.Fetch(ctx, listingURL)
	if err != nil {
		if intel.ErrorCode(err) == intel.EEXTRACTION {
			return nil, err
		}
		return nil, intel.Errorf(intel.EEXTRACTION, "fetching listing %s: %v", listingURL, err)
	}
	selector := d.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	return ExtractLinks(html, listingURL, selector, d.MaxArticles)
}

// ExtractLinks returns the absolute http(s) URLs of elements matching selector.
// Relative links are resolved against baseURL, fragments are stripped and
// duplicates are dropped. A limit of zero returns every link.
func ExtractLinks(html, baseURL, selector string, limit int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, intel.Errorf(intel.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, intel.Errorf(intel.EEXTRACTION, "failed to parse HTML: %v", err)
	}

	seen := bloom.NewFilter(0, 0)
	links := make([]string, 0)
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, exists := sel.Attr("href")
		if !exists {
			// The selector may match a container around the anchor.
			href, exists = sel.Find("a[href]").First().Attr("href")
		}
		if !exists || strings.TrimSpace(href) == "" || isNonHTTPLink(href) {
			return true
		}

		resolved := resolveURL(base, href)
		if resolved == "" || !seen.AddNew(resolved) {
			return true
		}
		links = append(links, resolved)
		return limit <= 0 || len(links) < limit
	})

	return links, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed, is not http(s) or
// points back at the base page. Fragments are stripped for deduplication.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
