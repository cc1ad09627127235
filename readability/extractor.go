// Package readability implements intel.Extractor with go-readability.
// It is used on browser-rendered HTML by the render-fallback strategy.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/intel"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements intel.Extractor at compile time.
var _ intel.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content as plain text.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*intel.ExtractResult, error) {
	if rawHTML == "" {
		return nil, intel.Errorf(intel.EINVALID, "empty HTML input")
	}

	var u *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return nil, intel.Errorf(intel.EINVALID, "invalid page URL %q", pageURL)
		}
		u = parsed
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return nil, err
	}

	result := &intel.ExtractResult{
		Title: article.Title,
		Text:  strings.TrimSpace(article.TextContent),
	}
	if article.PublishedTime != nil {
		result.PublishDate = *article.PublishedTime
	}
	return result, nil
}
