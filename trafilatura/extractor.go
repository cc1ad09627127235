// Package trafilatura implements intel.Extractor with go-trafilatura.
// It is the extractor of the fast strategy: static HTML in, article text out.
package trafilatura

import (
	"net/url"
	"strings"

	"github.com/fwojciec/intel"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements intel.Extractor at compile time.
var _ intel.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content as plain text.
// A page with no detectable content returns an empty Text, not an error.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*intel.ExtractResult, error) {
	if rawHTML == "" {
		return nil, intel.Errorf(intel.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			opts.OriginalURL = u
		}
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	return &intel.ExtractResult{
		Title:       result.Metadata.Title,
		Text:        result.ContentText,
		PublishDate: result.Metadata.Date,
	}, nil
}
