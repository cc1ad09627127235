package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/intel"
)

// maxDerivedTitle caps titles taken from the first line of body text.
const maxDerivedTitle = 200

// Ensure Adapter implements intel.SourceExtractor at compile time.
var _ intel.SourceExtractor = (*Adapter)(nil)

// Adapter extracts article text for one source. It runs the fast strategy
// (plain HTTP fetch and static extraction) first, then the render-fallback
// strategy (browser fetch and extraction of the rendered page) when the fast
// strategy fails or finds no text. Render fields are optional.
type Adapter struct {
	// Name is recorded as the article source.
	Name string

	Fetcher   intel.Fetcher
	Extractor intel.Extractor

	RenderFetcher   intel.Fetcher
	RenderExtractor intel.Extractor

	Limiter     intel.DomainLimiter
	RetryDelays []time.Duration
	Logger      *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Extract fetches the page and returns its text with the method that
// produced it. A page that loads but yields no text returns an empty BodyText.
func (a *Adapter) Extract(ctx context.Context, pageURL string) (*intel.RawFetch, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, intel.Errorf(intel.EEXTRACTION, "invalid article URL %q", pageURL)
	}

	res, fastErr := a.run(ctx, u, a.Fetcher, a.Extractor)
	if fastErr == nil && strings.TrimSpace(res.Text) != "" {
		return a.rawFetch(u, res, intel.MethodFast), nil
	}

	if a.RenderFetcher == nil || a.RenderExtractor == nil {
		if fastErr != nil {
			return nil, intel.Errorf(intel.EEXTRACTION, "fetching %s: %v", pageURL, fastErr)
		}
		return a.rawFetch(u, res, intel.MethodFast), nil
	}

	a.logger().Info("render fallback", "url", pageURL, "fast_err", fastErr)
	res, renderErr := a.run(ctx, u, a.RenderFetcher, a.RenderExtractor)
	if renderErr != nil {
		if fastErr != nil {
			return nil, intel.Errorf(intel.EEXTRACTION, "fetching %s: fast: %v; render: %v", pageURL, fastErr, renderErr)
		}
		return nil, intel.Errorf(intel.EEXTRACTION, "fetching %s: render: %v", pageURL, renderErr)
	}
	return a.rawFetch(u, res, intel.MethodRenderFallback), nil
}

// run fetches with rate limiting and retry, then extracts.
func (a *Adapter) run(ctx context.Context, u *url.URL, f intel.Fetcher, e intel.Extractor) (*intel.ExtractResult, error) {
	if f == nil || e == nil {
		return nil, fmt.Errorf("strategy not configured")
	}

	delays := a.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	fetch := func(ctx context.Context, pageURL string) (string, error) {
		if a.Limiter != nil {
			if err := a.Limiter.Wait(ctx, u.Hostname()); err != nil {
				return "", err
			}
		}
		return f.Fetch(ctx, pageURL)
	}

	html, err := fetchWithRetry(ctx, u.String(), fetch, delays, a.logger())
	if err != nil {
		return nil, err
	}
	return e.Extract(html, u.String())
}

// rawFetch builds the result. Sources without a name are recorded by host.
func (a *Adapter) rawFetch(u *url.URL, res *intel.ExtractResult, method string) *intel.RawFetch {
	name := a.Name
	if name == "" {
		name = strings.TrimPrefix(u.Hostname(), "www.")
	}
	raw := &intel.RawFetch{
		URL:              u.String(),
		ExtractionMethod: method,
		Source:           name,
		FetchedAt:        a.now().UTC(),
	}
	if res != nil {
		raw.Title = strings.TrimSpace(res.Title)
		raw.BodyText = res.Text
		raw.PublishDate = res.PublishDate
		if raw.Title == "" {
			raw.Title = titleFromText(res.Text)
		}
	}
	return raw
}

// titleFromText returns the first non-empty line of text, shortened at a
// word boundary.
func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title, _ := intel.TruncateWords(line, maxDerivedTitle)
			return title
		}
	}
	return ""
}

func (a *Adapter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
