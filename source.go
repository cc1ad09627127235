package intel

import "context"

// Extraction method tags recorded on articles.
const (
	MethodFast           = "fast"
	MethodRenderFallback = "render-fallback"
)

// SourceExtractor turns a page URL into raw article text.
// Failures to fetch or parse are reported with EEXTRACTION. A page that
// loads but has no readable content yields a RawFetch with empty BodyText.
type SourceExtractor interface {
	Extract(ctx context.Context, url string) (*RawFetch, error)
}

// SourceRegistry selects the extractor responsible for a URL.
type SourceRegistry interface {
	// Lookup returns the extractor for the URL.
	// Returns EEXTRACTION if no registered source accepts the URL.
	Lookup(url string) (SourceExtractor, error)
}

// URLDiscoverer finds article URLs on a listing page or feed.
type URLDiscoverer interface {
	Discover(ctx context.Context, listingURL string) ([]string, error)
}

// DomainLimiter rate limits requests per domain.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed or ctx is done.
	Wait(ctx context.Context, domain string) error
}
