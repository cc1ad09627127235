package mock

import (
	"context"

	"github.com/fwojciec/intel"
)

var (
	_ intel.SourceExtractor = (*SourceExtractor)(nil)
	_ intel.SourceRegistry  = (*SourceRegistry)(nil)
	_ intel.URLDiscoverer   = (*URLDiscoverer)(nil)
	_ intel.DomainLimiter   = (*DomainLimiter)(nil)
)

// SourceExtractor is a mock implementation of intel.SourceExtractor.
type SourceExtractor struct {
	ExtractFn func(ctx context.Context, url string) (*intel.RawFetch, error)
}

func (e *SourceExtractor) Extract(ctx context.Context, url string) (*intel.RawFetch, error) {
	return e.ExtractFn(ctx, url)
}

// SourceRegistry is a mock implementation of intel.SourceRegistry.
type SourceRegistry struct {
	LookupFn func(url string) (intel.SourceExtractor, error)
}

func (r *SourceRegistry) Lookup(url string) (intel.SourceExtractor, error) {
	return r.LookupFn(url)
}

// URLDiscoverer is a mock implementation of intel.URLDiscoverer.
type URLDiscoverer struct {
	DiscoverFn func(ctx context.Context, listingURL string) ([]string, error)
}

func (d *URLDiscoverer) Discover(ctx context.Context, listingURL string) ([]string, error) {
	return d.DiscoverFn(ctx, listingURL)
}

// DomainLimiter is a mock implementation of intel.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
