package mock

import (
	"context"

	"github.com/fwojciec/intel"
)

var (
	_ intel.Fetcher   = (*Fetcher)(nil)
	_ intel.Extractor = (*Extractor)(nil)
)

// Fetcher is a mock implementation of intel.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// Extractor is a mock implementation of intel.Extractor.
type Extractor struct {
	ExtractFn func(html string, pageURL string) (*intel.ExtractResult, error)
}

func (e *Extractor) Extract(html string, pageURL string) (*intel.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}
