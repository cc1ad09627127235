// Package bloom provides approximate deduplication of discovered URLs.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Sizing used when a caller has no better estimate.
const (
	DefaultCapacity = 1000
	DefaultFPRate   = 0.001
)

// Filter remembers URLs seen during one discovery run.
// A Filter is not safe for concurrent use.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate. Zero values select the defaults.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = DefaultCapacity
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultFPRate
	}
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a URL to the filter.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test returns true if the URL might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// AddNew adds the URL and reports whether it was not seen before.
func (f *Filter) AddNew(url string) bool {
	return !f.f.TestOrAddString(url)
}

// EstimatedCount returns the approximate number of distinct URLs added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
