package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/intel"
)

// Ensure LoggingSourceExtractor implements intel.SourceExtractor.
var _ intel.SourceExtractor = (*LoggingSourceExtractor)(nil)

// LoggingSourceExtractor wraps a SourceExtractor with logging.
type LoggingSourceExtractor struct {
	next   intel.SourceExtractor
	logger *slog.Logger
}

// NewLoggingSourceExtractor creates a new LoggingSourceExtractor.
func NewLoggingSourceExtractor(next intel.SourceExtractor, logger *slog.Logger) *LoggingSourceExtractor {
	return &LoggingSourceExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the method that succeeded.
func (e *LoggingSourceExtractor) Extract(ctx context.Context, url string) (raw *intel.RawFetch, err error) {
	defer func(begin time.Time) {
		var method string
		var chars int
		if raw != nil {
			method = raw.ExtractionMethod
			chars = len(raw.BodyText)
		}
		e.logger.Info("extract",
			"url", url,
			"method", method,
			"bytes", chars,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(ctx, url)
}

// Ensure LoggingDiscoverer implements intel.URLDiscoverer.
var _ intel.URLDiscoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a URLDiscoverer with logging.
type LoggingDiscoverer struct {
	next   intel.URLDiscoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next intel.URLDiscoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the URL count.
func (d *LoggingDiscoverer) Discover(ctx context.Context, listingURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		d.logger.Info("discovery",
			"url", listingURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Discover(ctx, listingURL)
}

// Ensure LoggingSourceRegistry implements intel.SourceRegistry.
var _ intel.SourceRegistry = (*LoggingSourceRegistry)(nil)

// LoggingSourceRegistry wraps a SourceRegistry so every extractor it returns
// is a LoggingSourceExtractor. Lookup failures are logged at Warn.
type LoggingSourceRegistry struct {
	next   intel.SourceRegistry
	logger *slog.Logger
}

// NewLoggingSourceRegistry creates a new LoggingSourceRegistry.
func NewLoggingSourceRegistry(next intel.SourceRegistry, logger *slog.Logger) *LoggingSourceRegistry {
	return &LoggingSourceRegistry{next: next, logger: logger}
}

// Lookup delegates to the wrapped registry.
func (r *LoggingSourceRegistry) Lookup(url string) (intel.SourceExtractor, error) {
	ext, err := r.next.Lookup(url)
	if err != nil {
		r.logger.Warn("source lookup", "url", url, "err", err)
		return nil, err
	}
	return NewLoggingSourceExtractor(ext, r.logger), nil
}
