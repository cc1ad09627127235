// Package source selects and runs the extraction strategy for article URLs.
//
// Sources are described in a YAML registry file. Each source owns a set of
// hosts; a URL whose host matches none of them goes to the default source.
package source

import (
	"net/url"
	"strings"

	"github.com/fwojciec/intel"
)

// Source describes one news source.
type Source struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Hosts []string `yaml:"hosts"`

	// ListingURL is the page listing recent articles.
	ListingURL string `yaml:"listing"`

	// FeedURL is an RSS or Atom feed of recent articles.
	FeedURL string `yaml:"feed"`

	// LinkSelector is the CSS selector for article links on ListingURL.
	LinkSelector string `yaml:"selector"`

	// MaxArticles caps the number of URLs discovered per run.
	MaxArticles int `yaml:"maxArticles"`

	// Render enables the render-fallback strategy.
	Render bool `yaml:"render"`
}

// Matches reports whether the host belongs to the source.
// A host matches a pattern exactly or as a subdomain of it.
func (s Source) Matches(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, h := range s.Hosts {
		h = strings.TrimPrefix(strings.ToLower(h), "www.")
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Ensure Registry implements intel.SourceRegistry at compile time.
var _ intel.SourceRegistry = (*Registry)(nil)

type entry struct {
	source    Source
	extractor intel.SourceExtractor
}

// Registry maps URLs to source extractors. Register all sources before use;
// a populated Registry is safe for concurrent Lookup calls.
type Registry struct {
	entries   []entry
	defaultID string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a source and its extractor.
// Returns EINVALID if the ID is empty and ECONFLICT if it is already used.
func (r *Registry) Register(src Source, ext intel.SourceExtractor) error {
	if src.ID == "" {
		return intel.Errorf(intel.EINVALID, "source ID required")
	}
	if ext == nil {
		return intel.Errorf(intel.EINVALID, "source %q extractor required", src.ID)
	}
	if _, ok := r.find(src.ID); ok {
		return intel.Errorf(intel.ECONFLICT, "source %q already registered", src.ID)
	}
	r.entries = append(r.entries, entry{source: src, extractor: ext})
	return nil
}

// SetDefault selects the source used for URLs no source claims.
// Returns ENOTFOUND if the source is not registered.
func (r *Registry) SetDefault(id string) error {
	if _, ok := r.find(id); !ok {
		return intel.Errorf(intel.ENOTFOUND, "source %q not registered", id)
	}
	r.defaultID = id
	return nil
}

// Lookup returns the extractor for the URL.
func (r *Registry) Lookup(rawURL string) (intel.SourceExtractor, error) {
	e, err := r.match(rawURL)
	if err != nil {
		return nil, err
	}
	return e.extractor, nil
}

// SourceFor returns the source that handles the URL.
func (r *Registry) SourceFor(rawURL string) (Source, error) {
	e, err := r.match(rawURL)
	if err != nil {
		return Source{}, err
	}
	return e.source, nil
}

// Source returns a registered source by ID.
// Returns ENOTFOUND if the source is not registered.
func (r *Registry) Source(id string) (Source, error) {
	e, ok := r.find(id)
	if !ok {
		return Source{}, intel.Errorf(intel.ENOTFOUND, "source %q not registered", id)
	}
	return e.source, nil
}

// Sources returns all registered sources in registration order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.source
	}
	return out
}

func (r *Registry) match(rawURL string) (entry, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return entry{}, intel.Errorf(intel.EEXTRACTION, "invalid article URL %q", rawURL)
	}
	for _, e := range r.entries {
		if e.source.Matches(u.Hostname()) {
			return e, nil
		}
	}
	if r.defaultID != "" {
		if e, ok := r.find(r.defaultID); ok {
			return e, nil
		}
	}
	return entry{}, intel.Errorf(intel.EEXTRACTION, "no source handles %q", u.Hostname())
}

func (r *Registry) find(id string) (entry, bool) {
	for _, e := range r.entries {
		if e.source.ID == id {
			return e, true
		}
	}
	return entry{}, false
}
