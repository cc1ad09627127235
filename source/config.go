package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/intel"
	"gopkg.in/yaml.v3"
)

// Built-in source IDs.
const (
	NVIDIA  = "nvidia"
	Generic = "generic"
)

// DefaultLinkSelector matches article headline links on listing pages.
const DefaultLinkSelector = "article h3 a"

// DefaultMaxArticles caps discovery when a source sets no limit.
const DefaultMaxArticles = 5

// Config is the source registry file.
type Config struct {
	// Default is the ID of the source used for unclaimed hosts.
	Default string   `yaml:"default"`
	Sources []Source `yaml:"sources"`
}

// DefaultConfig returns the built-in registry: the NVIDIA Newsroom and a
// generic source for any other host.
func DefaultConfig() *Config {
	return &Config{
		Default: Generic,
		Sources: []Source{
			{
				ID:           NVIDIA,
				Name:         "NVIDIA Newsroom",
				Hosts:        []string{"nvidianews.nvidia.com"},
				ListingURL:   "https://nvidianews.nvidia.com/news",
				FeedURL:      "https://nvidianews.nvidia.com/releases.xml",
				LinkSelector: DefaultLinkSelector,
				MaxArticles:  DefaultMaxArticles,
				Render:       true,
			},
			{
				ID:           Generic,
				LinkSelector: DefaultLinkSelector,
				MaxArticles:  DefaultMaxArticles,
				Render:       true,
			},
		},
	}
}

// LoadConfig reads a registry file and merges it over DefaultConfig.
// An empty path returns DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source registry: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes YAML and merges it over DefaultConfig. A file source
// with a built-in ID replaces the built-in entry.
func ParseConfig(r io.Reader) (*Config, error) {
	var file Config
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, intel.Errorf(intel.EINVALID, "parsing source registry: %v", err)
	}

	cfg := DefaultConfig()
	for _, src := range file.Sources {
		replaced := false
		for i := range cfg.Sources {
			if cfg.Sources[i].ID == src.ID {
				cfg.Sources[i] = src
				replaced = true
			}
		}
		if !replaced {
			cfg.Sources = append(cfg.Sources, src)
		}
	}
	if file.Default != "" {
		cfg.Default = file.Default
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the config is inconsistent.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if src.ID == "" {
			return intel.Errorf(intel.EINVALID, "source ID required")
		}
		if seen[src.ID] {
			return intel.Errorf(intel.EINVALID, "duplicate source %q", src.ID)
		}
		seen[src.ID] = true
		if src.MaxArticles < 0 {
			return intel.Errorf(intel.EINVALID, "source %q maxArticles must not be negative", src.ID)
		}
	}
	if c.Default != "" && !seen[c.Default] {
		return intel.Errorf(intel.EINVALID, "default source %q not defined", c.Default)
	}
	return nil
}

// Strategies holds the shared fetchers and extractors adapters are built from.
type Strategies struct {
	Fetcher   intel.Fetcher
	Extractor intel.Extractor

	// Render fields may be nil to disable the render fallback everywhere.
	RenderFetcher   intel.Fetcher
	RenderExtractor intel.Extractor

	Limiter     intel.DomainLimiter
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// NewRegistryFromConfig builds one Adapter per configured source.
func NewRegistryFromConfig(cfg *Config, s Strategies) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, src := range cfg.Sources {
		a := &Adapter{
			Name:        src.Name,
			Fetcher:     s.Fetcher,
			Extractor:   s.Extractor,
			Limiter:     s.Limiter,
			RetryDelays: s.RetryDelays,
			Logger:      s.Logger,
		}
		if src.Render {
			a.RenderFetcher = s.RenderFetcher
			a.RenderExtractor = s.RenderExtractor
		}
		if err := r.Register(src, a); err != nil {
			return nil, err
		}
	}
	if cfg.Default != "" {
		if err := r.SetDefault(cfg.Default); err != nil {
			return nil, err
		}
	}
	return r, nil
}
