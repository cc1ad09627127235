package source_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/mock"
	"github.com/fwojciec/intel/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedExtractor(name string) *mock.SourceExtractor {
	return &mock.SourceExtractor{
		ExtractFn: func(ctx context.Context, url string) (*intel.RawFetch, error) {
			return &intel.RawFetch{URL: url, Source: name}, nil
		},
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	newRegistry := func(t *testing.T) *source.Registry {
		t.Helper()
		r := source.NewRegistry()
		require.NoError(t, r.Register(source.Source{ID: "nvidia", Hosts: []string{"nvidianews.nvidia.com"}}, namedExtractor("nvidia")))
		require.NoError(t, r.Register(source.Source{ID: "generic"}, namedExtractor("generic")))
		return r
	}

	t.Run("matches source by host", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)
		ext, err := r.Lookup("https://nvidianews.nvidia.com/news/x")
		require.NoError(t, err)

		raw, err := ext.Extract(context.Background(), "u")
		require.NoError(t, err)
		assert.Equal(t, "nvidia", raw.Source)
	})

	t.Run("matches subdomains and ignores www", func(t *testing.T) {
		t.Parallel()

		s := source.Source{Hosts: []string{"example.com"}}

		assert.True(t, s.Matches("www.example.com"))
		assert.True(t, s.Matches("news.example.com"))
		assert.True(t, s.Matches("EXAMPLE.com"))
		assert.False(t, s.Matches("notexample.com"))
	})

	t.Run("falls back to default source", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)
		require.NoError(t, r.SetDefault("generic"))

		src, err := r.SourceFor("https://blog.example.org/post")

		require.NoError(t, err)
		assert.Equal(t, "generic", src.ID)
	})

	t.Run("returns EEXTRACTION without matching source or default", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)
		_, err := r.Lookup("https://blog.example.org/post")

		assert.Equal(t, intel.EEXTRACTION, intel.ErrorCode(err))
	})

	t.Run("returns EEXTRACTION for URL without host", func(t *testing.T) {
		t.Parallel()

		r := newRegistry(t)
		_, err := r.Lookup("not a url")

		assert.Equal(t, intel.EEXTRACTION, intel.ErrorCode(err))
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate IDs", func(t *testing.T) {
		t.Parallel()

		r := source.NewRegistry()
		require.NoError(t, r.Register(source.Source{ID: "a"}, namedExtractor("a")))

		err := r.Register(source.Source{ID: "a"}, namedExtractor("a"))

		assert.Equal(t, intel.ECONFLICT, intel.ErrorCode(err))
	})

	t.Run("rejects empty ID", func(t *testing.T) {
		t.Parallel()

		err := source.NewRegistry().Register(source.Source{}, namedExtractor("a"))

		assert.Equal(t, intel.EINVALID, intel.ErrorCode(err))
	})

	t.Run("rejects unknown default", func(t *testing.T) {
		t.Parallel()

		err := source.NewRegistry().SetDefault("missing")

		assert.Equal(t, intel.ENOTFOUND, intel.ErrorCode(err))
	})

	t.Run("lists sources in registration order", func(t *testing.T) {
		t.Parallel()

		r := source.NewRegistry()
		require.NoError(t, r.Register(source.Source{ID: "b"}, namedExtractor("b")))
		require.NoError(t, r.Register(source.Source{ID: "a"}, namedExtractor("a")))

		var ids []string
		for _, s := range r.Sources() {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []string{"b", "a"}, ids)
	})
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty file yields built-in sources", func(t *testing.T) {
		t.Parallel()

		cfg, err := source.ParseConfig(strings.NewReader(""))

		require.NoError(t, err)
		assert.Equal(t, source.Generic, cfg.Default)
		require.Len(t, cfg.Sources, 2)
		assert.Equal(t, source.NVIDIA, cfg.Sources[0].ID)
		assert.Equal(t, "article h3 a", cfg.Sources[0].LinkSelector)
		assert.Equal(t, 5, cfg.Sources[0].MaxArticles)
	})

	t.Run("adds and overrides sources", func(t *testing.T) {
		t.Parallel()

		yml := `
default: amd
sources:
  - id: nvidia
    name: NVIDIA Blog
    hosts: [blogs.nvidia.com]
    maxArticles: 10
  - id: amd
    name: AMD Newsroom
    hosts: [amd.com]
    listing: https://www.amd.com/en/newsroom.html
    selector: ".news-card a"
`
		cfg, err := source.ParseConfig(strings.NewReader(yml))

		require.NoError(t, err)
		assert.Equal(t, "amd", cfg.Default)
		require.Len(t, cfg.Sources, 3)
		assert.Equal(t, "NVIDIA Blog", cfg.Sources[0].Name)
		assert.Equal(t, 10, cfg.Sources[0].MaxArticles)
		assert.Equal(t, ".news-card a", cfg.Sources[2].LinkSelector)
	})

	t.Run("rejects undefined default", func(t *testing.T) {
		t.Parallel()

		_, err := source.ParseConfig(strings.NewReader("default: missing\n"))

		assert.Equal(t, intel.EINVALID, intel.ErrorCode(err))
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()

		_, err := source.ParseConfig(strings.NewReader("sources: [: :"))

		assert.Equal(t, intel.EINVALID, intel.ErrorCode(err))
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("builds adapter per source with default", func(t *testing.T) {
		t.Parallel()

		s := source.Strategies{
			Fetcher:   staticFetcher("<html/>", nil, nil),
			Extractor: textExtractor("Title", "Body"),
		}
		r, err := source.NewRegistryFromConfig(source.DefaultConfig(), s)
		require.NoError(t, err)

		ext, err := r.Lookup("https://nvidianews.nvidia.com/news/x")
		require.NoError(t, err)
		raw, err := ext.Extract(context.Background(), "https://nvidianews.nvidia.com/news/x")
		require.NoError(t, err)
		assert.Equal(t, "NVIDIA Newsroom", raw.Source)

		src, err := r.SourceFor("https://unknown.example.com/a")
		require.NoError(t, err)
		assert.Equal(t, source.Generic, src.ID)
	})
}
