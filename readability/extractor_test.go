package readability_test

import (
	"testing"
	"time"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pressRelease is a rendered newsroom page with site chrome around the story.
const pressRelease = `<!DOCTYPE html>
<html>
<head>
<title>Chipmaker Names New Chief Operating Officer</title>
<meta property="article:published_time" content="2026-02-03T14:00:00Z">
</head>
<body>
<header><nav><a href="/">Newsroom</a><a href="/press">Press Releases</a></nav></header>
<aside class="related"><p>Related: quarterly results webcast</p></aside>
<article>
<h1>Chipmaker Names New Chief Operating Officer</h1>
<p>The company today announced that its longtime head of manufacturing will become chief operating officer, effective next month.</p>
<p>She will oversee supply chain, foundry partnerships and data center operations across all regions.</p>
</article>
<footer><p>Copyright Example Corp</p></footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("returns title and story text without markup", func(t *testing.T) {
		t.Parallel()

		result, err := readability.NewExtractor().Extract(pressRelease, "https://news.example.com/coo")

		require.NoError(t, err)
		assert.Equal(t, "Chipmaker Names New Chief Operating Officer", result.Title)
		assert.Contains(t, result.Text, "will become chief operating officer")
		assert.Contains(t, result.Text, "foundry partnerships")
		assert.NotContains(t, result.Text, "<p")
	})

	t.Run("drops navigation and sidebars", func(t *testing.T) {
		t.Parallel()

		result, err := readability.NewExtractor().Extract(pressRelease, "https://news.example.com/coo")

		require.NoError(t, err)
		assert.NotContains(t, result.Text, "Press Releases")
		assert.NotContains(t, result.Text, "quarterly results webcast")
	})

	t.Run("reads the publish date from page metadata", func(t *testing.T) {
		t.Parallel()

		result, err := readability.NewExtractor().Extract(pressRelease, "https://news.example.com/coo")

		require.NoError(t, err)
		want := time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC)
		assert.True(t, want.Equal(result.PublishDate), "got %v", result.PublishDate)
	})

	t.Run("accepts a missing page URL", func(t *testing.T) {
		t.Parallel()

		result, err := readability.NewExtractor().Extract(pressRelease, "")

		require.NoError(t, err)
		assert.NotEmpty(t, result.Text)
	})

	t.Run("rejects empty HTML", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewExtractor().Extract("", "https://news.example.com/coo")

		assert.Equal(t, intel.EINVALID, intel.ErrorCode(err))
	})

	t.Run("rejects an unparseable page URL", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewExtractor().Extract(pressRelease, "://bad")

		assert.Equal(t, intel.EINVALID, intel.ErrorCode(err))
	})
}
