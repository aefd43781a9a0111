package crawler

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/housewatch/config"
)

func TestExtractAnchorLinksResolvesRelative(t *testing.T) {
	pattern := regexp.MustCompile(`(?i)https?://(?:www\.)?example\.com/immobile/\d+/?`)
	raw := `<html><body>
		<a href="/immobile/100/">relative</a>
		<a href="immobile/200/">path relative</a>
		<a href="https://www.example.com/immobile/300/#map">absolute</a>
		<a href="mailto:agent@example.com">mail</a>
		<a href="#top">top</a>
		<a href="https://other.org/immobile/400/">elsewhere</a>
	</body></html>`

	links, err := ExtractAnchorLinks(raw, "https://www.example.com/", pattern, "example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.example.com/immobile/100/",
		"https://www.example.com/immobile/200/",
		"https://www.example.com/immobile/300/",
	}, links)
}

func TestExtractAnchorLinksInvalidPageURL(t *testing.T) {
	_, err := ExtractAnchorLinks("<a href='/x'>x</a>", "://bad", listingPattern, "example.com")
	assert.Error(t, err)
}

func TestExtractAnchorLinksKeepsAbsoluteHrefAsWritten(t *testing.T) {
	pattern := regexp.MustCompile(`(?i)https?://www\.immobiliare\.it/[^\s"'>]*/annunci[^\s"'>]*`)
	raw := `<html><body>
		<a href="https://www.immobiliare.it/affitto/annunci/città/1/">absolute</a>
		<a href="/affitto/annunci/città/2/">root relative</a>
	</body></html>`

	links, err := ExtractAnchorLinks(raw, "https://www.immobiliare.it/search-list/", pattern, "immobiliare.it")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.immobiliare.it/affitto/annunci/città/1/",
		"https://www.immobiliare.it/affitto/annunci/città/2/",
	}, links)
}

func TestSourceCrawlerAccentedHrefYieldsOneLink(t *testing.T) {
	src := config.DefaultSources()[1]
	require.True(t, src.ResolveAnchors)

	fetcher := &mockFetcher{body: `<html><body>
		<a href="https://www.immobiliare.it/affitto/annunci/città/1/">one</a>
		<script>var next = "https://www.immobiliare.it/affitto/annunci/città/2/";</script>
		<a href="/affitto/annunci/città/2/">two</a>
	</body></html>`}

	c, err := NewSourceCrawler(src, fetcher, nil, 0)
	require.NoError(t, err)

	links, err := c.FetchLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.immobiliare.it/affitto/annunci/città/1/",
		"https://www.immobiliare.it/affitto/annunci/città/2/",
	}, links)
}
