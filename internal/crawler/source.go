package crawler

import (
	"context"
	"regexp"
	"time"

	"sjsage522/housewatch/config"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/services/cache"
)

// SourceCrawler extracts listing links from one configured search page
type SourceCrawler struct {
	BaseCrawler
	Source  config.Source
	pattern *regexp.Regexp
	domain  string
	log     *logger.Logger
}

// NewSourceCrawler compiles the source pattern and wires the fetcher and
// cooldown cache
func NewSourceCrawler(src config.Source, fetcher PageFetcher, cacheSvc cache.CacheService, blockTime time.Duration) (*SourceCrawler, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	pattern, err := src.CompilePattern()
	if err != nil {
		return nil, err
	}

	return &SourceCrawler{
		BaseCrawler: BaseCrawler{
			URL:       src.QueryURL,
			CacheKey:  CooldownKey(src.Name),
			CacheSvc:  cacheSvc,
			BlockTime: blockTime,
			Fetcher:   fetcher,
		},
		Source:  src,
		pattern: pattern,
		domain:  src.EffectiveDomain(),
		log:     logger.ForSource(src.Name),
	}, nil
}

// GetName returns the source name
func (c *SourceCrawler) GetName() string {
	return c.Source.Name
}

// FetchLinks fetches the search page and returns its candidate links
func (c *SourceCrawler) FetchLinks(ctx context.Context) ([]string, error) {
	raw, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, err
	}

	links := ExtractLinks(raw, c.pattern, c.domain)

	if c.Source.ResolveAnchors {
		anchors, err := ExtractAnchorLinks(raw, c.URL, c.pattern, c.domain)
		if err != nil {
			c.log.Warn().Err(err).Msg("Anchor harvesting failed, keeping text matches only")
		} else {
			links = MergeLinks(links, anchors)
		}
	}

	c.log.Info().
		Int("candidates", len(links)).
		Int("bytes", len(raw)).
		Msg("Extracted candidate links")

	return links, nil
}
