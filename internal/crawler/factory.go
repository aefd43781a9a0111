package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"sjsage522/housewatch/config"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/services/cache"
)

const cooldownKeyPrefix = "housewatch:cooldown:"

// CreateCrawlers creates one crawler per configured source, in order
func CreateCrawlers(cfg *config.Config, fetcher PageFetcher, cacheSvc cache.CacheService) ([]Crawler, error) {
	crawlers := make([]Crawler, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		c, err := NewSourceCrawler(src, fetcher, cacheSvc, cfg.SourceCooldown)
		if err != nil {
			return nil, err
		}
		crawlers = append(crawlers, c)

		logger.ForSource(src.Name).Debug().
			Str("url", src.QueryURL).
			Str("domain", c.domain).
			Bool("resolve_anchors", src.ResolveAnchors).
			Msg("Created crawler")
	}
	return crawlers, nil
}

// CooldownKey returns the cache key marking a source as rate limited. Memcache
// keys may not contain spaces or control characters, so the name is folded to
// a readable slug and suffixed with a hash of the raw name to keep names that
// fold alike apart.
func CooldownKey(sourceName string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, sourceName)

	sum := sha256.Sum256([]byte(sourceName))
	return cooldownKeyPrefix + slug + ":" + hex.EncodeToString(sum[:4])
}
