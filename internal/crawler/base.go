package crawler

import (
	"context"
	"strconv"
	"time"

	"sjsage522/housewatch/helpers"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
	"sjsage522/housewatch/services/cache"
)

// BaseCrawler provides fetching with a rate-limit cooldown
type BaseCrawler struct {
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Fetcher   PageFetcher
}

// fetchWithCache fetches URL unless the source is cooling down. A fetch that
// ends in a rate-limit status starts a cooldown of BlockTime.
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (string, error) {
	cooling := c.CacheSvc != nil && c.CacheKey != "" && c.BlockTime > 0

	if cooling {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return "", errors.NewRateLimit(c.URL, c.BlockTime)
		}
	}

	body, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		if cooling && helpers.IsRateLimitStatus(errors.StatusCode(err)) {
			value := []byte(strconv.FormatInt(int64(c.BlockTime/time.Second), 10))
			if setErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); setErr != nil {
				logger.ForCache().Warn().
					Err(setErr).
					Str("key", c.CacheKey).
					Msg("Failed to set cooldown")
			}
		}
		return "", err
	}

	return body, nil
}
