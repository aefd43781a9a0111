package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"

	"golang.org/x/net/html/charset"
)

// Browser-like request headers
const (
	acceptHeader          = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Doer sends an HTTP request; *http.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherConfig configures a Fetcher
type FetcherConfig struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	Retry          RetryPolicy
	// Limiter paces requests per host; nil disables pacing
	Limiter *HostLimiter
	// Client overrides the HTTP client built from Timeout
	Client Doer
}

// Fetcher retrieves listing pages with bounded retries
type Fetcher struct {
	client         Doer
	userAgent      string
	acceptLanguage string
	retry          RetryPolicy
	limiter        *HostLimiter
}

// NewFetcher creates a new fetcher
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	acceptLanguage := cfg.AcceptLanguage
	if acceptLanguage == "" {
		acceptLanguage = defaultAcceptLanguage
	}
	return &Fetcher{
		client:         client,
		userAgent:      cfg.UserAgent,
		acceptLanguage: acceptLanguage,
		retry:          cfg.Retry,
		limiter:        cfg.Limiter,
	}
}

// IsRateLimitStatus reports whether the status code means the site is
// throttling us
func IsRateLimitStatus(code int) bool {
	return slices.Contains([]int{http.StatusTooManyRequests, 430}, code)
}

// Fetch GETs url and returns the body converted to UTF-8. Any non-200 status
// or transport error is retried per the retry policy; once attempts run out
// the returned error is a network WatchError carrying the last status code.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		body       string
		lastStatus int
	)

	attempts, err := f.retry.Do(ctx, func(attempt int) error {
		if err := f.limiter.WaitURL(ctx, url); err != nil {
			return err
		}

		content, status, err := f.fetchOnce(ctx, url)
		lastStatus = status
		if err != nil {
			if attempt <= f.retry.MaxRetries {
				logger.Debug("fetch %s attempt %d failed: %v", url, attempt, err)
			}
			return err
		}
		body = content
		return nil
	})
	if err != nil {
		return "", errors.NewFetch(url, attempts, lastStatus, err)
	}
	return body, nil
}

// fetchOnce performs a single GET. The returned status is 0 when no response
// was received.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Connection", "close")
	req.Close = true

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if IsRateLimitStatus(resp.StatusCode) {
			return "", resp.StatusCode, fmt.Errorf("rate limited; retry after %q", resp.Header.Get("Retry-After"))
		}
		return "", resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	text, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return text, resp.StatusCode, nil
}

// toUTF8 converts body to UTF-8 using the Content-Type header and the
// document's own meta tags
func toUTF8(body []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return string(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return "", fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return buf.String(), nil
}
