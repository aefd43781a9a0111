package helpers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	watcherrors "sjsage522/housewatch/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestFetcher(retries int, client Doer) *Fetcher {
	return NewFetcher(FetcherConfig{
		UserAgent: "HouseWatch-Test/1.0",
		Timeout:   5 * time.Second,
		Retry: RetryPolicy{
			MaxRetries: retries,
			Backoff:    LinearBackoff(1500 * time.Millisecond),
			Sleep:      noSleep,
		},
		Client: client,
	})
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HouseWatch-Test/1.0", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		assert.Contains(t, r.Header.Get("Accept-Language"), "it-IT")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>Hello, World!</body></html>"))
	}))
	defer server.Close()

	body, err := newTestFetcher(2, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Hello, World!")
}

func TestFetchConvertsNonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusOK)
		// "Città" in ISO-8859-1
		w.Write([]byte("<html><body>Citt\xe0</body></html>"))
	}))
	defer server.Close()

	body, err := newTestFetcher(0, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Città")
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := newTestFetcher(2, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchExhaustsRetriesWithLastStatus(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher(2, nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, watcherrors.IsFetch(err))
	assert.Equal(t, http.StatusInternalServerError, watcherrors.StatusCode(err))
	assert.Contains(t, err.Error(), "unexpected status code: 500")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestFetcher(1, nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.True(t, IsRateLimitStatus(watcherrors.StatusCode(err)))
}

type failingDoer struct {
	calls int
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("connection reset by peer")
}

func TestFetchTransportErrorCarriesMessage(t *testing.T) {
	doer := &failingDoer{}

	_, err := newTestFetcher(2, doer).Fetch(context.Background(), "https://example.com/list")
	require.Error(t, err)
	assert.Equal(t, 3, doer.calls)
	assert.Equal(t, 0, watcherrors.StatusCode(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newTestFetcher(0, nil).Fetch(context.Background(), "http://invalid.url.that.does.not.exist")
	assert.Error(t, err)
}
