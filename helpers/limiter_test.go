package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterDisabled(t *testing.T) {
	var hl *HostLimiter = NewHostLimiter(0, 1)
	assert.Nil(t, hl)
	assert.NoError(t, hl.WaitURL(context.Background(), "https://example.com"))
}

func TestHostLimiterSeparatesHosts(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	require.NotNil(t, hl)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// first request per host uses the burst token
	assert.NoError(t, hl.WaitURL(ctx, "https://a.example.com/x"))
	assert.NoError(t, hl.WaitURL(ctx, "https://b.example.com/y"))

	// second request to the same host must wait ~1s, past the deadline
	assert.Error(t, hl.WaitURL(ctx, "https://a.example.com/z"))
}
