package store

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	prefix := "housewatch_test"
	client.Del(ctx, prefix+":seen", prefix+":initialized")
	defer client.Del(ctx, prefix+":seen", prefix+":initialized")

	s := NewRedisStoreWithClient(client, prefix)

	fresh := s.Load(ctx)
	assert.False(t, fresh.Initialized)
	assert.Equal(t, 0, fresh.Len())

	// Saving an empty state still writes the flag
	require.NoError(t, s.Save(ctx, fresh))

	fresh.Initialized = true
	fresh.Add("aaa")
	fresh.Add("bbb")
	require.NoError(t, s.Save(ctx, fresh))

	loaded := s.Load(ctx)
	assert.True(t, loaded.Initialized)
	assert.Equal(t, []string{"aaa", "bbb"}, loaded.Fingerprints())
}
