package publisher

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingEventEncode(t *testing.T) {
	event := ListingEvent{
		ID:           "fp",
		Source:       "Idealista",
		Link:         "https://www.idealista.it/immobile/1/",
		DiscoveredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		CycleID:      "cycle-1",
	}

	data, err := event.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "fp",
		"source": "Idealista",
		"link": "https://www.idealista.it/immobile/1/",
		"discovered_at": "2024-03-01T10:00:00Z",
		"cycle_id": "cycle-1"
	}`, string(data))
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher("localhost:6379", 0, "test_stream_listings", 100)
	defer publisher.Close()

	// Create a subscriber to verify the message was published
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	_, err := client.Ping(ctx).Result()
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	err = client.XGroupCreateMkStream(ctx, "test_stream_listings", "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		t.Fatal(err)
	}

	messages := make(chan string, 1)

	go func() {
		message, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{"test_stream_listings", ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    0,
		}).Result()
		if err != nil || len(message) == 0 || len(message[0].Messages) == 0 {
			messages <- ""
			return
		}
		value, _ := message[0].Messages[0].Values[ListingEventKey].(string)
		messages <- value
	}()

	time.Sleep(100 * time.Millisecond)

	payload, err := ListingEvent{ID: "fp", Source: "Test", Link: "https://example.com/1"}.Encode()
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, ListingEventKey, payload))

	select {
	case msg := <-messages:
		var got ListingEvent
		require.NoError(t, json.Unmarshal([]byte(msg), &got))
		assert.Equal(t, "https://example.com/1", got.Link)
	case <-time.After(1 * time.Second):
		t.Error("Timed out waiting for message")
	}
}
