package publisher

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish appends a message under key to the stream
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

// ListingEventKey is the stream field carrying an encoded ListingEvent
const ListingEventKey = "listing"

// ListingEvent announces a newly discovered listing to downstream consumers
type ListingEvent struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Link         string    `json:"link"`
	DiscoveredAt time.Time `json:"discovered_at"`
	CycleID      string    `json:"cycle_id"`
}

// Encode returns the JSON form of the event
func (e ListingEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
