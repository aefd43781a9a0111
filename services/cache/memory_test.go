package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryService(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mc := NewMemoryService()
	mc.now = func() time.Time { return now }

	err := mc.Set("cooldown", []byte("600"), 10*time.Minute)
	assert.NoError(t, err)

	value, err := mc.Get("cooldown")
	assert.NoError(t, err)
	assert.Equal(t, "600", string(value))

	now = now.Add(10 * time.Minute)
	_, err = mc.Get("cooldown")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceDelete(t *testing.T) {
	mc := NewMemoryService()

	assert.NoError(t, mc.Set("key", []byte("v"), 0))
	assert.NoError(t, mc.Delete("key"))

	_, err := mc.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewSelectsBackend(t *testing.T) {
	assert.IsType(t, &MemoryService{}, New(""))
	assert.IsType(t, &MemcacheService{}, New("localhost:11211"))
}
