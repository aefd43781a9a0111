package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
)

// RedisStore keeps State in a Redis set plus a flag key. Saves run in a
// MULTI/EXEC transaction and only ever add members.
type RedisStore struct {
	client  *redis.Client
	seenKey string
	initKey string
}

// NewRedisStore creates a store under keyPrefix
func NewRedisStore(addr string, db int, keyPrefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return NewRedisStoreWithClient(client, keyPrefix)
}

// NewRedisStoreWithClient creates a store on an existing client
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:  client,
		seenKey: keyPrefix + ":seen",
		initKey: keyPrefix + ":initialized",
	}
}

// Load reads the seen set, returning a fresh State on any error
func (s *RedisStore) Load(ctx context.Context) *State {
	log := logger.ForStore().WithField("backend", "redis")

	members, err := s.client.SMembers(ctx, s.seenKey).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", s.seenKey).Msg("Failed to read state, starting fresh")
		return NewState()
	}

	flag, err := s.client.Get(ctx, s.initKey).Result()
	if err != nil && err != redis.Nil {
		log.Warn().Err(err).Str("key", s.initKey).Msg("Failed to read state, starting fresh")
		return NewState()
	}

	state := NewState()
	state.Initialized = flag == "1"
	for _, fp := range members {
		state.Add(fp)
	}
	return state
}

// Save adds every fingerprint and writes the flag in one transaction
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	fingerprints := state.Fingerprints()
	flag := "0"
	if state.Initialized {
		flag = "1"
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(fingerprints) > 0 {
			members := make([]interface{}, len(fingerprints))
			for i, fp := range fingerprints {
				members[i] = fp
			}
			pipe.SAdd(ctx, s.seenKey, members...)
		}
		pipe.Set(ctx, s.initKey, flag, 0)
		return nil
	})
	if err != nil {
		return errors.NewPersist(s.seenKey, "redis transaction", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
