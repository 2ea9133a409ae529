package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"Xuunu.homeostasis/internal/models"
)

// NewRedisClient builds a client without dialing; call Health to verify it.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// RedisInsightStore stores insight entries as JSON under "insight:<key>".
// A zero ttl keeps entries forever.
type RedisInsightStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisInsightStore(client *redis.Client, ttl time.Duration) *RedisInsightStore {
	return &RedisInsightStore{client: client, ttl: ttl}
}

func redisInsightKey(key string) string {
	return fmt.Sprintf("insight:%s", key)
}

func (s *RedisInsightStore) Get(ctx context.Context, key string) (*models.InsightCacheEntry, error) {
	val, err := s.client.Get(ctx, redisInsightKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading insight %s: %w", key, err)
	}

	var entry models.InsightCacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("decoding insight %s: %w", key, err)
	}
	return &entry, nil
}

// Create uses SETNX so only the first writer for a key succeeds.
func (s *RedisInsightStore) Create(ctx context.Context, entry models.InsightCacheEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encoding insight %s: %w", entry.Key, err)
	}

	created, err := s.client.SetNX(ctx, redisInsightKey(entry.Key), payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("creating insight %s: %w", entry.Key, err)
	}
	return created, nil
}

// Health pings the server.
func (s *RedisInsightStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}
