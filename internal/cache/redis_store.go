package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coincorr-go/internal/config"
)

// RedisStore keeps payloads in Redis without expiry, matching the
// on-disk cache semantics.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore returns a store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: "chart_cache:",
	}
}

// NewRedisConnection connects to Redis and verifies the connection.
func NewRedisConnection(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Successfully connected to Redis")

	return rdb, nil
}

// Get retrieves the payload stored for key.
func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	data, err := s.redis.Get(ctx, s.prefix+key.String()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis error getting chart %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores the payload for key without expiry.
func (s *RedisStore) Set(ctx context.Context, key Key, data []byte) error {
	if err := s.redis.Set(ctx, s.prefix+key.String(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis error setting chart %s: %w", key, err)
	}
	return nil
}

// Clear removes every cached chart.
func (s *RedisStore) Clear(ctx context.Context) error {
	var keys []string
	iter := s.redis.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}
	return nil
}

var _ ChartStore = (*RedisStore)(nil)
