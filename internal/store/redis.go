package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// KeyPrefix namespaces every key written to Redis.
const KeyPrefix = "sprite:"

// Redis is a Store backed by a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a client for cfg. It does not connect until first use;
// call Ping to verify the server is reachable.
func NewRedis(cfg config.StoreConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Redis) Get(ctx context.Context, key string) (*detection.Report, error) {
	data, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var report detection.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, nil
}

func (s *Redis) Set(ctx context.Context, key string, report *detection.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return s.client.Set(ctx, KeyPrefix+key, data, s.ttl).Err()
}

func (s *Redis) Close() error {
	return s.client.Close()
}
