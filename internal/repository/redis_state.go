package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore persists collector state in Redis, for deployments where
// the collector host is ephemeral but a Redis instance is not. Values are
// unix-second strings under a key prefix.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// RedisStateOption configures RedisStateStore.
type RedisStateOption func(*RedisStateStore)

// WithStatePrefix overrides the default key prefix.
func WithStatePrefix(prefix string) RedisStateOption {
	return func(s *RedisStateStore) { s.prefix = prefix }
}

// NewRedisStateStore creates a store on client and verifies connectivity.
func NewRedisStateStore(ctx context.Context, client *redis.Client, opts ...RedisStateOption) (*RedisStateStore, error) {
	s := &RedisStateStore{client: client, prefix: "marketcast:state"}
	for _, opt := range opts {
		opt(s)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return s, nil
}

var _ domrepo.StateStore = (*RedisStateStore)(nil)

func (s *RedisStateStore) watermarkKey(symbol string) string {
	return fmt.Sprintf("%s:watermark:%s", s.prefix, symbol)
}

func (s *RedisStateStore) firedKey(class models.CadenceClass) string {
	return fmt.Sprintf("%s:fired:%s", s.prefix, class)
}

func (s *RedisStateStore) get(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

func (s *RedisStateStore) set(ctx context.Context, key string, ts time.Time) error {
	if err := s.client.Set(ctx, key, strconv.FormatInt(ts.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStateStore) LastObserved(ctx context.Context, symbol string) (time.Time, bool, error) {
	return s.get(ctx, s.watermarkKey(symbol))
}

func (s *RedisStateStore) SetLastObserved(ctx context.Context, symbol string, ts time.Time) error {
	return s.set(ctx, s.watermarkKey(symbol), ts)
}

func (s *RedisStateStore) LastFired(ctx context.Context, class models.CadenceClass) (time.Time, bool, error) {
	return s.get(ctx, s.firedKey(class))
}

func (s *RedisStateStore) SetLastFired(ctx context.Context, class models.CadenceClass, instant time.Time) error {
	return s.set(ctx, s.firedKey(class), instant)
}

func (s *RedisStateStore) Close() error { return s.client.Close() }
