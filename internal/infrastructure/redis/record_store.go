package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lewebsimple/autologin/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// or rediss:// URL and pings the server.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RecordStore keeps magic records in Redis, relying on key expiry for TTL.
type RecordStore struct {
	client goredis.UniversalClient
	prefix string
}

func NewRecordStore(client goredis.UniversalClient, prefix string) *RecordStore {
	return &RecordStore{client: client, prefix: prefix}
}

func (s *RecordStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}
