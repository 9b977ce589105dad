package repository

import (
	"context"
	"time"
)

// RecordStore is an expiring key-value store. TTL is enforced by the store.
// Get returns domain.ErrRecordNotFound for absent or expired keys.
// Implementations must be safe for concurrent use.
type RecordStore interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
