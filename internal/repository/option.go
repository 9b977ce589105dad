package repository

import "context"

// OptionRepository is a small durable key-value store for deployment settings.
type OptionRepository interface {
	// Get returns domain.ErrOptionNotFound if the option is not set.
	Get(ctx context.Context, name string) ([]byte, error)
	// AddIfAbsent stores value only when name is not set yet and reports
	// whether it was written.
	AddIfAbsent(ctx context.Context, name string, value []byte) (bool, error)
	Delete(ctx context.Context, name string) error
}
