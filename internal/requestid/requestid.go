package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

const maxLen = 128

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// Valid reports whether an incoming X-Request-ID is safe to log and echo:
// non-empty, bounded, and limited to [A-Za-z0-9._-].
func Valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
