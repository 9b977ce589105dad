// Package memory is an in-process expiring record store for local
// development and tests. Records do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/robfig/cron/v3"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type RecordStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

type Option func(*RecordStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) { s.now = now }
}

func NewRecordStore(opts ...Option) *RecordStore {
	s := &RecordStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecordStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}
	// copy so callers can't mutate stored bytes
	v := append([]byte(nil), value...)

	s.mu.Lock()
	s.entries[key] = entry{value: v, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *RecordStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return nil, domain.ErrRecordNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep deletes expired entries and returns how many were removed.
func (s *RecordStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Janitor sweeps a RecordStore on a cron schedule.
type Janitor struct {
	store  *RecordStore
	spec   string
	logger *slog.Logger
}

func NewJanitor(store *RecordStore, spec string, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:  store,
		spec:   spec,
		logger: logger.With("component", "memory_janitor"),
	}
}

// Start runs until ctx is cancelled. spec accepts the standard cron syntax
// plus descriptors such as "@every 1m".
func (j *Janitor) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.spec, j.sweep); err != nil {
		return fmt.Errorf("schedule janitor %q: %w", j.spec, err)
	}

	j.logger.Info("janitor started", "spec", j.spec)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info("janitor shut down")
	return nil
}

func (j *Janitor) sweep() {
	start := time.Now()
	if n := j.store.Sweep(); n > 0 {
		j.logger.Info("swept expired records", "count", n, "duration", time.Since(start))
	}
}
