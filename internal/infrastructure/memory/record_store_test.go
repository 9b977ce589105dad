package memory_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/lewebsimple/autologin/internal/infrastructure/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore() (*memory.RecordStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return memory.NewRecordStore(memory.WithClock(clock.Now)), clock
}

func TestPutGet_RoundTrip(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want v", got)
	}
}

func TestGet_Missing(t *testing.T) {
	s, _ := newStore()

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("want ErrRecordNotFound, got %v", err)
	}
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)

	clock.Advance(59 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("record should still be live: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("want ErrRecordNotFound after ttl, got %v", err)
	}
}

func TestPut_RefreshExtendsTTL(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)

	clock.Advance(50 * time.Second)
	_ = s.Put(ctx, "k", []byte("v"), time.Minute)
	clock.Advance(50 * time.Second)

	if _, err := s.Get(ctx, "k"); err != nil {
		t.Errorf("refreshed record should be live: %v", err)
	}
}

func TestPut_RejectsNonPositiveTTL(t *testing.T) {
	s, _ := newStore()

	if err := s.Put(context.Background(), "k", []byte("v"), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput, got %v", err)
	}
}

func TestPutGet_CopiesValues(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	v := []byte("abc")
	_ = s.Put(ctx, "k", v, time.Minute)
	v[0] = 'X'

	got, _ := s.Get(ctx, "k")
	got[1] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()
	_ = s.Put(ctx, "short", []byte("1"), time.Minute)
	_ = s.Put(ctx, "long", []byte("2"), time.Hour)

	clock.Advance(2 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	if _, err := s.Get(ctx, "long"); err != nil {
		t.Errorf("long-lived record gone: %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := memory.NewRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Put(ctx, "same", []byte("v"), time.Minute)
				_, _ = s.Get(ctx, "same")
			}
		}()
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestJanitor_InvalidSpec(t *testing.T) {
	j := memory.NewJanitor(memory.NewRecordStore(), "not a spec", slog.Default())

	if err := j.Start(context.Background()); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestJanitor_StopsOnCancel(t *testing.T) {
	j := memory.NewJanitor(memory.NewRecordStore(), "@every 1h", slog.Default())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- j.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
