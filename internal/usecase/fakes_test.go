package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/lewebsimple/autologin/internal/password"
	"github.com/lewebsimple/autologin/internal/usecase"
)

// ---- fakes ----

type fakeUserRepo struct {
	findByID func(ctx context.Context, id string) (*domain.User, error)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

// usersByID resolves only the given users.
func usersByID(users ...*domain.User) *fakeUserRepo {
	return &fakeUserRepo{
		findByID: func(_ context.Context, id string) (*domain.User, error) {
			for _, u := range users {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, domain.ErrUserNotFound
		},
	}
}

type put struct {
	key   string
	value []byte
	ttl   time.Duration
}

// fakeRecordStore is a map without expiry; tests delete keys to simulate it.
type fakeRecordStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	puts   []put
	getErr error
	putErr error
}

func newFakeStore() *fakeRecordStore {
	return &fakeRecordStore{data: make(map[string][]byte)}
}

func (s *fakeRecordStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = append([]byte(nil), value...)
	s.puts = append(s.puts, put{key: key, value: value, ttl: ttl})
	return nil
}

func (s *fakeRecordStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return v, nil
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

type fakeOptionRepo struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newFakeOptions() *fakeOptionRepo {
	return &fakeOptionRepo{data: make(map[string][]byte)}
}

func (r *fakeOptionRepo) Get(_ context.Context, name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.data[name]
	if !ok {
		return nil, domain.ErrOptionNotFound
	}
	return v, nil
}

func (r *fakeOptionRepo) AddIfAbsent(_ context.Context, name string, value []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.data[name]; ok {
		return false, nil
	}
	r.data[name] = value
	return true, nil
}

func (r *fakeOptionRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, name)
	return nil
}

// ---- helpers ----

const (
	testBaseURL  = "https://site"
	testEndpoint = "ab12"
)

var (
	testUser   = &domain.User{ID: "42", Email: "user42@example.com"}
	otherUser  = &domain.User{ID: "43", Email: "user43@example.com"}
	testHasher = password.NewArgon2idHasher(password.Params{Time: 1, Memory: 1024, Threads: 1})
	errStore   = errors.New("store down")
	discard    = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func testConfig() usecase.LinkConfig {
	return usecase.LinkConfig{
		BaseURL:        testBaseURL,
		Endpoint:       testEndpoint,
		CheckSignature: true,
	}
}

func newLinks(store *fakeRecordStore, users *fakeUserRepo, cfg usecase.LinkConfig) *usecase.LinkUsecase {
	sender := &fakeEmailSender{send: func(context.Context, string, string, string) error { return nil }}
	return usecase.NewLinkUsecase(store, users, testHasher, sender, cfg, discard)
}
