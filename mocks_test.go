package courier_test

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-courier"
	"github.com/stretchr/testify/mock"
)

// MockStore implements courier.SecureStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockActivitySink implements courier.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event courier.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mapStore is a plain SecureStore backed by a map. Keys listed in failSet or
// failDelete return errSlotUnavailable.
type mapStore struct {
	mu         sync.Mutex
	values     map[string]string
	failGet    map[string]bool
	failSet    map[string]bool
	failDelete map[string]bool
}

var errSlotUnavailable = errors.New("slot unavailable")

func newMapStore() *mapStore {
	return &mapStore{
		values:     map[string]string{},
		failGet:    map[string]bool{},
		failSet:    map[string]bool{},
		failDelete: map[string]bool{},
	}
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet[key] {
		return "", false, errSlotUnavailable
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet[key] {
		return errSlotUnavailable
	}
	s.values[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete[key] {
		return errSlotUnavailable
	}
	delete(s.values, key)
	return nil
}

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

func (s *mapStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// tokenRecorder records every token handed to the API client.
type tokenRecorder struct {
	mu     sync.Mutex
	tokens []string
}

func (r *tokenRecorder) SetToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
}

func (r *tokenRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) == 0 {
		return ""
	}
	return r.tokens[len(r.tokens)-1]
}

// navRecorder records redirects in order.
type navRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (n *navRecorder) NavigateHome()  { n.record("home") }
func (n *navRecorder) NavigateAdmin() { n.record("admin") }
func (n *navRecorder) NavigateStaff() { n.record("staff") }

func (n *navRecorder) record(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, target)
}

func (n *navRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
