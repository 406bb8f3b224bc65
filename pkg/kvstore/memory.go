// pkg/kvstore/memory.go
package kvstore

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value    string
	deadline time.Time
}

type memStore struct {
	mu sync.Mutex
	m  map[string]memEntry
}

// NewMemory returns an in-process Store for dev and tests. Expiry is lazy:
// an entry past its deadline is dropped on the next read.
func NewMemory() Store {
	return &memStore{m: map[string]memEntry{}}
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.deadline = time.Now().Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		delete(s.m, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
