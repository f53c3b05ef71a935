package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	used   int
	quota  int
	closed bool
}

// NewMemoryStore creates a MemoryStore. quotaBytes limits the total size of
// keys plus values; 0 means unlimited.
func NewMemoryStore(quotaBytes int) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]string),
		quota: quotaBytes,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	used := s.used + len(key) + len(value)
	if old, ok := s.data[key]; ok {
		used -= len(key) + len(old)
	}
	if s.quota > 0 && used > s.quota {
		return fmt.Errorf("set %s: %w (%d > %d bytes)", key, ErrQuotaExceeded, used, s.quota)
	}

	s.data[key] = value
	s.used = used
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		if old, ok := s.data[k]; ok {
			s.used -= len(k) + len(old)
			delete(s.data, k)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Used returns the bytes counted against the quota.
func (s *MemoryStore) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
