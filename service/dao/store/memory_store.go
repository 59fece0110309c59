package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Solero93/OperatingSystems1/service/dao"
)

// MemoryStore is a generic in-memory dao.Service keeping *T values under
// the key returned by keySelector. Stored values are copies; callers never
// share memory with the store.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]T
	keySelector func(*T) K
	match       func(*T, []*dao.Parameter) bool
	less        func(a, b *T) bool
}

// StoreOption configures a MemoryStore.
type StoreOption[K comparable, T any] func(s *MemoryStore[K, T])

// WithMatcher filters List results by the supplied parameters.
func WithMatcher[K comparable, T any](match func(*T, []*dao.Parameter) bool) StoreOption[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.match = match
	}
}

// WithOrder sorts List results.
func WithOrder[K comparable, T any](less func(a, b *T) bool) StoreOption[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.less = less
	}
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...StoreOption[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]T),
		keySelector: keySelector,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.keySelector(v)] = *v
	return nil
}

// Load returns a copy of the record stored under key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return &v, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns copies of the matching records, ordered when an order is set.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		v := v
		if s.match != nil && !s.match(&v, parameters) {
			continue
		}
		out = append(out, &v)
	}
	s.mu.RUnlock()
	if s.less != nil {
		sort.Slice(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ dao.Service[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
