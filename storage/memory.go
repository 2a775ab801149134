package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/spexcher/Pictionary/domain"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a single-process session store for development and tests.
// Expired keys are dropped lazily on access.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	lists  map[string][][]byte
	zsets  map[string]map[string]float64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryEntry),
		lists:  make(map[string][][]byte),
		zsets:  make(map[string]map[string]float64),
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.values, key)
		return nil, domain.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
		delete(s.lists, k)
		delete(s.zsets, k)
	}
	return nil
}

func (s *MemoryStore) ListAppend(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append(s.lists[key], slices.Clone(value))
	return nil
}

// ListReadAll returns an empty list for a missing key, like LRANGE does.
func (s *MemoryStore) ListReadAll(ctx context.Context, key string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lists[key]
	out := make([][]byte, len(l))
	for i, v := range l {
		out[i] = slices.Clone(v)
	}
	return out, nil
}

func (s *MemoryStore) SortedSetUpsert(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	z[member] = score
	return nil
}

// SortedSetTopN orders by score descending and breaks ties by member
// descending, the same order ZREVRANGE uses.
func (s *MemoryStore) SortedSetTopN(ctx context.Context, key string, n int) ([]domain.ScoredMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ScoredMember, 0, len(s.zsets[key]))
	for m, score := range s.zsets[key] {
		out = append(out, domain.ScoredMember{Member: m, Score: score})
	}
	slices.SortFunc(out, func(a, b domain.ScoredMember) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Member, a.Member)
	})

	if n <= 0 {
		return []domain.ScoredMember{}, nil
	}
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}
