// Package words is the dictionary the drawer's secret word is drawn from.
package words

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/spexcher/Pictionary/domain"
)

const CacheKey = "words"

var (
	ErrNoWords     = errors.New("no-words")
	ErrInvalidWord = errors.New("invalid-word")
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Loader is a durable dictionary such as the postgres words table.
type Loader interface {
	LoadWords(ctx context.Context) ([]domain.Word, error)
	AddWord(ctx context.Context, w domain.Word) error
}

type Service struct {
	mu     sync.Mutex
	words  []domain.Word
	cache  Cache
	loader Loader
	intn   func(n int) int
	log    zerolog.Logger
}

// NewService builds a word source. loader may be nil.
func NewService(cache Cache, loader Loader, log zerolog.Logger) *Service {
	return &Service{
		cache:  cache,
		loader: loader,
		intn:   rand.Intn,
		log:    log.With().Str("component", "words").Logger(),
	}
}

// Init fills the pool from the cache, else the loader, else DefaultWords, and
// writes the result back to the cache.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(ctx)
}

func (s *Service) init(ctx context.Context) error {
	if b, err := s.cache.Get(ctx, CacheKey); err == nil {
		var cached []domain.Word
		if err := json.Unmarshal(b, &cached); err == nil && len(cached) > 0 {
			s.words = cached
			return nil
		}
		s.log.Warn().Msg("ignoring unreadable word cache")
	} else if !errors.Is(err, domain.ErrKeyNotFound) {
		s.log.Warn().Err(err).Msg("word cache unavailable")
	}

	var pool []domain.Word
	if s.loader != nil {
		loaded, err := s.loader.LoadWords(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("could not load words, using defaults")
		}
		pool = loaded
	}
	if len(pool) == 0 {
		pool = slices.Clone(DefaultWords)
	}
	s.words = pool

	return s.writeCache(ctx)
}

func (s *Service) writeCache(ctx context.Context) error {
	b, err := json.Marshal(s.words)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, CacheKey, b, 0)
}

// RandomWord picks a word of the requested tier. Mixed, or a tier with no
// words, draws from the whole pool.
func (s *Service) RandomWord(ctx context.Context, difficulty domain.Difficulty) (domain.Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.words) == 0 {
		if err := s.init(ctx); err != nil && len(s.words) == 0 {
			return domain.Word{}, err
		}
	}
	if len(s.words) == 0 {
		return domain.Word{}, ErrNoWords
	}

	pool := s.words
	if difficulty != domain.DifficultyMixed {
		filtered := make([]domain.Word, 0, len(s.words))
		for _, w := range s.words {
			if w.Difficulty == difficulty {
				filtered = append(filtered, w)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	return pool[s.intn(len(pool))], nil
}

// AddWord stores a new word in the loader, when there is one, then in the pool
// and the cache.
func (s *Service) AddWord(ctx context.Context, w domain.Word) error {
	w.Text = strings.TrimSpace(w.Text)
	if w.Text == "" || !w.Difficulty.IsTier() {
		return ErrInvalidWord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.words) == 0 {
		if err := s.init(ctx); err != nil {
			s.log.Warn().Err(err).Msg("word cache write failed")
		}
	}
	if s.loader != nil {
		if err := s.loader.AddWord(ctx, w); err != nil {
			return err
		}
	}

	s.words = append(s.words, w)
	return s.writeCache(ctx)
}

func (s *Service) CountByDifficulty() map[domain.Difficulty]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[domain.Difficulty]int{
		domain.DifficultyEasy:   0,
		domain.DifficultyMedium: 0,
		domain.DifficultyHard:   0,
	}
	for _, w := range s.words {
		counts[w.Difficulty]++
	}
	return counts
}
