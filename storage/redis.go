package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spexcher/Pictionary/domain"
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url (redis://...) and checks the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
	}
	return &RedisStore{client: client}, nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func wrapRedisErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return domain.ErrKeyNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.UnexpectedStoreError, err)
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, wrapRedisErr(err)
	}
	return b, nil
}

// Set writes value with an expiry of ttl. A zero ttl keeps the key forever.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return wrapRedisErr(s.client.Set(ctx, key, value, ttl).Err())
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return wrapRedisErr(s.client.Del(ctx, keys...).Err())
}

func (s *RedisStore) ListAppend(ctx context.Context, key string, value []byte) error {
	return wrapRedisErr(s.client.RPush(ctx, key, value).Err())
}

func (s *RedisStore) ListReadAll(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, wrapRedisErr(err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s *RedisStore) SortedSetUpsert(ctx context.Context, key string, score float64, member string) error {
	return wrapRedisErr(s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

func (s *RedisStore) SortedSetTopN(ctx context.Context, key string, n int) ([]domain.ScoredMember, error) {
	if n <= 0 {
		return []domain.ScoredMember{}, nil
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, wrapRedisErr(err)
	}
	out := make([]domain.ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, domain.ScoredMember{Member: member, Score: z.Score})
	}
	return out, nil
}
