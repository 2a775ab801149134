package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spexcher/Pictionary/domain"
)

type sessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	ListAppend(ctx context.Context, key string, value []byte) error
	ListReadAll(ctx context.Context, key string) ([][]byte, error)
	SortedSetUpsert(ctx context.Context, key string, score float64, member string) error
	SortedSetTopN(ctx context.Context, key string, n int) ([]domain.ScoredMember, error)
}

// testStoreContract runs the behaviour every session store must share.
// expire moves the store's notion of time past d.
func testStoreContract(t *testing.T, s sessionStore, expire func(d time.Duration)) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "room:nope")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "room:a", []byte(`{"id":"a"}`), 0))
		b, err := s.Get(ctx, "room:a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"a"}`, string(b))

		require.NoError(t, s.Set(ctx, "room:a", []byte(`{"id":"b"}`), 0))
		b, err = s.Get(ctx, "room:a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"b"}`, string(b))
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "session:t", []byte("x"), time.Minute))
		require.NoError(t, s.Set(ctx, "room:keep", []byte("y"), 0))

		_, err := s.Get(ctx, "session:t")
		require.NoError(t, err)

		expire(2 * time.Minute)

		_, err = s.Get(ctx, "session:t")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		_, err = s.Get(ctx, "room:keep")
		assert.NoError(t, err)
	})

	t.Run("list keeps append order", func(t *testing.T) {
		all, err := s.ListReadAll(ctx, "drawing:r:1")
		require.NoError(t, err)
		assert.Empty(t, all)

		for _, v := range []string{"one", "two", "three"} {
			require.NoError(t, s.ListAppend(ctx, "drawing:r:1", []byte(v)))
		}
		all, err = s.ListReadAll(ctx, "drawing:r:1")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, all)
	})

	t.Run("delete many kinds at once", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "game:r", []byte("state"), 0))
		require.NoError(t, s.ListAppend(ctx, "drawing:r:2", []byte("cmd")))

		require.NoError(t, s.Delete(ctx, "game:r", "drawing:r:2", "never:existed"))

		_, err := s.Get(ctx, "game:r")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		all, err := s.ListReadAll(ctx, "drawing:r:2")
		require.NoError(t, err)
		assert.Empty(t, all)
		assert.NoError(t, s.Delete(ctx))
	})

	t.Run("sorted set upsert and top n", func(t *testing.T) {
		require.NoError(t, s.SortedSetUpsert(ctx, "leaderboard", 10, "a:Ann"))
		require.NoError(t, s.SortedSetUpsert(ctx, "leaderboard", 30, "b:Bob"))
		require.NoError(t, s.SortedSetUpsert(ctx, "leaderboard", 20, "c:Cid"))
		require.NoError(t, s.SortedSetUpsert(ctx, "leaderboard", 5, "b:Bob"))

		top, err := s.SortedSetTopN(ctx, "leaderboard", 2)
		require.NoError(t, err)
		assert.Equal(t, []domain.ScoredMember{{Member: "c:Cid", Score: 20}, {Member: "a:Ann", Score: 10}}, top)

		top, err = s.SortedSetTopN(ctx, "leaderboard", 10)
		require.NoError(t, err)
		assert.Len(t, top, 3)

		top, err = s.SortedSetTopN(ctx, "leaderboard", 0)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}
