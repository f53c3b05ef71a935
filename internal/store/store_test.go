package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceofmind/admin-sync/internal/config"
)

// runStoreSuite exercises the behavior every backend must share.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "theme", "dark"))
		v, err := s.Get(ctx, "theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "analytics_week", `{"timestamp":1}`))
		require.NoError(t, s.Set(ctx, "analytics_week", `{"timestamp":2}`))
		v, err := s.Get(ctx, "analytics_week")
		require.NoError(t, err)
		assert.Equal(t, `{"timestamp":2}`, v)
	})

	t.Run("delete several", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "a", "1"))
		require.NoError(t, s.Set(ctx, "b", "2"))
		require.NoError(t, s.Set(ctx, "c", "3"))

		require.NoError(t, s.Delete(ctx, "a", "b", "missing"))

		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "b")
		assert.ErrorIs(t, err, ErrNotFound)
		v, err := s.Get(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, "3", v)
	})

	t.Run("delete nothing", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore_File(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/state.db"

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "access", "tok"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, "tok", v, "values survive reopening")
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "adminsync:")
	require.NoError(t, err)
	defer s.Close()

	runStoreSuite(t, s)

	assert.True(t, mr.Exists("adminsync:theme"), "keys carry the prefix")
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "redis://"+addr, "")
	assert.Error(t, err)
}

func TestMemoryStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	require.NoError(t, s.Set(ctx, "k", "0123456789")) // 11 bytes
	err := s.Set(ctx, "other", "0123456789")          // 15 more
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Replacing an existing value only counts the difference.
	require.NoError(t, s.Set(ctx, "k", "0123456789abcdef"))
	assert.Equal(t, 17, s.Used())

	require.NoError(t, s.Delete(ctx, "k"))
	assert.Equal(t, 0, s.Used())
	require.NoError(t, s.Set(ctx, "other", "0123456789"))
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore(0)
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "x", "y"), ErrClosed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLite: config.SQLiteConfig{Path: ":memory:"}}, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := Open(ctx, config.StoreConfig{Driver: config.DriverRedis, Redis: config.RedisConfig{URL: "redis://" + mr.Addr()}}, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &RedisStore{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, config.StoreConfig{Driver: "etcd"}, nil)
		assert.ErrorContains(t, err, "unknown store driver")
	})
}
