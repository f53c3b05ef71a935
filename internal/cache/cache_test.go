package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/store"
)

func testSnapshot() model.AnalyticsSnapshot {
	return model.AnalyticsSnapshot{
		Labels:           []string{"Mon", "Tue"},
		DataAll:          []int64{1, 2},
		DataAdmin:        []int64{0, 1},
		DataProfessional: []int64{1, 0},
		DataUser:         []int64{0, 1},
		TotalUsers:       10,
		NewUsers:         3,
	}
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestCache(t *testing.T) (*Cache, *store.MemoryStore, *fixedClock) {
	t.Helper()
	s := store.NewMemoryStore(0)
	clock := &fixedClock{t: time.UnixMilli(1_700_000_000_000)}
	return New(s, nil, WithClock(clock.now)), s, clock
}

func TestKey(t *testing.T) {
	assert.Equal(t, "analytics_week", Key(model.PeriodWeek))
	assert.Equal(t, []string{"analytics_week", "analytics_month", "analytics_year"}, Keys())
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	c, s, clock := newTestCache(t)

	c.Write(ctx, model.PeriodWeek, testSnapshot())

	raw, err := s.Get(ctx, "analytics_week")
	require.NoError(t, err)
	assert.Contains(t, raw, `"timestamp":1700000000000`)
	assert.Contains(t, raw, `"data":{"labels":["Mon","Tue"]`)

	e, ok := c.Read(ctx, model.PeriodWeek)
	require.True(t, ok)
	assert.Equal(t, clock.t.UnixMilli(), e.Timestamp)
	assert.Equal(t, int64(3), e.Data.NewUsers)
}

func TestFreshness(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache(t)
	c.Write(ctx, model.PeriodMonth, testSnapshot())

	e, ok := c.Read(ctx, model.PeriodMonth)
	require.True(t, ok)

	clock.t = clock.t.Add(299 * time.Second)
	assert.True(t, e.IsFresh(clock.now(), DefaultFreshness))

	clock.t = clock.t.Add(time.Second)
	assert.False(t, e.IsFresh(clock.now(), DefaultFreshness), "exactly five minutes old is stale")
	assert.Equal(t, 5*time.Minute, e.Age(clock.now()))
}

func TestReadMiss(t *testing.T) {
	c, _, _ := newTestCache(t)

	_, ok := c.Read(context.Background(), model.PeriodYear)
	assert.False(t, ok)
}

func TestReadCorrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{not json`},
		{"wrong shape", `{"timestamp":"yesterday","data":{}}`},
		{"ragged series", `{"timestamp":1,"data":{"labels":["a","b"],"data_all":[1],"data_admin":[1,1],"data_professional":[1,1],"data_user":[1,1]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, s, _ := newTestCache(t)
			require.NoError(t, s.Set(ctx, Key(model.PeriodWeek), tt.raw))

			_, ok := c.Read(ctx, model.PeriodWeek)
			assert.False(t, ok)
		})
	}
}

func TestAllPeriodIsNeverCached(t *testing.T) {
	ctx := context.Background()
	c, s, _ := newTestCache(t)

	c.Write(ctx, model.PeriodAll, testSnapshot())
	assert.Empty(t, s.Keys())

	_, ok := c.Read(ctx, model.PeriodAll)
	assert.False(t, ok)
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(16)
	c := New(s, nil)

	c.Write(ctx, model.PeriodWeek, testSnapshot())

	_, err := s.Get(ctx, Key(model.PeriodWeek))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestClearLeavesOtherKeys(t *testing.T) {
	ctx := context.Background()
	c, s, _ := newTestCache(t)

	for _, p := range model.CachedPeriods {
		c.Write(ctx, p, testSnapshot())
	}
	require.NoError(t, s.Set(ctx, "theme", "dark"))
	require.NoError(t, s.Set(ctx, "access", "token"))

	require.NoError(t, c.Clear(ctx))

	assert.ElementsMatch(t, []string{"theme", "access"}, s.Keys())
}
