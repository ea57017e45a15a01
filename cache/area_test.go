package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 19, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testAreaContract exercises the behavior every Area implementation shares.
func testAreaContract(t *testing.T, area Area) {
	t.Helper()
	ctx := context.Background()

	val, found, err := area.GetItem(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_scoreboard", `{"a":1}`))
	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_standings", `{"b":2}`))
	require.NoError(t, area.SetItem(ctx, "nbaXstats", "other"))
	require.NoError(t, area.SetItem(ctx, "theme", "dark"))

	val, found, err = area.GetItem(ctx, "nba_stats_cache_scoreboard")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":1}`, val)

	// Overwrite replaces the value.
	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_scoreboard", `{"a":2}`))
	val, _, _ = area.GetItem(ctx, "nba_stats_cache_scoreboard")
	assert.Equal(t, `{"a":2}`, val)

	keys, err := area.Keys(ctx, "nba_stats_cache_")
	assert.NoError(t, err)
	assert.Equal(t, []string{"nba_stats_cache_scoreboard", "nba_stats_cache_standings"}, keys)

	all, err := area.Keys(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, area.RemoveItem(ctx, "nba_stats_cache_scoreboard"))
	require.NoError(t, area.RemoveItem(ctx, "never-set"))
	_, found, err = area.GetItem(ctx, "nba_stats_cache_scoreboard")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryArea(t *testing.T) {
	area := NewMemoryArea()
	defer area.Close()
	testAreaContract(t, area)
}

func TestMemoryAreaQuota(t *testing.T) {
	ctx := context.Background()
	area := NewMemoryArea(WithQuota(10))
	defer area.Close()

	assert.NoError(t, area.SetItem(ctx, "k", "12345"))
	assert.ErrorIs(t, area.SetItem(ctx, "j", "123456789"), ErrQuotaExceeded)
	// Replacing an existing key only counts the difference.
	assert.NoError(t, area.SetItem(ctx, "k", "123456789"))
	assert.NoError(t, area.RemoveItem(ctx, "k"))
	assert.NoError(t, area.SetItem(ctx, "j", "123456789"))
}

func TestMemoryAreaClosed(t *testing.T) {
	ctx := context.Background()
	area := NewMemoryArea()
	assert.NoError(t, area.Close())
	assert.NoError(t, area.Close())
	_, _, err := area.GetItem(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, area.SetItem(ctx, "k", "v"), ErrClosed)
}
