package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentuity/hoopstats/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, Area, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	area := NewMemoryArea()
	store := NewStore(context.Background(), area, append([]Option{WithClock(clock.Now)}, opts...)...)
	t.Cleanup(func() { store.Close() })
	return store, area, clock
}

func TestStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Set(ctx, "scoreboard", map[string]any{"events": []any{"401"}}, time.Minute)
	raw, ok := store.Get(ctx, "scoreboard")
	assert.True(t, ok)
	assert.JSONEq(t, `{"events":["401"]}`, string(raw))
}

func TestStoreGetMissing(t *testing.T) {
	store, _, _ := newTestStore(t)
	raw, ok := store.Get(context.Background(), "never")
	assert.False(t, ok)
	assert.Nil(t, raw)
}

func TestStoreNonPositiveTTLIsMiss(t *testing.T) {
	ctx := context.Background()
	store, area, _ := newTestStore(t)

	for _, ttl := range []time.Duration{0, -time.Minute} {
		store.Set(ctx, "key", "value", ttl)
		_, ok := store.Get(ctx, "key")
		assert.False(t, ok, "ttl %s", ttl)
	}

	// A non-positive ttl also drops a previous entry.
	store.Set(ctx, "key", "value", time.Minute)
	store.Set(ctx, "key", "value", 0)
	_, found, err := area.GetItem(ctx, "nba_stats_cache_key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	store, area, clock := newTestStore(t)

	store.Set(ctx, "standings", "table", time.Hour)

	clock.Advance(time.Hour)
	_, ok := store.Get(ctx, "standings")
	assert.True(t, ok, "entry is fresh at its exact expiry")

	// Nothing is removed until a read observes the expiry.
	clock.Advance(time.Millisecond)
	_, found, _ := area.GetItem(ctx, "nba_stats_cache_standings")
	assert.True(t, found)

	_, ok = store.Get(ctx, "standings")
	assert.False(t, ok)
	_, found, _ = area.GetItem(ctx, "nba_stats_cache_standings")
	assert.False(t, found)
}

func TestStoreOverwriteReplaces(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newTestStore(t)

	store.Set(ctx, "key", map[string]int{"a": 1, "b": 2}, time.Hour)
	store.Set(ctx, "key", map[string]int{"c": 3}, time.Minute)

	val, ok := GetValue[map[string]int](ctx, store, "key")
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"c": 3}, val)

	clock.Advance(2 * time.Minute)
	_, ok = store.Get(ctx, "key")
	assert.False(t, ok, "the second write's ttl applies")
}

func TestStorePersistedLayout(t *testing.T) {
	ctx := context.Background()
	store, area, clock := newTestStore(t)

	store.Set(ctx, "stat_leaders", []int{1, 2}, 60*time.Minute)
	data, found, err := area.GetItem(ctx, "nba_stats_cache_stat_leaders")
	require.NoError(t, err)
	require.True(t, found)

	var record struct {
		Value  []int `json:"value"`
		Expiry int64 `json:"expiry"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &record))
	assert.Equal(t, []int{1, 2}, record.Value)
	assert.Equal(t, clock.Now().UnixMilli()+60*60000, record.Expiry)
}

func TestStoreUnparseableIsMiss(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()
	store, area, _ := newTestStore(t, WithLogger(log))

	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_bad", "{not json"))
	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_empty", `{"expiry":1}`))

	_, ok := store.Get(ctx, "bad")
	assert.False(t, ok)
	_, ok = store.Get(ctx, "empty")
	assert.False(t, ok)
	assert.True(t, log.Contains("ERROR", "error reading cache bad"))
}

func TestStoreGetValueTypeMismatch(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Set(ctx, "key", "a string", time.Minute)
	_, ok := GetValue[[]int](ctx, store, "key")
	assert.False(t, ok)
	s, ok := GetValue[string](ctx, store, "key")
	assert.True(t, ok)
	assert.Equal(t, "a string", s)
}

func TestStoreWriteFailureSwallowed(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()
	clock := newFakeClock()
	store := NewStore(ctx, NewMemoryArea(WithQuota(32)), WithLogger(log), WithClock(clock.Now))
	defer store.Close()

	assert.NotPanics(t, func() {
		store.Set(ctx, "player_stats_1966", map[string]string{"career": "a long payload that will not fit"}, time.Hour)
	})
	_, ok := store.Get(ctx, "player_stats_1966")
	assert.False(t, ok)
	assert.True(t, log.Contains("ERROR", "quota exceeded"))
}

func TestStoreUnencodableValue(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()
	store, _, _ := newTestStore(t, WithLogger(log))

	store.Set(ctx, "fn", func() {}, time.Minute)
	_, ok := store.Get(ctx, "fn")
	assert.False(t, ok)
	assert.True(t, log.Contains("ERROR", "error encoding value for fn"))
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store, area, _ := newTestStore(t)

	store.Set(ctx, "scoreboard", 1, time.Minute)
	store.Set(ctx, "standings", 2, time.Minute)
	store.Set(ctx, "nba_news", 3, time.Minute)
	require.NoError(t, area.SetItem(ctx, "unrelated", "keep"))

	require.NoError(t, store.Clear(ctx, "standings"))
	_, ok := store.Get(ctx, "standings")
	assert.False(t, ok)
	_, ok = store.Get(ctx, "scoreboard")
	assert.True(t, ok)

	require.NoError(t, store.Clear(ctx))
	keys, err := store.Keys(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)

	val, found, err := area.GetItem(ctx, "unrelated")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "keep", val)
}

func TestStoreKeysStripPrefix(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t, WithPrefix("test_"))

	store.Set(ctx, "b", 1, time.Minute)
	store.Set(ctx, "a", 1, time.Minute)
	keys, err := store.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, "test_", store.Prefix())
}

func TestStoreSweep(t *testing.T) {
	ctx := context.Background()
	store, area, clock := newTestStore(t)

	store.Set(ctx, "short", 1, time.Minute)
	store.Set(ctx, "long", 2, time.Hour)
	require.NoError(t, area.SetItem(ctx, "nba_stats_cache_corrupt", "???"))

	clock.Advance(2 * time.Minute)
	n, err := store.Sweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := store.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"corrupt", "long"}, keys)
}

func TestStoreBackgroundSweep(t *testing.T) {
	ctx := context.Background()
	area := NewMemoryArea()
	store := NewStore(ctx, area, WithSweep(20*time.Millisecond))
	defer store.Close()

	store.Set(ctx, "brief", 1, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, found, _ := area.GetItem(ctx, "nba_stats_cache_brief")
		return !found
	}, time.Second, 10*time.Millisecond)
}

func TestStoreMsgpackCodec(t *testing.T) {
	ctx := context.Background()
	store, area, _ := newTestStore(t, WithCodec(MsgpackCodec{}))

	store.Set(ctx, "game_summary_401", map[string]any{"state": "post"}, time.Hour)
	val, ok := GetValue[map[string]string](ctx, store, "game_summary_401")
	assert.True(t, ok)
	assert.Equal(t, "post", val["state"])

	data, _, _ := area.GetItem(ctx, "nba_stats_cache_game_summary_401")
	assert.False(t, json.Valid([]byte(data)))
}

func TestStoreCloseClosesArea(t *testing.T) {
	area := NewMemoryArea()
	store := NewStore(context.Background(), area)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
	_, _, err := area.GetItem(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}
