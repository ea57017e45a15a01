package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecCacheMiss(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	invoked := 0
	val, found, err := Exec(ctx, store, ExecConfig[string]{Key: "key", TTL: FixedTTL[string](time.Minute)}, func(ctx context.Context) (string, error) {
		invoked++
		return "fresh-value", nil
	})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "fresh-value", val)
	assert.Equal(t, 1, invoked)

	cached, ok := GetValue[string](ctx, store, "key")
	assert.True(t, ok)
	assert.Equal(t, "fresh-value", cached)
}

func TestExecCacheHit(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.Set(ctx, "key", "cached-value", time.Minute)

	invoked := false
	val, found, err := Exec(ctx, store, ExecConfig[string]{Key: "key", TTL: FixedTTL[string](time.Minute)}, func(ctx context.Context) (string, error) {
		invoked = true
		return "fresh-value", nil
	})
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached-value", val)
	assert.False(t, invoked)
}

func TestExecForceSkipsLookup(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.Set(ctx, "key", "cached-value", time.Minute)

	val, found, err := Exec(ctx, store, ExecConfig[string]{Key: "key", Force: true, TTL: FixedTTL[string](time.Minute)}, func(ctx context.Context) (string, error) {
		return "fresh-value", nil
	})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "fresh-value", val)

	cached, _ := GetValue[string](ctx, store, "key")
	assert.Equal(t, "fresh-value", cached)
}

func TestExecInvokerError(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.Set(ctx, "other", "x", time.Minute)

	expectedErr := fmt.Errorf("invoke failed")
	_, found, err := Exec(ctx, store, ExecConfig[string]{Key: "key", TTL: FixedTTL[string](time.Minute)}, func(ctx context.Context) (string, error) {
		return "", expectedErr
	})
	assert.ErrorIs(t, err, expectedErr)
	assert.False(t, found)
	_, ok := store.Get(ctx, "key")
	assert.False(t, ok)
}

func TestExecTTLFromValue(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newTestStore(t)

	ttl := func(v json.RawMessage) time.Duration {
		var payload struct {
			Final bool `json:"final"`
		}
		_ = json.Unmarshal(v, &payload)
		if payload.Final {
			return 24 * time.Hour
		}
		return time.Minute
	}
	cfg := ExecConfig[json.RawMessage]{Key: "game", TTL: ttl}

	_, _, err := Exec(ctx, store, cfg, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"final":false}`), nil
	})
	assert.NoError(t, err)
	entry, ok := store.Entry(ctx, "game")
	assert.True(t, ok)
	assert.True(t, clock.Now().Add(time.Minute).Equal(entry.ExpiresAt()))

	cfg.Force = true
	_, _, err = Exec(ctx, store, cfg, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"final":true}`), nil
	})
	assert.NoError(t, err)
	entry, ok = store.Entry(ctx, "game")
	assert.True(t, ok)
	assert.True(t, clock.Now().Add(24*time.Hour).Equal(entry.ExpiresAt()))
}

func TestExecNilTTLDoesNotCache(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, _, err := Exec(ctx, store, ExecConfig[int]{Key: "uncached"}, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	assert.NoError(t, err)
	_, ok := store.Get(ctx, "uncached")
	assert.False(t, ok)
}
