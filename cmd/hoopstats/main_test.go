package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentuity/hoopstats/cache"
	"github.com/agentuity/hoopstats/env"
	"github.com/agentuity/hoopstats/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	srv  *httptest.Server
	hits int32
	down atomic.Bool
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.hits, 1)
		if u.down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/site/scoreboard":
			w.Write([]byte(`{"events":[{"id":"401","name":"Lakers at Celtics"}]}`))
		case "/search":
			w.Write([]byte(`{"results":[{"type":"player","contents":[
				{"id":"1966","uid":"s:40~l:46~a:1966","displayName":"LeBron James","subtitle":"Los Angeles Lakers","defaultLeagueSlug":"nba"},
				{"id":"9","uid":"s:40~l:41~a:9","displayName":"College Kid","subtitle":"Duke | College","defaultLeagueSlug":"nba"}
			]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(u.srv.Close)
	t.Setenv("HOOPSTATS_ENDPOINT_SITE", u.srv.URL+"/site")
	t.Setenv("HOOPSTATS_ENDPOINT_SEARCH", u.srv.URL+"/search")
	t.Setenv("HOOPSTATS_ENDPOINT_STANDINGS", u.srv.URL+"/standings")
	return u
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file=", "--log-level=none"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestScoreboardCommand(t *testing.T) {
	newFakeUpstream(t)
	out, err := run(t, context.Background(), "--backend=memory", "scoreboard")
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[{"id":"401","name":"Lakers at Celtics"}]}`, out)
	assert.Contains(t, out, "\n  \"events\"")
}

func TestSearchCommand(t *testing.T) {
	newFakeUpstream(t)
	out, err := run(t, context.Background(), "--backend=memory", "search", "LeBron", "James")
	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "LeBron James", results[0]["displayName"])
	assert.Equal(t, "1966", results[0]["numericalId"])
}

func TestUnavailableCommand(t *testing.T) {
	newFakeUpstream(t)
	_, err := run(t, context.Background(), "--backend=memory", "standings")
	assert.True(t, errors.Is(err, errUnavailable))
}

func TestSQLiteCachePersistsAcrossRuns(t *testing.T) {
	u := newFakeUpstream(t)
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "scoreboard")
	require.NoError(t, err)

	u.down.Store(true)
	second, err := run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "scoreboard")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.hits))

	_, err = run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "--force", "scoreboard")
	assert.True(t, errors.Is(err, errUnavailable))
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.hits))

	keys, err := run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "cache", "keys")
	require.NoError(t, err)
	assert.JSONEq(t, `["scoreboard"]`, keys)

	_, err = run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "cache", "clear")
	require.NoError(t, err)
	keys, err = run(t, context.Background(), "--backend=sqlite", "--cache-path="+path, "cache", "keys")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, keys)
}

func TestWatchScoreboard(t *testing.T) {
	newFakeUpstream(t)
	t.Setenv("HOOPSTATS_POLL_INTERVAL", "10ms")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out, err := run(t, ctx, "--backend=memory", "scoreboard", "--watch")
	require.NoError(t, err)
	// Unchanged payloads print once.
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := run(t, context.Background(), "--backend=floppy", "scoreboard")
	assert.Error(t, err)
	_, err = run(t, context.Background(), "--backend=memory", "--timeout=soon", "scoreboard")
	assert.Error(t, err)
}

func TestOpenArea(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()

	cfg := env.Default()
	cfg.Backend = env.BackendMemory
	area, err := openArea(ctx, cfg, log)
	require.NoError(t, err)
	require.NoError(t, area.Close())

	cfg.Backend = env.BackendTiered
	cfg.Path = filepath.Join(t.TempDir(), "tiered.db")
	area, err = openArea(ctx, cfg, log)
	require.NoError(t, err)
	require.NoError(t, area.SetItem(ctx, "k", "v"))
	require.NoError(t, area.Close())

	mr := miniredis.RunT(t)
	cfg.Backend = env.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()
	area, err = openArea(ctx, cfg, log)
	require.NoError(t, err)
	require.NoError(t, area.SetItem(ctx, "k", "v"))
	val, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	require.NoError(t, area.Close())

	cfg.RedisURL = "not a url"
	_, err = openArea(ctx, cfg, log)
	assert.Error(t, err)

	cfg.Backend = "floppy"
	_, err = openArea(ctx, cfg, log)
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	log := logger.NewTestLogger()
	cfg := env.Default()
	assert.Len(t, storeOptions(cfg, log), 2)
	cfg.Sweep = env.Duration(time.Minute)
	cfg.Codec = "msgpack"
	assert.Len(t, storeOptions(cfg, log), 4)
}

func TestFlagsOverrideEnvironmentBeforeValidation(t *testing.T) {
	newFakeUpstream(t)
	mr := miniredis.RunT(t)
	t.Setenv("HOOPSTATS_BACKEND", "redis")

	out, err := run(t, context.Background(), "--redis-url=redis://"+mr.Addr(), "cache", "keys")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = run(t, context.Background(), "cache", "keys")
	assert.ErrorContains(t, err, "requires a redis url")
}

func TestHelpAndCompletionSkipTheCache(t *testing.T) {
	t.Setenv("HOOPSTATS_BACKEND", "floppy")

	_, err := run(t, context.Background(), "help")
	assert.NoError(t, err)
	out, err := run(t, context.Background(), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "hoopstats")

	_, err = run(t, context.Background(), "scoreboard")
	assert.ErrorContains(t, err, "unknown backend")
}

type closeFailArea struct {
	cache.Area
}

func (closeFailArea) Close() error { return errors.New("area close failed") }

func TestRedisAreaCloseReportsBothErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	area := &redisArea{Area: closeFailArea{cache.NewMemoryArea()}, client: client}

	err := area.Close()
	assert.ErrorContains(t, err, "area close failed")

	err = area.Close()
	assert.ErrorContains(t, err, "area close failed")
	assert.ErrorIs(t, err, redis.ErrClosed)
}
