package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

type redisArea struct {
	client       *redis.Client
	queryTimeout time.Duration
}

var _ Area = (*redisArea)(nil)

// NewRedisArea returns an Area backed by Redis, letting several processes share
// one cache. The caller owns the redis.Client lifecycle; Close is a no-op on the client.
func NewRedisArea(client *redis.Client, opts ...Option) Area {
	cfg := applyOptions(opts)
	return &redisArea{client: client, queryTimeout: cfg.queryTimeout}
}

func (a *redisArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	val, err := a.client.Get(qctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return val, true, nil
}

func (a *redisArea) SetItem(ctx context.Context, key string, val string) error {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	if err := a.client.Set(qctx, key, val, 0).Err(); err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func (a *redisArea) RemoveItem(ctx context.Context, key string) error {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	if err := a.client.Del(qctx, key).Err(); err != nil {
		return errors.Wrapf(err, "removing %s", key)
	}
	return nil
}

func (a *redisArea) Keys(ctx context.Context, prefix string) ([]string, error) {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	var keys []string
	iter := a.client.Scan(qctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(qctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning keys")
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op, the caller owns the redis.Client lifecycle.
func (a *redisArea) Close() error {
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
