package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/agentuity/hoopstats/cache"
	"github.com/agentuity/hoopstats/env"
	"github.com/agentuity/hoopstats/logger"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// redisArea closes the client it was opened with.
type redisArea struct {
	cache.Area
	client *redis.Client
}

func (a *redisArea) Close() error {
	return errors.Join(a.Area.Close(), a.client.Close())
}

// defaultCachePath is where the sqlite database lives when no path is set.
func defaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "locating the user cache directory")
	}
	dir = filepath.Join(dir, "hoopstats")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	return filepath.Join(dir, "cache.db"), nil
}

func openSQLite(ctx context.Context, cfg env.Config, opts []cache.Option) (cache.Area, error) {
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = defaultCachePath(); err != nil {
			return nil, err
		}
	}
	return cache.NewSQLiteArea(ctx, path, opts...)
}

// openArea opens the storage area named by cfg.Backend.
func openArea(ctx context.Context, cfg env.Config, log logger.Logger) (cache.Area, error) {
	opts := []cache.Option{cache.WithLogger(log), cache.WithQuota(cfg.Quota)}
	switch cfg.Backend {
	case env.BackendMemory:
		return cache.NewMemoryArea(opts...), nil
	case env.BackendSQLite:
		return openSQLite(ctx, cfg, opts)
	case env.BackendRedis:
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing redis url")
		}
		client := redis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
		return &redisArea{Area: cache.NewRedisArea(client, opts...), client: client}, nil
	case env.BackendTiered:
		disk, err := openSQLite(ctx, cfg, opts)
		if err != nil {
			return nil, err
		}
		return cache.NewCompositeArea(cache.NewMemoryArea(opts...), disk), nil
	}
	return nil, errors.Newf("unknown backend %q", cfg.Backend)
}

// storeOptions maps the configuration onto store options.
func storeOptions(cfg env.Config, log logger.Logger) []cache.Option {
	opts := []cache.Option{cache.WithLogger(log), cache.WithPrefix(cfg.Prefix)}
	if cfg.Sweep > 0 {
		opts = append(opts, cache.WithSweep(cfg.Sweep.Std()))
	}
	if cfg.Codec == "msgpack" {
		opts = append(opts, cache.WithCodec(cache.MsgpackCodec{}))
	}
	return opts
}
