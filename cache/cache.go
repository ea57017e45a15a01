package cache

import (
	"context"
	"io"
	"time"

	"github.com/agentuity/hoopstats/logger"
	"github.com/cockroachdb/errors"
)

// DefaultPrefix namespaces every key the Store writes into its Area.
const DefaultPrefix = "nba_stats_cache_"

// DefaultQueryTimeout is the per-operation timeout for areas that perform
// I/O (SQLite, Redis).
const DefaultQueryTimeout = 5 * time.Second

var (
	// ErrQuotaExceeded is returned by an Area that refuses a write because it is full.
	ErrQuotaExceeded = errors.New("cache: storage quota exceeded")
	// ErrClosed is returned by an Area used after Close.
	ErrClosed = errors.New("cache: area closed")
)

// Area is a persistent string key-value area scoped to one application,
// the equivalent of a browser's local storage. Implementations do not
// know about expiry; the Store layers TTL semantics on top.
type Area interface {
	// GetItem returns the raw value stored under key.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores val under key, replacing any previous value.
	SetItem(ctx context.Context, key string, val string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the area.
	Close() error
}

// config holds the resolved configuration for a Store or an Area.
type config struct {
	prefix       string
	queryTimeout time.Duration
	sweep        time.Duration
	quota        int
	logger       logger.Logger
	codec        Codec
	now          func() time.Time
}

// Option configures a Store or an Area implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		prefix:       DefaultPrefix,
		queryTimeout: DefaultQueryTimeout,
		logger:       logger.NewWriterLogger(io.Discard, logger.LevelNone),
		codec:        JSONCodec{},
		now:          time.Now,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPrefix sets the namespace prepended to every Store key.
// Defaults to DefaultPrefix.
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed areas
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithSweep enables a background sweep of expired Store entries at the given
// interval. Disabled by default: expiry is otherwise only checked on read.
func WithSweep(d time.Duration) Option {
	return func(c *config) { c.sweep = d }
}

// WithQuota caps the number of bytes (keys plus values) a memory area holds.
// Writes past the cap fail with ErrQuotaExceeded. Zero means unlimited.
func WithQuota(bytes int) Option {
	return func(c *config) { c.quota = bytes }
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCodec sets the encoding used for persisted entries. Defaults to JSONCodec.
func WithCodec(codec Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func queryCtx(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
