package cache

import (
	"context"
	"time"
)

// TTLFunc resolves the lifetime of a freshly fetched value.
type TTLFunc[T any] func(value T) time.Duration

// FixedTTL returns a TTLFunc that ignores the value.
func FixedTTL[T any](d time.Duration) TTLFunc[T] {
	return func(T) time.Duration { return d }
}

// ExecConfig configures the Exec helper.
type ExecConfig[T any] struct {
	// Key is the cache key. Required.
	Key string
	// Force skips the lookup and always invokes.
	Force bool
	// TTL decides the lifetime after invoke succeeds. A nil TTL or a
	// non-positive result leaves the value uncached.
	TTL TTLFunc[T]
}

// Invoker is a function that produces a value of type T.
type Invoker[T any] func(ctx context.Context) (T, error)

// Exec is a cache-aside helper. It checks the store for config.Key first,
// unless config.Force is set. On a hit the cached value is returned and invoke
// is not called. On a miss invoke produces the value; if it succeeds the TTL
// is computed from that value and it is stored. Store failures never fail
// Exec; the caller still gets the value. The found result reports whether
// the value came from the store.
func Exec[T any](ctx context.Context, s *Store, config ExecConfig[T], invoke Invoker[T]) (value T, found bool, err error) {
	if !config.Force {
		if val, ok := GetValue[T](ctx, s, config.Key); ok {
			s.logger.Trace("hit %s", config.Key)
			return val, true, nil
		}
	}
	result, err := invoke(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if config.TTL != nil {
		s.Set(ctx, config.Key, result, config.TTL(result))
	}
	return result, false, nil
}
