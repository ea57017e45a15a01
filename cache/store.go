package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/agentuity/hoopstats/logger"
	"github.com/cockroachdb/errors"
)

// Store is a TTL key-value store layered over an Area. Every key is written
// under the configured prefix as an encoded Entry. Writes are best effort:
// failures are logged and never reach the caller. Expiry is checked lazily
// when an entry is read.
type Store struct {
	area      Area
	cfg       config
	logger    logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
}

// NewStore attaches a Store to area. The Store owns the area from then on and
// closes it in Close.
func NewStore(parent context.Context, area Area, opts ...Option) *Store {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	s := &Store{
		area:   area,
		cfg:    cfg,
		logger: cfg.logger.WithPrefix("[cache]"),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.sweep > 0 {
		s.waitGroup.Add(1)
		go s.run()
	}
	return s
}

// Prefix returns the namespace prepended to every key.
func (s *Store) Prefix() string {
	return s.cfg.prefix
}

func (s *Store) key(key string) string {
	return s.cfg.prefix + key
}

// Set stores value under key until now+ttl. A ttl <= 0 cannot produce a
// future expiry, so nothing is written and any previous entry is removed.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		if err := s.area.RemoveItem(ctx, s.key(key)); err != nil {
			s.logger.Warn("error removing %s: %s", key, err)
		}
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("error encoding value for %s: %s", key, err)
		return
	}
	entry := Entry{Value: raw, Expiry: s.cfg.now().Add(ttl).UnixMilli()}
	data, err := s.cfg.codec.Encode(entry)
	if err != nil {
		s.logger.Error("error encoding entry for %s: %s", key, err)
		return
	}
	if err := s.area.SetItem(ctx, s.key(key), data); err != nil {
		s.logger.Error("error setting cache %s: %s", key, err)
		return
	}
	s.logger.Trace("set %s (ttl %s)", key, ttl)
}

// Entry returns the stored entry for key if it has not expired. An expired
// entry is removed. Absent and unreadable entries are a miss.
func (s *Store) Entry(ctx context.Context, key string) (Entry, bool) {
	data, found, err := s.area.GetItem(ctx, s.key(key))
	if err != nil {
		s.logger.Error("error getting cache %s: %s", key, err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}
	entry, err := s.cfg.codec.Decode(data)
	if err != nil {
		s.logger.Error("error reading cache %s: %s", key, err)
		return Entry{}, false
	}
	if entry.Expired(s.cfg.now()) {
		if err := s.area.RemoveItem(ctx, s.key(key)); err != nil {
			s.logger.Warn("error removing expired %s: %s", key, err)
		}
		s.logger.Trace("expired %s", key)
		return Entry{}, false
	}
	return entry, true
}

// Get returns the JSON encoded value stored under key if it has not expired.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	entry, ok := s.Entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// GetValue retrieves a typed value from the store. A value that does not
// decode into T is a miss.
func GetValue[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var result T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return result, false
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Error("error decoding cache %s: %s", key, err)
		var zero T
		return zero, false
	}
	return result, true
}

// Clear removes the given keys. Without keys it removes every key under the
// store's prefix and leaves the rest of the area alone.
func (s *Store) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		all, err := s.area.Keys(ctx, s.cfg.prefix)
		if err != nil {
			return errors.Wrap(err, "listing cache keys")
		}
		for _, k := range all {
			if err := s.area.RemoveItem(ctx, k); err != nil {
				return errors.Wrapf(err, "clearing %s", k)
			}
		}
		s.logger.Debug("cleared %d entries", len(all))
		return nil
	}
	for _, k := range keys {
		if err := s.area.RemoveItem(ctx, s.key(k)); err != nil {
			return errors.Wrapf(err, "clearing %s", k)
		}
	}
	return nil
}

// Keys lists the stored keys without the prefix, expired ones included.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	all, err := s.area.Keys(ctx, s.cfg.prefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing cache keys")
	}
	keys := make([]string, len(all))
	for i, k := range all {
		keys[i] = k[len(s.cfg.prefix):]
	}
	return keys, nil
}

// Sweep removes every expired entry under the prefix and returns how many
// were removed. Entries that cannot be decoded are left for Get to report.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	all, err := s.area.Keys(ctx, s.cfg.prefix)
	if err != nil {
		return 0, errors.Wrap(err, "listing cache keys")
	}
	now := s.cfg.now()
	var removed int
	for _, k := range all {
		data, found, err := s.area.GetItem(ctx, k)
		if err != nil {
			return removed, errors.Wrapf(err, "reading %s", k)
		}
		if !found {
			continue
		}
		entry, err := s.cfg.codec.Decode(data)
		if err != nil || !entry.Expired(now) {
			continue
		}
		if err := s.area.RemoveItem(ctx, k); err != nil {
			return removed, errors.Wrapf(err, "removing %s", k)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(s.ctx)
			if err != nil {
				if s.ctx.Err() == nil {
					s.logger.Warn("sweep failed: %s", err)
				}
				continue
			}
			if n > 0 {
				s.logger.Debug("sweep removed %d expired entries", n)
			}
		}
	}
}

// Close stops the sweep and closes the underlying area.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
		err = s.area.Close()
	})
	return err
}
