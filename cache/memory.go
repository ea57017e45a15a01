package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryArea struct {
	items  map[string]string
	size   int
	quota  int
	closed bool
	mutex  sync.Mutex
}

var _ Area = (*memoryArea)(nil)

// NewMemoryArea returns an Area held in process memory. It lives as long as
// the process, which makes it the session scoped area.
func NewMemoryArea(opts ...Option) Area {
	cfg := applyOptions(opts)
	return &memoryArea{
		items: make(map[string]string),
		quota: cfg.quota,
	}
}

func (a *memoryArea) GetItem(_ context.Context, key string) (string, bool, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.closed {
		return "", false, ErrClosed
	}
	val, ok := a.items[key]
	return val, ok, nil
}

func (a *memoryArea) SetItem(_ context.Context, key string, val string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.closed {
		return ErrClosed
	}
	size := a.size + len(key) + len(val)
	if old, ok := a.items[key]; ok {
		size -= len(key) + len(old)
	}
	if a.quota > 0 && size > a.quota {
		return ErrQuotaExceeded
	}
	a.items[key] = val
	a.size = size
	return nil
}

func (a *memoryArea) RemoveItem(_ context.Context, key string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.closed {
		return ErrClosed
	}
	if old, ok := a.items[key]; ok {
		a.size -= len(key) + len(old)
		delete(a.items, key)
	}
	return nil
}

func (a *memoryArea) Keys(_ context.Context, prefix string) ([]string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(a.items))
	for k := range a.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *memoryArea) Close() error {
	a.mutex.Lock()
	a.closed = true
	a.items = nil
	a.size = 0
	a.mutex.Unlock()
	return nil
}
