package cache

import (
	"context"
	"sort"
)

type compositeArea struct {
	areas []Area
}

var _ Area = (*compositeArea)(nil)

// NewCompositeArea returns an Area that chains multiple areas together, for
// example a memory tier in front of SQLite.
// GetItem checks areas in order and returns the first hit.
// SetItem and RemoveItem apply to every area.
// At least one area must be provided; panics if empty.
func NewCompositeArea(areas ...Area) Area {
	if len(areas) == 0 {
		panic("cache: NewCompositeArea requires at least one area")
	}
	return &compositeArea{areas: areas}
}

func (c *compositeArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	for _, area := range c.areas {
		val, found, err := area.GetItem(ctx, key)
		if err != nil {
			return "", false, err
		}
		if found {
			return val, true, nil
		}
	}
	return "", false, nil
}

func (c *compositeArea) SetItem(ctx context.Context, key string, val string) error {
	var firstErr error
	for _, area := range c.areas {
		if err := area.SetItem(ctx, key, val); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *compositeArea) RemoveItem(ctx context.Context, key string) error {
	var firstErr error
	for _, area := range c.areas {
		if err := area.RemoveItem(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *compositeArea) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	var keys []string
	for _, area := range c.areas {
		found, err := area.Keys(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *compositeArea) Close() error {
	var firstErr error
	for _, area := range c.areas {
		if err := area.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
