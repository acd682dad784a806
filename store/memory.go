package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/timeseries"
)

// Memory is a size-bounded LRU of forecast tables. With a backing store it
// acts as a write-through, read-through cache in front of it.
type Memory struct {
	cache   *lru.Cache[Key, *timeseries.Frame]
	backing Store
}

// NewMemory creates an LRU holding up to size tables. backing may be nil.
func NewMemory(size int, backing Store) (*Memory, error) {
	cache, err := lru.New[Key, *timeseries.Frame](size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: cache, backing: backing}, nil
}

func (m *Memory) Put(ctx context.Context, city string, model compare.Model, f *timeseries.Frame) error {
	if m.backing != nil {
		if err := m.backing.Put(ctx, city, model, f); err != nil {
			return err
		}
	}
	m.cache.Add(Key{City: city, Model: model}, f)
	return nil
}

func (m *Memory) Get(ctx context.Context, city string, model compare.Model) (*timeseries.Frame, error) {
	key := Key{City: city, Model: model}
	if f, ok := m.cache.Get(key); ok {
		return f, nil
	}
	if m.backing == nil {
		return nil, notFound(key)
	}
	f, err := m.backing.Get(ctx, city, model)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, f)
	return f, nil
}

func (m *Memory) Delete(ctx context.Context, city string, model compare.Model) error {
	m.cache.Remove(Key{City: city, Model: model})
	if m.backing != nil {
		return m.backing.Delete(ctx, city, model)
	}
	return nil
}

// Len is the number of cached tables.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Purge drops every cached table. The backing store is untouched.
func (m *Memory) Purge() {
	m.cache.Purge()
}
