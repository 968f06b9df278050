package project

import (
	"context"
	"fmt"
	"sync"
)

// Cache serves project snapshots to page handlers. Each identifier gets
// its own Loader, so concurrent requests for the same project share one
// backend fetch, and loaded snapshots are reused until invalidated.
type Cache struct {
	mu      sync.Mutex
	store   Store
	record  func(outcome string)
	loaders map[string]*Loader
	closed  bool
}

// NewCache creates an empty cache over the store.
func NewCache(store Store, record func(outcome string)) *Cache {
	return &Cache{
		store:   store,
		record:  record,
		loaders: make(map[string]*Loader),
	}
}

// Get returns the project for id, fetching it if the cached snapshot is
// absent, stale, or failed. Absence is ErrNotFound. The context bounds the
// wait, not the fetch itself; an abandoned request leaves the fetch to
// settle for the next caller.
func (c *Cache) Get(ctx context.Context, id string) (*Project, error) {
	l, err := c.loader(id)
	if err != nil {
		return nil, err
	}

	snap := l.Snapshot()
	if snap.ID == id && !snap.Stale {
		switch snap.State {
		case StateLoaded:
			return snap.Project, nil
		case StateNotFound:
			return nil, ErrNotFound
		}
	}

	settled := l.Load(id)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-settled:
	}

	snap = l.Snapshot()
	switch snap.State {
	case StateLoaded:
		return snap.Project, nil
	case StateNotFound:
		return nil, ErrNotFound
	case StateFailed:
		return nil, snap.Err
	default:
		return nil, fmt.Errorf("project %s: load superseded", id)
	}
}

// Invalidate marks the snapshot for id stale.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	l, ok := c.loaders[id]
	c.mu.Unlock()
	if ok {
		l.Invalidate(id)
	}
}

// Close shuts down all loaders.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, l := range c.loaders {
		l.Close()
	}
	c.loaders = make(map[string]*Loader)
}

func (c *Cache) loader(id string) (*Loader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("project cache closed")
	}
	l, ok := c.loaders[id]
	if !ok {
		l = NewLoader(c.store, c.record)
		c.loaders[id] = l
	}
	return l, nil
}
