// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package client

import (
	"container/list"
	"sync"

	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/store"
)

// entry is a handle every request type's generic constructor boxes into the
// cache: the request type name lets the client detect a path reused with a
// differing request type, and closer lets the cache Close an evicted store
// without knowing its concrete V/E.
type entry struct {
	path        opath.Path
	requestType string
	closer      store.AnyStore
	element     *list.Element
}

// CacheStats mirrors the observability surface of the teacher's in-memory
// cache: a snapshot of pool occupancy and eviction activity.
type CacheStats struct {
	Size      int
	MaxSize   int
	Evictions int64
}

// StoreCache is the pluggable store pool behind a Client, per §9's "abstract
// behind a trait; a default in-memory map with no eviction is acceptable as
// a baseline". Implementations must be safe for concurrent use.
type StoreCache interface {
	// Get returns the cached entry for key, if any.
	Get(key string) (entry, bool)
	// Put inserts or replaces the entry for key, evicting under memory
	// pressure per the implementation's own policy. Returns any entries
	// evicted as a result, for the caller to Close (Put itself must not
	// call back into store.Close while holding its own lock).
	Put(key string, e entry) []entry
	// Delete removes the entry for key, if present, without closing it;
	// callers are responsible for calling Close on what Delete returns.
	Delete(key string) (entry, bool)
	// Range calls fn for every cached entry in unspecified order. fn
	// returning false stops iteration early.
	Range(fn func(key string, e entry) bool)
	// Clear removes and returns every cached entry, for the caller to
	// close.
	Clear() []entry
	// Stats reports the cache's current occupancy and eviction count.
	Stats() CacheStats
}

// memoryCache is the default StoreCache: an LRU map with an optional
// MaxSize, generalized from the teacher's cache.MemoryCache (string-keyed
// arbitrary values with TTL) to opath.Path-keyed store handles with no TTL —
// a store's liveness is governed by subscribers and in-flight tasks, not a
// clock.
type memoryCache struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[string]entry
	lru       *list.List
	evictions int64
}

// newMemoryCache constructs a memoryCache. maxSize <= 0 means unbounded.
func newMemoryCache(maxSize int) *memoryCache {
	return &memoryCache{
		maxSize: maxSize,
		entries: make(map[string]entry),
		lru:     list.New(),
	}
}

func (c *memoryCache) Get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		c.lru.MoveToFront(e.element)
	}
	return e, ok
}

func (c *memoryCache) Put(key string, e entry) []entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.lru.Remove(existing.element)
	}

	e.element = c.lru.PushFront(key)
	c.entries[key] = e

	var evicted []entry
	if c.maxSize > 0 {
		for len(c.entries) > c.maxSize {
			evicted = append(evicted, c.evictOldest())
		}
	}
	return evicted
}

// evictOldest removes and returns the least-recently-used entry. Must be
// called with mu held; does not close the evicted store itself, since
// closing while holding the lock could deadlock a Close that dispatches
// subscriber callbacks — the caller closes it once mu is released.
func (c *memoryCache) evictOldest() entry {
	back := c.lru.Back()
	if back == nil {
		return entry{}
	}
	key := back.Value.(string)
	evicted := c.entries[key]
	c.lru.Remove(back)
	delete(c.entries, key)
	c.evictions++
	return evicted
}

func (c *memoryCache) Delete(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	c.lru.Remove(e.element)
	delete(c.entries, key)
	return e, true
}

func (c *memoryCache) Range(fn func(key string, e entry) bool) {
	c.mu.Lock()
	snapshot := make(map[string]entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.Unlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

func (c *memoryCache) Clear() []entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.entries = make(map[string]entry)
	c.lru = list.New()
	return out
}

func (c *memoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: len(c.entries), MaxSize: c.maxSize, Evictions: c.evictions}
}
