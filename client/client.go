// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package client implements Client: a keyed pool of stores addressed by
// opath.Path, with prefix pattern matching, bulk operations, and
// memory-pressure eviction behind a pluggable StoreCache. The client owns
// the default context and default modifier policy every store it creates
// is seeded with.
package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/querykit/querykit/config"
	"github.com/querykit/querykit/observability/logging"
	"github.com/querykit/querykit/observability/metrics"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
	qkerrors "github.com/querykit/querykit/pkg/errors"
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/store"
)

// Client is a keyed pool of stores. Stores are created lazily on first
// access and shared by every caller addressing the same opath.Path; the
// pool evicts under memory pressure per its StoreCache, cancelling
// in-flight tasks and dropping state for anything evicted.
type Client struct {
	cache   StoreCache
	sf      singleflight.Group
	logger  logging.Logger
	metrics *metrics.StoreMetrics

	mu             sync.RWMutex
	defaultContext *opctx.Context
	policy         *config.PolicyConfig
}

// Option configures a Client at construction.
type Option func(*Client)

// WithPolicy seeds the client's default context from policy. Defaults to
// config.DefaultPolicy() if never set.
func WithPolicy(policy *config.PolicyConfig) Option {
	return func(c *Client) {
		c.policy = policy
		c.defaultContext = defaultContextFromPolicy(policy)
	}
}

// WithStoreCache replaces the client's store pool. Defaults to an unbounded
// in-memory map.
func WithStoreCache(cache StoreCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMaxStores bounds the default in-memory store cache's size, evicting
// the least-recently-accessed store once exceeded. It and WithStoreCache
// both replace the client's store cache, so whichever is given last wins.
func WithMaxStores(n int) Option {
	return func(c *Client) { c.cache = newMemoryCache(n) }
}

// WithLogger installs the logger misuse warnings are emitted through.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics installs the collector store-creation and eviction events are
// recorded through. Defaults to a NoopCollector so constructing a Client
// never forces a Prometheus dependency on a caller that doesn't want one.
func WithMetrics(collector metrics.Collector) Option {
	return func(c *Client) { c.metrics = metrics.NewStoreMetrics(collector) }
}

// New constructs a Client. With no options, it uses an unbounded in-memory
// store cache and a default context seeded from config.DefaultPolicy().
func New(opts ...Option) *Client {
	c := &Client{
		cache:          newMemoryCache(0),
		policy:         config.DefaultPolicy(),
		defaultContext: defaultContextFromPolicy(config.DefaultPolicy()),
		logger:         logging.NewStructuredLogger(logging.LevelInfo),
		metrics:        metrics.NewStoreMetrics(metrics.NewNoopCollector()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// recordStoreCount reports the pool's current occupancy as the
// MetricActiveStores gauge.
func (c *Client) recordStoreCount() {
	c.metrics.SetActiveStores(float64(c.cache.Stats().Size))
}

// DefaultContext returns the context every newly created store is seeded
// with.
func (c *Client) DefaultContext() *opctx.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultContext
}

// SetDefaultContext replaces the context future stores are seeded with.
// Stores already created are unaffected.
func (c *Client) SetDefaultContext(rc *opctx.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultContext = rc
}

// Policy returns the client's default modifier policy.
func (c *Client) Policy() *config.PolicyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// Store looks up the store cached at path, if any, without creating one.
func (c *Client) Store(path opath.Path) (store.AnyStore, bool) {
	e, ok := c.cache.Get(path.Key())
	if !ok {
		return nil, false
	}
	return e.closer, true
}

// StoresMatching returns every cached store whose path has prefix as a
// prefix, in unspecified order.
func (c *Client) StoresMatching(prefix opath.Path) []store.AnyStore {
	var out []store.AnyStore
	c.cache.Range(func(_ string, e entry) bool {
		if prefix.IsPrefixOf(e.path) {
			out = append(out, e.closer)
		}
		return true
	})
	return out
}

// ClearStore evicts and closes the store at path, if any.
func (c *Client) ClearStore(path opath.Path) {
	if e, ok := c.cache.Delete(path.Key()); ok {
		e.closer.Close()
		c.metrics.RecordCacheEviction(e.requestType)
		c.recordStoreCount()
	}
}

// ClearStores evicts and closes every cached store whose path has prefix as
// a prefix.
func (c *Client) ClearStores(prefix opath.Path) {
	var toClose []store.AnyStore
	c.cache.Range(func(key string, e entry) bool {
		if prefix.IsPrefixOf(e.path) {
			toClose = append(toClose, e.closer)
		}
		return true
	})
	for _, s := range toClose {
		c.ClearStore(s.Path())
	}
}

// Clear evicts and closes every cached store.
func (c *Client) Clear() {
	evicted := c.cache.Clear()
	for _, e := range evicted {
		e.closer.Close()
		c.metrics.RecordCacheEviction(e.requestType)
	}
	c.recordStoreCount()
}

// WithStores runs perform against every cached store whose path has prefix
// as a prefix, a scoped bulk-operation helper per §4.7's "bulk operations".
func (c *Client) WithStores(prefix opath.Path, perform func(store.AnyStore)) {
	for _, s := range c.StoresMatching(prefix) {
		perform(s)
	}
}

// Stats reports the client's store pool occupancy and eviction count.
func (c *Client) Stats() CacheStats {
	return c.cache.Stats()
}

// warnDuplicatePath logs the §7 misuse warning for a path reused with a
// differing request type, and returns the corresponding typed error.
func (c *Client) warnDuplicatePath(ctx context.Context, path opath.Path, existingType, requestedType string) error {
	c.logger.Warn(ctx, "store already exists for this path with a different request type",
		logging.String("path", path.Key()),
		logging.String("existing_type", existingType),
		logging.String("requested_type", requestedType),
	)
	return qkerrors.ErrDuplicatePathDifferentType
}

// resolve runs a singleflight-collapsed, cache-checked lookup for path,
// calling create to build a new entry.closer/entry.requestType pair on a
// cache miss. create must not itself touch c.cache.
func (c *Client) resolve(path opath.Path, requestType string, create func() (store.AnyStore, error)) (store.AnyStore, string, error) {
	key := path.Key()

	if e, ok := c.cache.Get(key); ok {
		return e.closer, e.requestType, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if e, ok := c.cache.Get(key); ok {
			return e, nil
		}
		s, err := create()
		if err != nil {
			return nil, err
		}
		e := entry{path: path, requestType: requestType, closer: s}
		evicted := c.cache.Put(key, e)
		for _, ev := range evicted {
			if ev.closer != nil {
				ev.closer.Close()
				c.metrics.RecordCacheEviction(ev.requestType)
			}
		}
		c.recordStoreCount()
		return e, nil
	})
	if err != nil {
		return nil, "", err
	}
	e := v.(entry)
	return e.closer, e.requestType, nil
}

const (
	typeQuery     = "query"
	typePaginated = "paginated"
	typeMutation  = "mutation"
)
