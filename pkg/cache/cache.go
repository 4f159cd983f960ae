// Package cache provides content-addressed memoization for LLM extraction
// results. It layers an in-memory store in front of a durable SQLite store;
// both tiers expose the same get/put contract. A miss is always recoverable by
// recomputation, so durable-tier failures degrade to slower runs instead of
// errors.
package cache

import (
	"context"

	"github.com/conceptatlas/backend/pkg/logger"
)

// Domain separates the three independent cache namespaces.
type Domain string

const (
	// DomainEntities caches text -> extracted candidate concepts.
	DomainEntities Domain = "entities"
	// DomainComparisons caches (concept list, concept list) -> match mapping.
	DomainComparisons Domain = "comparisons"
	// DomainRelations caches (concept set, text) -> extracted relations.
	DomainRelations Domain = "relations"
)

// Store is the get/put contract shared by the cache tiers. Get returns
// (nil, false, nil) on a miss. Implementations must treat unreadable entries
// as misses rather than errors.
type Store interface {
	Get(ctx context.Context, domain Domain, key string) ([]byte, bool, error)
	Put(ctx context.Context, domain Domain, key string, value []byte) error
	Delete(ctx context.Context, domain Domain, key string) error
}

// Cache is the two-tier cache used by the extraction pipeline. The memory tier
// lives for the run; the durable tier survives restarts and is scoped to an
// explicit version tag so incompatible extraction-logic changes never collide
// with stale data.
type Cache struct {
	version string
	mem     *MemoryStore
	durable Store
}

// New creates a Cache with the given durable backing store. A nil durable
// store yields a memory-only cache, which is useful in tests.
func New(version string, durable Store) *Cache {
	return &Cache{
		version: version,
		mem:     NewMemoryStore(),
		durable: durable,
	}
}

// Version returns the active cache version tag.
func (c *Cache) Version() string {
	return c.version
}

// Get looks up a key, consulting the memory tier first and backfilling it on a
// durable-tier hit. A durable-tier read failure is logged and treated as a miss.
func (c *Cache) Get(ctx context.Context, domain Domain, key string) ([]byte, bool) {
	if value, ok, _ := c.mem.Get(ctx, domain, key); ok {
		return value, true
	}

	if c.durable == nil {
		return nil, false
	}

	value, ok, err := c.durable.Get(ctx, domain, key)
	if err != nil {
		logger.Warn("[Cache] Durable read failed, treating as miss", "domain", domain, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	_ = c.mem.Put(ctx, domain, key, value)
	return value, true
}

// Put writes a value to both tiers. A durable-tier write failure is logged but
// never propagated; the computed value remains usable by the caller.
func (c *Cache) Put(ctx context.Context, domain Domain, key string, value []byte) {
	_ = c.mem.Put(ctx, domain, key, value)

	if c.durable == nil {
		return
	}
	if err := c.durable.Put(ctx, domain, key, value); err != nil {
		logger.Warn("[Cache] Durable write failed", "domain", domain, "err", err)
	}
}

// Evict removes a key from both tiers. Used when a cached payload turns out to
// be corrupted.
func (c *Cache) Evict(ctx context.Context, domain Domain, key string) {
	_ = c.mem.Delete(ctx, domain, key)

	if c.durable == nil {
		return
	}
	if err := c.durable.Delete(ctx, domain, key); err != nil {
		logger.Warn("[Cache] Durable evict failed", "domain", domain, "err", err)
	}
}
