package rbac

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/buildhive/buildhive/pkg/metrics"
)

// Cache defaults.
const (
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 4096
)

// CacheConfig tunes the resolved-permission cache.
type CacheConfig struct {
	// TTL bounds how long a resolved entry may be served without consulting
	// the stores. Entries expire by time in addition to explicit
	// invalidation.
	TTL time.Duration
	// Size caps the number of cached (user, tenant) pairs; least recently
	// used entries are evicted beyond it.
	Size int
}

// Cache wraps a Resolver with a time-bounded, size-bounded cache keyed by
// (user, tenant). Instances are injectable so tests can construct isolated
// caches; there is no package-level cache state.
type Cache struct {
	resolver *Resolver
	entries  *expirable.LRU[string, *UserPermissions]
}

// NewCache constructs a Cache over the supplied resolver.
func NewCache(resolver *Resolver, cfg CacheConfig) (*Cache, error) {
	if resolver == nil {
		return nil, errors.New("rbac cache: resolver is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultCacheSize
	}

	return &Cache{
		resolver: resolver,
		entries:  expirable.NewLRU[string, *UserPermissions](cfg.Size, nil, cfg.TTL),
	}, nil
}

// Get returns the resolved permissions for the pair, consulting the stores
// only on a miss. Two concurrent misses may both resolve and repopulate the
// same key; both compute from the same store state, so last writer wins.
func (c *Cache) Get(ctx context.Context, userID, tenantID string) (*UserPermissions, error) {
	key := cacheKey(userID, tenantID)

	if cached, ok := c.entries.Get(key); ok {
		metrics.PermissionCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.PermissionCacheLookups.WithLabelValues("miss").Inc()

	resolved, err := c.resolver.Resolve(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, resolved)
	return resolved, nil
}

// InvalidateUser drops every tenant entry for the user. Called after
// assignment mutations; the store write completes before invalidation so a
// read that follows the mutation never sees pre-mutation data.
func (c *Cache) InvalidateUser(userID string) {
	prefix := userID + ":"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

// InvalidateAll clears the cache. Used when role contents change, since any
// number of users may hold the role.
func (c *Cache) InvalidateAll() {
	c.entries.Purge()
}

func cacheKey(userID, tenantID string) string {
	return userID + ":" + tenantID
}
