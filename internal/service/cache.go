package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/utils"
)

// CacheValue is what the coordinator stores per key: the fused result list
// plus the partial flag, so coalesced waiters and later hits see the same
// degraded-confidence signal the computing caller saw.
type CacheValue struct {
	Items   []model.FusedResult
	Partial bool
}

type cacheEntry struct {
	value     CacheValue
	createdAt time.Time
	expiresAt time.Time
}

// CacheCoordinator is the sole owner of cached fused results and of
// in-flight computation tracking. Only the key->entry map is guarded by
// the lock; compute functions run outside the critical section so one slow
// computation never blocks unrelated keys.
type CacheCoordinator struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	group    singleflight.Group
	capacity int

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewCacheCoordinator creates a cache coordinator with the given capacity.
func NewCacheCoordinator(capacity int) *CacheCoordinator {
	if capacity <= 0 {
		capacity = 1000
	}
	return &CacheCoordinator{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

// GetOrCompute returns the cached value for key when fresh, otherwise runs
// compute through a single flight: concurrent callers for the same key
// wait on one computation and all receive the same value or the same
// error. A failed computation writes no entry. Callers whose context is
// canceled while waiting are released with the context error; the
// computation itself keeps running for the remaining waiters.
func (c *CacheCoordinator) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (CacheValue, error),
) (CacheValue, bool, error) {
	if value, ok := c.lookup(key); ok {
		return value, true, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return CacheValue{}, err
		}
		c.store(key, value, ttl)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return CacheValue{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return CacheValue{}, false, res.Err
		}
		return res.Val.(CacheValue), false, nil
	}
}

// lookup serves a fresh entry; an expired one is evicted lazily and
// reported as a miss. Expiry is checked here, at read time, never only by
// a background sweep.
func (c *CacheCoordinator) lookup(key string) (CacheValue, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CacheValue{}, false
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent store may have
		// replaced the entry.
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return CacheValue{}, false
	}

	return entry.value, true
}

func (c *CacheCoordinator) store(key string, value CacheValue, ttl time.Duration) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.evictLocked(now)
	}

	c.entries[key] = &cacheEntry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// evictLocked drops expired entries, then the soonest-to-expire entry if
// the map is still at capacity. Must be called with the lock held.
func (c *CacheCoordinator) evictLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.capacity {
		return
	}

	var victim string
	var victimExpiry time.Time
	for key, entry := range c.entries {
		if victim == "" || entry.expiresAt.Before(victimExpiry) ||
			(entry.expiresAt.Equal(victimExpiry) && key < victim) {
			victim = key
			victimExpiry = entry.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

// Purge drops every entry whose key starts with prefix and returns the
// number dropped. Upstream data-reload jobs call this; keys embed the
// intent so a whole time-sensitive class can be purged at once.
func (c *CacheCoordinator) Purge(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

// Size returns the number of cached entries.
func (c *CacheCoordinator) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const cacheKeyVersion = "v1"

// BuildCacheKey computes a deterministic key from the normalized query
// text, the sorted constraints, the intent and the adapter set. Two
// semantically identical requests produce the same key regardless of
// incidental whitespace or casing differences. The intent rides outside
// the hash as a plain segment so Purge can target it by prefix.
func BuildCacheKey(intent model.Intent, queryText string, constraints *model.Constraints, sources []model.Source) string {
	parts := []string{utils.NormalizeText(queryText)}

	if constraints != nil {
		pairs := make([]string, 0, 7)
		if constraints.Location != nil {
			pairs = append(pairs, "location="+strings.ToLower(*constraints.Location))
		}
		if constraints.PropertyType != nil {
			pairs = append(pairs, "property_type="+strings.ToLower(*constraints.PropertyType))
		}
		if constraints.PriceMin != nil {
			pairs = append(pairs, fmt.Sprintf("price_min=%g", *constraints.PriceMin))
		}
		if constraints.PriceMax != nil {
			pairs = append(pairs, fmt.Sprintf("price_max=%g", *constraints.PriceMax))
		}
		if constraints.Bedrooms != nil {
			pairs = append(pairs, fmt.Sprintf("bedrooms=%d", *constraints.Bedrooms))
		}
		if constraints.Bathrooms != nil {
			pairs = append(pairs, fmt.Sprintf("bathrooms=%d", *constraints.Bathrooms))
		}
		if constraints.Residual != "" {
			pairs = append(pairs, "residual="+utils.NormalizeText(constraints.Residual))
		}
		sort.Strings(pairs)
		parts = append(parts, pairs...)
	}

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, string(s))
	}
	sort.Strings(names)
	parts = append(parts, "sources="+strings.Join(names, ","))

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return cacheKeyVersion + ":" + string(intent) + ":" + hex.EncodeToString(sum[:])
}
