package lightatlas

import (
	"sync"
	"sync/atomic"
)

// ShadowMapKey identifies a standalone shadow map by its light and
// resolution. A light that changes shadow resolution gets a fresh
// texture under a new key; the old one ages out.
type ShadowMapKey struct {
	LightID    uint64
	Resolution int
}

// shadowMapEntry holds a cached texture with its access time.
type shadowMapEntry struct {
	tex   Texture
	atime int64 // Access time (tick value)
}

// ShadowMapCache is a bounded cache of standalone per-light shadow map
// textures. When the cache exceeds its soft limit, the least recently
// used unpinned entries are evicted and their textures destroyed.
// Pinned textures (Pin/Unpin) are exempt from eviction, Clear, and
// Delete; the shadow atlas pins its shared texture here so shadow map
// housekeeping can never collect it.
//
// Ownership: the cache owns every unpinned texture it holds and
// destroys it on eviction. Pinned textures stay owned by whoever
// pinned them.
//
// ShadowMapCache is safe for concurrent use.
// ShadowMapCache must not be copied after creation (has mutex).
type ShadowMapCache struct {
	mu        sync.Mutex
	entries   map[ShadowMapKey]*shadowMapEntry
	pinned    map[Texture]struct{}
	softLimit int
	tick      int64 // Monotonic access counter

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewShadowMapCache creates a cache with the given soft limit.
// A softLimit of 0 means unlimited.
func NewShadowMapCache(softLimit int) *ShadowMapCache {
	return &ShadowMapCache{
		entries:   make(map[ShadowMapKey]*shadowMapEntry),
		pinned:    make(map[Texture]struct{}),
		softLimit: softLimit,
	}
}

// Get retrieves a cached shadow map.
// Returns (texture, true) if found, (nil, false) otherwise.
func (c *ShadowMapCache) Get(key ShadowMapKey) (Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.tick++
	entry.atime = c.tick
	c.hits.Add(1)
	return entry.tex, true
}

// GetOrCreate returns the cached shadow map for key, creating it
// through create on a miss. create runs under the cache lock, so
// concurrent lookups of the same key create exactly once. A create
// error is returned as-is and nothing is cached.
func (c *ShadowMapCache) GetOrCreate(key ShadowMapKey, create func() (Texture, error)) (Texture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.tick++
		entry.atime = c.tick
		c.hits.Add(1)
		return entry.tex, nil
	}

	c.misses.Add(1)
	tex, err := create()
	if err != nil {
		return nil, err
	}

	c.tick++
	c.entries[key] = &shadowMapEntry{tex: tex, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
	return tex, nil
}

// Delete removes an entry and destroys its texture unless pinned.
// Returns true if the entry was found and removed.
func (c *ShadowMapCache) Delete(key ShadowMapKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	if _, isPinned := c.pinned[entry.tex]; !isPinned {
		entry.tex.Destroy()
	}
	return true
}

// Pin exempts a texture from eviction and destruction. Pinning a
// texture the cache does not hold is allowed; it guards against the
// texture being cached later.
func (c *ShadowMapCache) Pin(tex Texture) {
	if tex == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned[tex] = struct{}{}
}

// Unpin removes the eviction exemption. The texture becomes owned by
// the cache again if it is still cached.
func (c *ShadowMapCache) Unpin(tex Texture) {
	if tex == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pinned, tex)
}

// Clear removes all entries, destroying every unpinned texture.
func (c *ShadowMapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if _, isPinned := c.pinned[entry.tex]; !isPinned {
			entry.tex.Destroy()
		}
	}
	c.entries = make(map[ShadowMapKey]*shadowMapEntry)
	c.tick = 0
}

// Len returns the number of entries in the cache.
func (c *ShadowMapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the soft limit of the cache.
func (c *ShadowMapCache) Capacity() int {
	return c.softLimit
}

// ShadowMapCacheStats contains cache statistics.
type ShadowMapCacheStats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the soft limit.
	Capacity int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of destroyed entries.
	Evictions uint64
}

// Stats returns cache statistics.
func (c *ShadowMapCache) Stats() ShadowMapCacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()

	return ShadowMapCacheStats{
		Len:       n,
		Capacity:  c.softLimit,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// evictOldest destroys unpinned entries, oldest first, until the cache
// is at 3/4 of its soft limit. Pinned entries are skipped and may keep
// the cache above the limit; the limit is soft.
// Caller must hold c.mu.
func (c *ShadowMapCache) evictOldest() {
	targetSize := c.softLimit * 3 / 4
	if targetSize < 1 {
		targetSize = 1
	}

	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return
	}

	// Collect evictable entries with their access times.
	type candidate struct {
		key   ShadowMapKey
		atime int64
	}
	candidates := make([]candidate, 0, len(c.entries))
	for key, e := range c.entries {
		if _, isPinned := c.pinned[e.tex]; isPinned {
			continue
		}
		candidates = append(candidates, candidate{key: key, atime: e.atime})
	}

	// Selection sort for eviction - good enough for small batches.
	for i := 0; i < toEvict && i < len(candidates); i++ {
		minIdx := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].atime < candidates[minIdx].atime {
				minIdx = j
			}
		}
		if minIdx != i {
			candidates[i], candidates[minIdx] = candidates[minIdx], candidates[i]
		}
		entry := c.entries[candidates[i].key]
		delete(c.entries, candidates[i].key)
		entry.tex.Destroy()
		c.evictions.Add(1)
	}
}
