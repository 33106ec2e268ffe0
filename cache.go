// Probe-result cache for hot keys.
package column

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// probeResult is a resolved (tier, address) pair for a key, skipping
// the chunk probe chain entirely on a cache hit. Reindexing relocates
// a key's index entry but never its value-table address, so a cached
// entry stays valid across a reindex drain. An update overwrites the
// entry with the key's new location; a delete that removes the key's
// index entry drops it, and so does a lookup that finds the cached
// slot no longer holds the key.
type probeResult struct {
	tier    ValueTier
	address Address
}

func newProbeCache(size int) *lru.Cache[Key, probeResult] {
	if size <= 0 {
		return nil
	}
	c, _ := lru.New[Key, probeResult](size)
	return c
}

func (c *Column) cacheLookup(key Key) (probeResult, bool) {
	if c.cache == nil {
		return probeResult{}, false
	}
	return c.cache.Get(key)
}

func (c *Column) cacheStore(key Key, tier ValueTier, addr Address) {
	if c.cache == nil {
		return
	}
	c.cache.Add(key, probeResult{tier: tier, address: addr})
}

func (c *Column) cacheInvalidate(key Key) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(key)
}
