// Existence probe (§4.1): confirms a key is live without paying for
// payload decompression.
package column

// Exists reports whether key currently resolves to a live entry,
// consulting overlays the same way Get does. It is cheaper than Get
// when the caller only needs a presence check: the value table is
// still consulted (an index hit alone isn't proof of liveness, since a
// chunk slot can reference a since-removed record awaiting reindex),
// but the payload is never decompressed.
func (c *Column) Exists(key Key, overlays LogOverlays) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	c.rlock()
	defer c.runlock()

	if cached, ok := c.cacheLookup(key); ok {
		_, offset := cached.address.Decode()
		_, _, _, found, err := c.values[cached.tier].Get(offset, key)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		c.cacheInvalidate(key)
	}

	_, _, tier, addr, found, err := c.searchAllIndexes(key, overlays)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	_, offset := addr.Decode()
	_, _, _, ok, err := c.values[tier].Get(offset, key)
	if err != nil {
		return false, err
	}
	if ok {
		c.cacheStore(key, tier, addr)
	}
	return ok, nil
}
