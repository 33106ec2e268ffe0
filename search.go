// Lookup and probe (§4.3).
//
// probeChain walks one index table's linear probe sequence, confirming
// each candidate against the owning value table's stored key suffix and
// consulting log overlays first, for the writer's read-your-writes view
// of the active commit frame. searchIndex is the same walk under the
// name the facade's operations use; searchAllIndexes
// extends that across the current index and every queued historical
// index, current first.
package column

// probeChain walks idx's probe chain for key starting at sub_index 0,
// consulting overlays (if non-nil) before trusting an on-disk entry.
// Terminates on an empty entry.
func (c *Column) probeChain(idx IndexTable, key Key, overlays LogOverlays) (subIndex uint32, tier ValueTier, addr Address, found bool, err error) {
	var si uint32
	for {
		if overlays != nil {
			if a, ok := overlays.HasKeyAt(idx.ID(), key, si); ok {
				t, _ := a.Decode()
				return si, t, a, true, nil
			}
		}

		entry, next, gerr := idx.Get(key, si)
		if gerr != nil {
			return 0, 0, 0, false, gerr
		}
		if entry.Empty {
			return 0, 0, 0, false, nil
		}

		t, offset := entry.Address.Decode()
		_, _, _, ok, gerr := c.values[t].Get(offset, key)
		if gerr != nil {
			return 0, 0, 0, false, gerr
		}
		if ok {
			return si, t, entry.Address, true, nil
		}
		si = next
	}
}

// searchIndex is the confirming variant used by the writer, exposed as
// its own name to match the operations this facade is built around
// (§4.3); it calls probeChain unchanged, which already consults
// overlays.
func (c *Column) searchIndex(idx IndexTable, key Key, overlays LogOverlays) (subIndex uint32, tier ValueTier, addr Address, found bool, err error) {
	return c.probeChain(idx, key, overlays)
}

// searchAllIndexes probes the current index, then each reindex-queue
// index in order, returning the first confirmed hit along with the
// index it came from (the writer needs this to know where to remove or
// reuse a probe slot).
func (c *Column) searchAllIndexes(key Key, overlays LogOverlays) (idx IndexTable, subIndex uint32, tier ValueTier, addr Address, found bool, err error) {
	si, t, a, ok, err := c.searchIndex(c.current, key, overlays)
	if err != nil {
		return nil, 0, 0, 0, false, err
	}
	if ok {
		return c.current, si, t, a, true, nil
	}

	// TODO: an older index whose chunks lie entirely before
	// reindex.progress has already been migrated and could be skipped;
	// re-probing it is wasteful but not incorrect (§9 open question).
	for _, q := range c.queue {
		si, t, a, ok, err := c.searchIndex(q, key, overlays)
		if err != nil {
			return nil, 0, 0, 0, false, err
		}
		if ok {
			return q, si, t, a, true, nil
		}
	}
	return nil, 0, 0, 0, false, nil
}
