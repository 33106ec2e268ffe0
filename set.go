// Write planner (§4.4): insert/update path and the compression decision.
package column

import "fmt"

// WritePlan is the column's single mutation entry point. value == nil
// means delete; a non-nil value (including an empty slice) is an
// insert or update. Insert/update always runs under the writer's
// upgradable-read section; delete has its own (writeDelete acquires it
// itself, in delete.go).
func (c *Column) WritePlan(w LogWriter, overlays LogOverlays, key Key, value []byte) (PlanResult, error) {
	if c.closed.Load() {
		return Skipped, ErrClosed
	}
	if value == nil {
		return c.writeDelete(w, overlays, key)
	}

	c.wlock()
	defer c.wunlock()

	result, err := c.writeInsertOrUpdate(w, overlays, key, value)
	if err != nil {
		return Skipped, err
	}
	if result != NeedReindex {
		return result, nil
	}

	if err := c.triggerReindex(); err != nil {
		return Skipped, err
	}
	// Retry once against the doubled current index. The retry's own
	// result is discarded: the outer call always reports NeedReindex so
	// the commit layer schedules drain work, per the documented
	// intentional behaviour around this retry (§9).
	if _, err := c.writeInsertOrUpdate(w, overlays, key, value); err != nil {
		return Skipped, err
	}
	return NeedReindex, nil
}

func (c *Column) writeInsertOrUpdate(w LogWriter, overlays LogOverlays, key Key, value []byte) (PlanResult, error) {
	idx, subIndex, tierE, addrE, found, err := c.searchAllIndexes(key, overlays)
	if err != nil {
		return Skipped, err
	}
	if found {
		return c.applyUpdate(w, idx, subIndex, tierE, addrE, key, value)
	}
	return c.applyInsertNew(w, key, value)
}

func (c *Column) applyUpdate(w LogWriter, idx IndexTable, subIndex uint32, tierE ValueTier, addrE Address, key Key, value []byte) (PlanResult, error) {
	_, offsetE := addrE.Decode()

	if c.opts.RefCounted {
		if err := c.values[tierE].WriteIncRefPlan(w, offsetE); err != nil {
			return Skipped, fmt.Errorf("column: write plan inc-ref: %w", err)
		}
		c.recordInserted()
		return Written, nil
	}

	if c.opts.Preimage {
		return Skipped, nil
	}

	payload, compressed, tierTarget := c.compressInternal(value)

	if tierTarget == tierE {
		newOffset, err := c.values[tierE].WriteReplacePlan(w, offsetE, key, payload, compressed)
		if err != nil {
			return Skipped, fmt.Errorf("column: write plan replace: %w", err)
		}
		newAddr := addrE
		if newOffset != offsetE {
			newAddr = NewAddress(tierE, newOffset)
			si := subIndex
			if _, err := idx.WriteInsertPlan(w, key, newAddr, &si); err != nil {
				return Skipped, fmt.Errorf("column: write plan address update: %w", err)
			}
		}
		c.cacheStore(key, tierE, newAddr)
		c.recordInserted()
		return Written, nil
	}

	// Cross-tier move: the old slot is freed and a new one allocated in
	// tierTarget. The reinsert always targets the current index; it
	// reuses the matched probe slot only when the match itself came
	// from the current index (the probe chain stays the same length).
	// A match from an older index is left for reindex to sweep, and a
	// fresh probe step is appended to the current index instead (§4.4).
	if err := c.values[tierE].WriteRemovePlan(w, offsetE); err != nil {
		return Skipped, fmt.Errorf("column: write plan remove: %w", err)
	}
	newOffset, err := c.values[tierTarget].WriteInsertPlan(w, key, payload, compressed)
	if err != nil {
		return Skipped, fmt.Errorf("column: write plan insert: %w", err)
	}
	newAddr := NewAddress(tierTarget, newOffset)

	var reuse *uint32
	if idx == c.current {
		si := subIndex
		reuse = &si
	}
	result, err := c.current.WriteInsertPlan(w, key, newAddr, reuse)
	if err != nil {
		return Skipped, fmt.Errorf("column: write plan index insert: %w", err)
	}
	if result == NeedReindex {
		return NeedReindex, nil
	}

	c.cacheStore(key, tierTarget, newAddr)
	c.recordInserted()
	return Written, nil
}

func (c *Column) applyInsertNew(w LogWriter, key Key, value []byte) (PlanResult, error) {
	payload, compressed, tierTarget := c.compressInternal(value)

	offset, err := c.values[tierTarget].WriteInsertPlan(w, key, payload, compressed)
	if err != nil {
		return Skipped, fmt.Errorf("column: write plan insert: %w", err)
	}
	addr := NewAddress(tierTarget, offset)

	result, err := c.current.WriteInsertPlan(w, key, addr, nil)
	if err != nil {
		return Skipped, fmt.Errorf("column: write plan index insert: %w", err)
	}
	if result == NeedReindex {
		return NeedReindex, nil
	}

	c.cacheStore(key, tierTarget, addr)
	c.recordInserted()
	return Written, nil
}

// compressInternal implements the compression decision (§4.4): compress
// only past the configured threshold, and only keep the compressed
// bytes if they are strictly shorter than the original. The resulting
// length picks the smallest tier whose value_size accommodates it,
// falling back to the blob tier.
func (c *Column) compressInternal(value []byte) (payload []byte, compressed bool, tier ValueTier) {
	payload = value
	if uint32(len(value)) > c.opts.Compression.Threshold {
		if cb := compressBytes(c.opts.Compression.Kind, value); cb != nil && len(cb) < len(value) {
			payload = cb
			compressed = true
		}
	}
	return payload, compressed, c.tierFor(len(payload))
}

func (c *Column) tierFor(length int) ValueTier {
	for i, size := range c.opts.Sizes {
		if int(size) >= length {
			return ValueTier(i)
		}
	}
	return ValueTier(len(c.opts.Sizes))
}
