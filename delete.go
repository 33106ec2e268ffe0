// Write planner (§4.4): delete path.
package column

import "fmt"

// writeDelete implements write_plan's delete path (value_opt = None):
// search every index, decrement or remove the value-table slot, and
// remove the index entry once nothing references it.
func (c *Column) writeDelete(w LogWriter, overlays LogOverlays, key Key) (PlanResult, error) {
	c.wlock()
	defer c.wunlock()

	idx, subIndex, tierE, addrE, found, err := c.searchAllIndexes(key, overlays)
	if err != nil {
		return Skipped, err
	}
	if !found {
		c.recordRemoveMiss()
		return Skipped, nil
	}

	_, offsetE := addrE.Decode()

	removeIndex := true
	if c.opts.RefCounted {
		newCount, err := c.values[tierE].WriteDecRefPlan(w, offsetE)
		if err != nil {
			return Skipped, fmt.Errorf("column: write delete dec-ref: %w", err)
		}
		removeIndex = newCount == 0
	} else {
		if err := c.values[tierE].WriteRemovePlan(w, offsetE); err != nil {
			return Skipped, fmt.Errorf("column: write delete remove: %w", err)
		}
	}

	if removeIndex {
		if err := idx.WriteRemovePlan(w, key, subIndex); err != nil {
			return Skipped, fmt.Errorf("column: write delete index remove: %w", err)
		}
		c.cacheInvalidate(key)
	}

	c.recordRemoved()
	return Written, nil
}
