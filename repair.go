// Two-phase log protocol follow-ups (§4.4 tail, §4.1): validate_plan,
// enact_plan, complete_plan, refresh_metadata.
package column

import "fmt"

// ValidatePlan replays action against an upgradable view ahead of
// enact. An InsertIndex/RemoveIndex referencing a table this column
// doesn't currently have open is treated as a reindex event lost across
// a crash: trigger a reindex now (recreating the expected index file)
// and check again before giving up.
func (c *Column) ValidatePlan(action LogAction) error {
	switch action.Kind {
	case ActionInsertIndex, ActionRemoveIndex:
		if c.hasTable(action.Table) {
			return nil
		}
		c.wlock()
		err := c.triggerReindex()
		c.wunlock()
		if err != nil {
			return fmt.Errorf("column: validate plan: %w", err)
		}
		if !c.hasTable(action.Table) {
			return fmt.Errorf("column: validate plan: %w", ErrTableMissing)
		}
		return nil
	case ActionInsertValue, ActionReplaceValue, ActionRemoveValue, ActionIncRefValue, ActionDecRefValue:
		if int(action.Tier) < 0 || int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: validate plan: %w", ErrTableMissing)
		}
		return nil
	default:
		return fmt.Errorf("column: validate plan: %w", ErrUnknownLogAction)
	}
}

func (c *Column) hasTable(id TableID) bool {
	c.rlock()
	defer c.runlock()
	if c.current.ID() == id {
		return true
	}
	for _, q := range c.queue {
		if q.ID() == id {
			return true
		}
	}
	return false
}

func (c *Column) tableByID(id TableID) (IndexTable, bool) {
	c.rlock()
	defer c.runlock()
	if c.current.ID() == id {
		return c.current, true
	}
	for _, q := range c.queue {
		if q.ID() == id {
			return q, true
		}
	}
	return nil, false
}

// EnactPlan applies action to the matching table's page cache. A
// missing index is a corruption error: ValidatePlan must have run
// first and either confirmed the table or reconstructed it.
func (c *Column) EnactPlan(action LogAction) error {
	switch action.Kind {
	case ActionInsertIndex:
		tbl, ok := c.tableByID(action.Table)
		if !ok {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		_, err := tbl.WriteInsertPlan(nil, action.Key, action.Address, action.SubIndex)
		return err
	case ActionRemoveIndex:
		tbl, ok := c.tableByID(action.Table)
		if !ok {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		if action.SubIndex == nil {
			return fmt.Errorf("column: enact plan: %w", ErrCorruptEntry)
		}
		return tbl.WriteRemovePlan(nil, action.Key, *action.SubIndex)
	case ActionInsertValue:
		if int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		return c.values[action.Tier].WriteInsertAt(action.Offset, action.Key, action.Payload, action.Compressed)
	case ActionReplaceValue:
		if int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		_, err := c.values[action.Tier].WriteReplacePlan(nil, action.Offset, action.Key, action.Payload, action.Compressed)
		return err
	case ActionRemoveValue:
		if int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		return c.values[action.Tier].WriteRemovePlan(nil, action.Offset)
	case ActionIncRefValue:
		if int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		return c.values[action.Tier].WriteIncRefPlan(nil, action.Offset)
	case ActionDecRefValue:
		if int(action.Tier) >= len(c.values) {
			return fmt.Errorf("column: enact plan: %w", ErrTableMissing)
		}
		_, err := c.values[action.Tier].WriteDecRefPlan(nil, action.Offset)
		return err
	default:
		return fmt.Errorf("column: enact plan: %w", ErrUnknownLogAction)
	}
}

// CompletePlan is invoked once the owning log segment is durable: it
// commits every value table's durability marker and the stats
// snapshot into the current index's header.
func (c *Column) CompletePlan(w LogWriter) error {
	c.rlock()
	defer c.runlock()

	for _, v := range c.values {
		if err := v.CompletePlan(w); err != nil {
			return fmt.Errorf("column: complete plan: %w", err)
		}
	}
	c.current.SetStats(c.snapshotStats())
	return c.current.Flush()
}

// RefreshMetadata re-reads on-disk headers for every value table,
// used after crash recovery.
func (c *Column) RefreshMetadata() error {
	c.rlock()
	defer c.runlock()

	for _, v := range c.values {
		if err := v.RefreshMetadata(); err != nil {
			return fmt.Errorf("column: refresh metadata: %w", err)
		}
	}
	return nil
}
