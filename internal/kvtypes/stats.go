package kvtypes

// ColumnStats are the in-memory counters persisted into the current
// index table's header. They are updated with plain atomic adds on the
// hot path (see column.Column) and snapshotted here for persistence or
// for a Prometheus collector to read.
type ColumnStats struct {
	QueryHit        [8]uint64 // indexed by tier, capped; overflow tiers fold into the last slot
	QueryMiss       uint64
	RemoveMiss      uint64
	Inserted        uint64
	Removed         uint64
	ReindexBatches  uint64
	ReindexMigrated uint64
}

// Add returns the element-wise sum of two snapshots. DropIndex does not
// call it: a dropped reindex-queue table's stats are not merged into
// the current table's header.
func (s ColumnStats) Add(other ColumnStats) ColumnStats {
	var out ColumnStats
	for i := range s.QueryHit {
		out.QueryHit[i] = s.QueryHit[i] + other.QueryHit[i]
	}
	out.QueryMiss = s.QueryMiss + other.QueryMiss
	out.RemoveMiss = s.RemoveMiss + other.RemoveMiss
	out.Inserted = s.Inserted + other.Inserted
	out.Removed = s.Removed + other.Removed
	out.ReindexBatches = s.ReindexBatches + other.ReindexBatches
	out.ReindexMigrated = s.ReindexMigrated + other.ReindexMigrated
	return out
}
