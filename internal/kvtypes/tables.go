package kvtypes

// IndexEntry is one probe-sequence slot as returned by IndexTable.Get.
type IndexEntry struct {
	Empty   bool
	Address Address
}

// ChunkEntry is one non-empty slot surfaced during a reindex drain
// batch (IndexTable.ReadChunkRange). The key as recorded in the chunk
// and its Address are carried, never the value, because the Address
// already locates the payload (§4.2).
type ChunkEntry struct {
	ChunkIndex uint64
	KeyPrefix  Key // full key as recorded in the chunk; see Column.Reindex
	Address    Address
}

// IndexTable is the chunked, on-disk hash table with linear probing
// within a chunk, described in spec §3/§4.2/§4.3. Out of scope for this
// module except as this interface (§1); internal/indextable provides
// the default on-disk implementation.
type IndexTable interface {
	ID() TableID
	Bits() uint8
	TotalChunks() uint64

	// Get returns the probe entry at or after subIndex, and the
	// subIndex to use for the next probe step if this one doesn't
	// match. An Empty entry terminates the chain.
	Get(key Key, subIndex uint32) (entry IndexEntry, nextSubIndex uint32, err error)

	// WriteInsertPlan stages an insert. subIndex == nil appends a new
	// probe step; a non-nil subIndex reuses that exact slot (a
	// replace-in-place). Returns NeedReindex if the chunk is full.
	WriteInsertPlan(w LogWriter, key Key, addr Address, subIndex *uint32) (PlanResult, error)

	// WriteRemovePlan stages removal of the probe entry at subIndex.
	WriteRemovePlan(w LogWriter, key Key, subIndex uint32) error

	// ReadChunkRange returns every non-empty entry in the count chunks
	// starting at chunk index start, used by the reindex drain step.
	ReadChunkRange(start, count uint64) ([]ChunkEntry, error)

	Stats() ColumnStats
	SetStats(ColumnStats)

	Flush() error
	Close() error
	// DropFile unlinks the backing file. Idempotent: dropping an
	// already-dropped table is a no-op.
	DropFile() error
}

// ValueTable is one fixed-slot, size-tiered value table (§3). Out of
// scope except as this interface; internal/valuetable provides the
// default on-disk implementation.
type ValueTable interface {
	Tier() ValueTier
	ValueSize() int // 0 for the blob tier, which has no fixed maximum
	IsBlobTier() bool

	Get(offset uint64, key Key) (payload []byte, refCount uint32, compressed bool, found bool, err error)

	WriteInsertPlan(w LogWriter, key Key, payload []byte, compressed bool) (offset uint64, err error)
	// WriteInsertAt applies an insert at an exact offset already chosen
	// and logged by a prior WriteInsertPlan call, extending the table's
	// tracked tail if the offset lies past it. Used by EnactPlan to
	// replay a logged ActionInsertValue: after a crash the table's tail
	// may have reverted to its last durable checkpoint (CompletePlan),
	// behind the offset the index already points to, so replay must
	// write at that exact offset rather than choose a fresh one.
	WriteInsertAt(offset uint64, key Key, payload []byte, compressed bool) error
	// WriteReplacePlan overwrites the record at offset. It returns the
	// offset the record now lives at: identical to offset for every
	// fixed-size tier (the payload is guaranteed to fit, since tier
	// selection already proved it fits the tier's value_size), but
	// potentially different on the blob tier when the new payload
	// exceeds the slot's original allocated capacity.
	WriteReplacePlan(w LogWriter, offset uint64, key Key, payload []byte, compressed bool) (newOffset uint64, err error)
	WriteRemovePlan(w LogWriter, offset uint64) error
	WriteIncRefPlan(w LogWriter, offset uint64) error
	// WriteDecRefPlan returns the ref count after decrementing.
	WriteDecRefPlan(w LogWriter, offset uint64) (newRefCount uint32, err error)

	RefreshMetadata() error
	CompletePlan(w LogWriter) error

	// Scan visits every occupied record in append order, exposing its
	// offset, decoded payload, ref count and compressed flag. visit
	// returns false to stop early. Used by the preimage iteration
	// shortcut (§4.5), which trusts payload self-hashing rather than
	// walking the index.
	Scan(visit func(offset uint64, payload []byte, refCount uint32, compressed bool) (bool, error)) error

	Flush() error
	Close() error
}
