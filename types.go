package column

import "github.com/jpl-au/columndb/internal/kvtypes"

// Re-exported vocabulary shared with the default table and log
// implementations in internal/indextable, internal/valuetable and
// internal/wal. Kept as aliases rather than copies so a caller who
// implements a custom IndexTable or LogWriter only needs to import
// this package.
type (
	Key             = kvtypes.Key
	TableID         = kvtypes.TableID
	ValueTier       = kvtypes.ValueTier
	PlanResult      = kvtypes.PlanResult
	CompressionKind = kvtypes.CompressionKind
	Address         = kvtypes.Address
	ColumnStats     = kvtypes.ColumnStats
	LogAction       = kvtypes.LogAction
	LogActionKind   = kvtypes.LogActionKind
	LogWriter       = kvtypes.LogWriter
	LogReader       = kvtypes.LogReader
	LogOverlays     = kvtypes.LogOverlays
	IndexTable      = kvtypes.IndexTable
	ValueTable      = kvtypes.ValueTable
	IndexEntry      = kvtypes.IndexEntry
	ChunkEntry      = kvtypes.ChunkEntry
)

const (
	Written     = kvtypes.Written
	Skipped     = kvtypes.Skipped
	NeedReindex = kvtypes.NeedReindex

	CompressionNone   = kvtypes.CompressionNone
	CompressionSnappy = kvtypes.CompressionSnappy
	CompressionZstd   = kvtypes.CompressionZstd

	ActionInsertIndex  = kvtypes.ActionInsertIndex
	ActionRemoveIndex  = kvtypes.ActionRemoveIndex
	ActionInsertValue  = kvtypes.ActionInsertValue
	ActionReplaceValue = kvtypes.ActionReplaceValue
	ActionRemoveValue  = kvtypes.ActionRemoveValue
	ActionIncRefValue  = kvtypes.ActionIncRefValue
	ActionDecRefValue  = kvtypes.ActionDecRefValue
)

// NewAddress composes an Address using the current on-disk layout.
func NewAddress(tier ValueTier, offset uint64) Address {
	return kvtypes.NewAddress(tier, offset)
}
