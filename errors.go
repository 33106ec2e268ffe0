package column

import (
	"errors"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// Sentinel errors returned by column operations. Corruption is never
// retried by design; I/O errors are propagated for the caller to
// decide retry policy.
var (
	// ErrCorruptEntry is returned when an index or value-table entry
	// cannot be decoded, or resolves to an empty/invalid slot.
	ErrCorruptEntry = kvtypes.ErrCorruptEntry

	// ErrTableMissing is returned by EnactPlan when a log action
	// references an index or value table that isn't open.
	ErrTableMissing = kvtypes.ErrTableMissing

	// ErrUnknownLogAction is returned for a log action variant the
	// replaying side does not recognise.
	ErrUnknownLogAction = kvtypes.ErrUnknownLogAction

	// ErrTierExhausted is returned when no configured tier, including
	// the blob tier, can hold a payload.
	ErrTierExhausted = kvtypes.ErrTierExhausted

	// ErrClosed is returned by any operation on a Column after Close.
	ErrClosed = errors.New("column: closed")
)
