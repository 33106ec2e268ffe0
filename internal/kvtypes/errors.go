package kvtypes

import "errors"

// Sentinel errors shared between the column facade and its collaborators.
// Corruption errors are never retried by design (§7); I/O errors are
// propagated for the caller to decide retry policy.
var (
	// ErrCorruptEntry is returned when an index or value-table entry
	// cannot be decoded, or resolves to an empty/invalid slot.
	ErrCorruptEntry = errors.New("column: corrupt entry")

	// ErrTableMissing is returned by EnactPlan when a log action
	// references an index or value table that isn't open.
	ErrTableMissing = errors.New("column: referenced table is not open")

	// ErrUnknownLogAction is returned for a log action variant the
	// replaying side does not recognise.
	ErrUnknownLogAction = errors.New("column: unknown log action")

	// ErrTierExhausted is returned when no configured tier, including
	// the blob tier, can hold a payload (should be unreachable, since
	// the blob tier has no upper bound).
	ErrTierExhausted = errors.New("column: no tier can hold payload")
)
