package kvtypes

// Address is the opaque 64-bit locator of a value-table slot, encoding
// (size_tier, offset) in the current layout: tier in the low 8 bits,
// offset in the high 56. Every lookup and write decodes this layout
// unconditionally, matching the original's get_in_index, which never
// branches on db_version.
//
// A legacy (db_version < 4) column packed tier into the low 4 bits and
// offset into the remaining 60. That shape only ever surfaces while
// iterating entries recovered from an index built under the old
// encoding (see DecodeForIteration): a legacy column upgrades to the
// current layout on its very first write, so every other consumer —
// every Get, every write-plan lookup — only ever needs Decode.
type Address uint64

const (
	legacyTierBits = 4
	legacyTierMask = (1 << legacyTierBits) - 1

	currentTierBits = 8
	currentTierMask = (1 << currentTierBits) - 1
)

// NewAddress composes an Address using the current (db_version >= 4)
// layout. Callers on a legacy column never construct new addresses —
// writes to a legacy column upgrade to the current layout going forward,
// matching the original's "iteration must still decode it" framing: only
// reads need the old shape.
func NewAddress(tier ValueTier, offset uint64) Address {
	return Address(uint64(tier)&currentTierMask | (offset << currentTierBits))
}

// Decode splits an Address into (tier, offset) using the current
// layout. This is what every ordinary lookup and write-plan path uses,
// regardless of db_version.
func (a Address) Decode() (tier ValueTier, offset uint64) {
	return ValueTier(uint64(a) & currentTierMask), uint64(a) >> currentTierBits
}

// DecodeForIteration splits an Address honouring dbVersion, recovering
// the legacy (tier in the low 4 bits) layout when dbVersion < 4. Only
// the iteration path (column.walkGeneral) needs this: it may be
// walking an index built before the layout changed. Every other
// consumer calls Decode.
func (a Address) DecodeForIteration(dbVersion int) (tier ValueTier, offset uint64) {
	if dbVersion < 4 {
		return ValueTier(uint64(a) & legacyTierMask), uint64(a) >> legacyTierBits
	}
	return a.Decode()
}
