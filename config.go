// Column configuration.
package column

// Options configures a Column at Open. Zero-value fields are defaulted
// the same way folio's Config is defaulted inside Open.
type Options struct {
	// Sizes are ascending payload-size boundaries, one per non-blob
	// tier. A column has len(Sizes)+1 tiers; the last is the blob
	// tier and has no upper bound.
	Sizes []uint16

	// Preimage columns hash their own payload to produce the key
	// (key = hash(value)); replace is forbidden and iteration can
	// skip the index for every non-blob tier.
	Preimage bool

	// Uniform columns take the caller-supplied input as the key
	// verbatim; the caller guarantees it is already a good 32-byte hash.
	Uniform bool

	// RefCounted columns increment a stored slot's ref count on a
	// repeat insert instead of replacing it, and decrement on delete.
	RefCounted bool

	Compression CompressionConfig

	// Stats enables the in-memory counters in ColumnStats.
	Stats bool

	// DBVersion selects the on-disk Address layout. Versions below 4
	// use the legacy packed layout for decoding only; 0 defaults to
	// the current layout.
	DBVersion int

	// Salt keys the BLAKE2b hash used for non-uniform keys. The zero
	// value means unkeyed (no salt).
	Salt [32]byte

	// CacheSize bounds the probe-result cache. 0 selects the default
	// (4096 entries); a negative value disables the cache.
	CacheSize int
}

// CompressionConfig selects the codec and size threshold used by the
// write planner's compression decision (§4.4).
type CompressionConfig struct {
	Kind      CompressionKind
	Threshold uint32
}

const (
	defaultDBVersion = 4
	defaultCacheSize = 4096
)

func (o Options) withDefaults() Options {
	if o.DBVersion == 0 {
		o.DBVersion = defaultDBVersion
	}
	if o.CacheSize == 0 {
		o.CacheSize = defaultCacheSize
	}
	return o
}
