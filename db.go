// Column facade: lifecycle and the read path (§4.1).
//
// Column owns one current index table, a queue of historical index
// tables awaiting drain, and the tiered value tables. It coordinates
// them through the two-lock model in lock.go and the write planner in
// set.go/delete.go.
package column

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jpl-au/columndb/internal/indextable"
	"github.com/jpl-au/columndb/internal/kvtypes"
	"github.com/jpl-au/columndb/internal/valuetable"
)

// Column is one logical keyspace: a chunked hash index over a set of
// size-tiered value tables, durable through an external log.
type Column struct {
	concurrency

	name string
	dir  string
	opts Options

	current  kvtypes.IndexTable
	queue    []kvtypes.IndexTable // front = queue[0]: oldest/smallest bits, drained first
	progress uint64               // next chunk to migrate from queue[0]
	values   []kvtypes.ValueTable // index 0..len(opts.Sizes): last is the blob tier

	cache *lru.Cache[Key, probeResult]

	statQueryHit        [8]atomic.Uint64
	statQueryMiss       atomic.Uint64
	statRemoveMiss      atomic.Uint64
	statInserted        atomic.Uint64
	statRemoved         atomic.Uint64
	statReindexBatches  atomic.Uint64
	statReindexMigrated atomic.Uint64

	closed atomic.Bool
}

// Open opens or creates the on-disk files for column name under dir.
// It scans for index files of every bit width from 64 down to 16; the
// largest found becomes current, and the rest are pushed to the front
// of the reindex queue in descending order so the smallest/oldest is
// drained first (§4.1). A fresh index at index_bits=16 is created if
// none exist.
func Open(dir, name string, opts Options) (*Column, error) {
	opts = opts.withDefaults()

	c := &Column{name: name, dir: dir, opts: opts}

	for bits := 64; bits >= 16; bits-- {
		path := c.indexPath(uint8(bits))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tbl, err := indextable.Open(path, TableID(bits))
		if err != nil {
			return nil, fmt.Errorf("column: open index %s: %w", path, err)
		}
		if c.current == nil {
			c.current = tbl
		} else {
			c.queue = append([]kvtypes.IndexTable{tbl}, c.queue...)
		}
	}
	if c.current == nil {
		tbl, err := indextable.Create(c.indexPath(16), TableID(16), 16)
		if err != nil {
			return nil, fmt.Errorf("column: create index: %w", err)
		}
		c.current = tbl
	}
	c.loadStats(c.current.Stats())

	tiers := len(opts.Sizes) + 1
	c.values = make([]kvtypes.ValueTable, tiers)
	for tier := 0; tier < tiers; tier++ {
		path := c.valuePath(tier)
		valueSize := 0
		if tier < len(opts.Sizes) {
			valueSize = int(opts.Sizes[tier])
		}
		if _, err := os.Stat(path); err == nil {
			vt, err := valuetable.Open(path, ValueTier(tier))
			if err != nil {
				return nil, fmt.Errorf("column: open value tier %d: %w", tier, err)
			}
			c.values[tier] = vt
		} else {
			vt, err := valuetable.Create(path, ValueTier(tier), valueSize)
			if err != nil {
				return nil, fmt.Errorf("column: create value tier %d: %w", tier, err)
			}
			c.values[tier] = vt
		}
	}

	c.cache = newProbeCache(opts.CacheSize)
	return c, nil
}

func (c *Column) indexPath(bits uint8) string {
	return filepath.Join(c.dir, fmt.Sprintf("index_%s_%d", c.name, bits))
}

func (c *Column) valuePath(tier int) string {
	return filepath.Join(c.dir, fmt.Sprintf("value_%s_%d", c.name, tier))
}

// Close releases every index and value table. A second call reports
// ErrClosed rather than double-closing file handles.
func (c *Column) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.wlock()
	defer c.wunlock()

	var errs []error
	if err := c.current.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, q := range c.queue {
		if err := q.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, v := range c.values {
		if err := v.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Flush persists the current index and every value table. The reindex
// queue carries no dirty state of its own (§4.1).
func (c *Column) Flush() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.rlock()
	defer c.runlock()

	c.current.SetStats(c.snapshotStats())
	if err := c.current.Flush(); err != nil {
		return fmt.Errorf("column: flush index: %w", err)
	}
	for _, v := range c.values {
		if err := v.Flush(); err != nil {
			return fmt.Errorf("column: flush value table: %w", err)
		}
	}
	return nil
}

// Get resolves key to its current payload, consulting overlays for
// uncommitted staged writes before falling back to on-disk entries
// (§4.1, §4.3). A nil overlays is valid: plain reads outside an active
// commit frame never need read-your-writes semantics.
func (c *Column) Get(key Key, overlays LogOverlays) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	c.rlock()
	defer c.runlock()

	if cached, ok := c.cacheLookup(key); ok {
		_, offset := cached.address.Decode()
		payload, _, compressed, found, err := c.values[cached.tier].Get(offset, key)
		if err != nil {
			return nil, false, err
		}
		if found {
			c.recordQueryHit(cached.tier)
			out, err := decompressBytes(compressedKind(compressed, c.opts.Compression.Kind), payload)
			return out, true, err
		}
		c.cacheInvalidate(key)
	}

	_, _, tier, addr, found, err := c.searchAllIndexes(key, overlays)
	if err != nil {
		return nil, false, err
	}
	if !found {
		c.recordQueryMiss()
		return nil, false, nil
	}

	_, offset := addr.Decode()
	payload, _, compressed, ok, err := c.values[tier].Get(offset, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.recordQueryMiss()
		return nil, false, nil
	}

	c.cacheStore(key, tier, addr)
	c.recordQueryHit(tier)
	out, err := decompressBytes(compressedKind(compressed, c.opts.Compression.Kind), payload)
	return out, true, err
}

// compressedKind resolves the codec a stored slot was compressed with.
// A column uses exactly one codec for its whole lifetime
// (Options.Compression.Kind), so a slot's compressed flag is enough to
// know which one decodes it.
func compressedKind(compressed bool, kind CompressionKind) CompressionKind {
	if !compressed {
		return CompressionNone
	}
	return kind
}

// Stats returns a snapshot of the in-memory counters.
func (c *Column) Stats() ColumnStats {
	return c.snapshotStats()
}

// IndexBits reports the current index's bit width.
func (c *Column) IndexBits() uint8 {
	c.rlock()
	defer c.runlock()
	return c.current.Bits()
}

// ReindexDepth reports how many historical indexes remain in the
// reindex queue.
func (c *Column) ReindexDepth() int {
	c.rlock()
	defer c.runlock()
	return len(c.queue)
}

func (c *Column) recordQueryHit(tier ValueTier) {
	if !c.opts.Stats {
		return
	}
	i := int(tier)
	if i >= len(c.statQueryHit) {
		i = len(c.statQueryHit) - 1
	}
	if i < 0 {
		i = 0
	}
	c.statQueryHit[i].Add(1)
}

func (c *Column) recordQueryMiss() {
	if c.opts.Stats {
		c.statQueryMiss.Add(1)
	}
}

func (c *Column) recordRemoveMiss() {
	if c.opts.Stats {
		c.statRemoveMiss.Add(1)
	}
}

func (c *Column) recordInserted() {
	if c.opts.Stats {
		c.statInserted.Add(1)
	}
}

func (c *Column) recordRemoved() {
	if c.opts.Stats {
		c.statRemoved.Add(1)
	}
}

func (c *Column) recordReindexBatch(migrated int) {
	if !c.opts.Stats {
		return
	}
	c.statReindexBatches.Add(1)
	c.statReindexMigrated.Add(uint64(migrated))
}

func (c *Column) snapshotStats() ColumnStats {
	var s ColumnStats
	for i := range s.QueryHit {
		s.QueryHit[i] = c.statQueryHit[i].Load()
	}
	s.QueryMiss = c.statQueryMiss.Load()
	s.RemoveMiss = c.statRemoveMiss.Load()
	s.Inserted = c.statInserted.Load()
	s.Removed = c.statRemoved.Load()
	s.ReindexBatches = c.statReindexBatches.Load()
	s.ReindexMigrated = c.statReindexMigrated.Load()
	return s
}

func (c *Column) loadStats(s ColumnStats) {
	for i, v := range s.QueryHit {
		c.statQueryHit[i].Store(v)
	}
	c.statQueryMiss.Store(s.QueryMiss)
	c.statRemoveMiss.Store(s.RemoveMiss)
	c.statInserted.Store(s.Inserted)
	c.statRemoved.Store(s.Removed)
	c.statReindexBatches.Store(s.ReindexBatches)
	c.statReindexMigrated.Store(s.ReindexMigrated)
}
