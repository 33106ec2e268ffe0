// Reindex controller (§4.2): bit-width doubling and drain.
package column

import (
	"fmt"

	"github.com/jpl-au/columndb/internal/indextable"
)

// MaxRebalanceBatch bounds a single drain step's migrated-entry count.
const MaxRebalanceBatch = 8192

// triggerReindex allocates a fresh index with double the chunk count,
// swaps it in as current, and enqueues the displaced index at the back
// of the reindex queue (the new drain target lands behind whatever is
// already waiting). Callers must already hold the writer's upgradable
// read lock (wlock); triggerReindex escalates it to a write lock for
// the duration of the swap, the only in-place mutation of
// tables.index/reindex.queue (§5).
func (c *Column) triggerReindex() error {
	c.upgrade()
	defer c.downgrade()

	newBits := c.current.Bits() + 1
	tbl, err := indextable.Create(c.indexPath(newBits), TableID(newBits), newBits)
	if err != nil {
		return fmt.Errorf("column: trigger reindex: %w", err)
	}
	old := c.current
	c.current = tbl
	c.queue = append(c.queue, old)
	c.progress = 0
	return nil
}

// ReindexBatch is one drain step's output: the migrated entries and,
// when the queue front has been fully drained, the id of the index now
// ready to drop.
type ReindexBatch struct {
	Entries []ChunkEntry
	Dropped *TableID
}

// Reindex performs one drain step against the queue front (§4.2). The
// caller (the external commit pipeline) is expected to feed every
// entry back through WriteReindexPlan, then call DropIndex if Dropped
// is set. Reindex returns a zero-length batch with no error when the
// queue is empty.
func (c *Column) Reindex() (ReindexBatch, error) {
	if c.closed.Load() {
		return ReindexBatch{}, ErrClosed
	}
	c.reindexMu.RLock()
	if len(c.queue) == 0 {
		c.reindexMu.RUnlock()
		return ReindexBatch{}, nil
	}
	front := c.queue[0]
	progress := c.progress
	c.reindexMu.RUnlock()

	total := front.TotalChunks()
	if progress >= total {
		return ReindexBatch{}, nil
	}

	// Accumulate chunk by chunk until the migrated-entry count reaches
	// MaxRebalanceBatch, not after that many chunks: a chunk holds up to
	// SlotsPerChunk entries, so bounding by chunk count alone could emit
	// several times the documented batch size.
	var entries []ChunkEntry
	chunk := progress
	for chunk < total && len(entries) < MaxRebalanceBatch {
		batch, err := front.ReadChunkRange(chunk, 1)
		if err != nil {
			return ReindexBatch{}, fmt.Errorf("column: reindex drain: %w", err)
		}
		entries = append(entries, batch...)
		chunk++
	}

	c.reindexMu.Lock()
	c.progress = chunk
	c.reindexMu.Unlock()

	c.recordReindexBatch(len(entries))

	out := ReindexBatch{Entries: entries}
	if chunk >= total {
		id := front.ID()
		out.Dropped = &id
	}
	return out, nil
}

// DropIndex removes id from the reindex queue and deletes its backing
// file. It is a no-op, not an error, if id isn't the current queue
// front or the queue is empty — callers must never race drops against
// each other, but a late or duplicate call is harmless (§9).
func (c *Column) DropIndex(id TableID) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.reindexMu.Lock()
	if len(c.queue) == 0 || c.queue[0].ID() != id {
		c.reindexMu.Unlock()
		return nil
	}
	front := c.queue[0]
	c.queue = c.queue[1:]
	c.progress = 0
	c.reindexMu.Unlock()

	if err := front.DropFile(); err != nil {
		return fmt.Errorf("column: drop index: %w", err)
	}
	return nil
}

// WriteReindexPlan reinserts a migrated (key_prefix, address) pair into
// the current index only, used by the commit pipeline to feed back a
// Reindex drain batch. A key already present in the current index means
// a newer write has already superseded this entry; it is skipped
// rather than overwritten (§4.2, §4.4).
func (c *Column) WriteReindexPlan(w LogWriter, key Key, addr Address) (PlanResult, error) {
	if c.closed.Load() {
		return Skipped, ErrClosed
	}
	c.wlock()
	defer c.wunlock()

	for {
		_, _, _, _, found, err := c.searchIndex(c.current, key, nil)
		if err != nil {
			return Skipped, err
		}
		if found {
			return Skipped, nil
		}

		result, err := c.current.WriteInsertPlan(w, key, addr, nil)
		if err != nil {
			return Skipped, fmt.Errorf("column: write reindex plan: %w", err)
		}
		if result == NeedReindex {
			if err := c.triggerReindex(); err != nil {
				return Skipped, err
			}
			continue
		}
		return Written, nil
	}
}
