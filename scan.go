// Iteration and check (§4.5): general index-driven walk.
package column

import "fmt"

// IterFunc receives either a decoded IterEntry (corrupt == nil) or a
// Corrupted carrier describing a fetch failure for one raw entry.
// Returning false stops the scan early without an error.
type IterFunc func(entry IterEntry, corrupt *Corrupted) (bool, error)

// walkGeneral walks chunks [from, current.TotalChunks()) of the current
// index, fetching each non-empty entry's payload from its value table
// and invoking visit. onlyTier, when non-nil, skips every entry not
// resolving to that tier — used by the preimage shortcut to restrict
// the index walk to the blob tier alone.
func (c *Column) walkGeneral(from uint64, onlyTier *ValueTier, visit IterFunc) error {
	c.rlock()
	idx := c.current
	total := idx.TotalChunks()
	c.runlock()

	const batch = 4096
	for chunk := from; chunk < total; chunk += batch {
		entries, err := idx.ReadChunkRange(chunk, batch)
		if err != nil {
			return fmt.Errorf("column: iterate: %w", err)
		}
		for _, e := range entries {
			tier, offset := e.Address.DecodeForIteration(c.opts.DBVersion)
			if onlyTier != nil && tier != *onlyTier {
				continue
			}

			payload, rc, compressed, found, gerr := c.values[tier].Get(offset, e.KeyPrefix)
			if gerr != nil {
				cont, verr := visit(IterEntry{}, &Corrupted{ChunkIndex: e.ChunkIndex, Address: e.Address, Err: gerr})
				if verr != nil {
					return verr
				}
				if !cont {
					return nil
				}
				continue
			}
			if !found {
				continue
			}

			out, derr := decompressBytes(compressedKind(compressed, c.opts.Compression.Kind), payload)
			if derr != nil {
				return fmt.Errorf("column: iterate decompress: %w", derr)
			}

			cont, verr := visit(IterEntry{ChunkIndex: e.ChunkIndex, Key: e.KeyPrefix, RefCount: rc, Payload: out}, nil)
			if verr != nil {
				return verr
			}
			if !cont {
				return nil
			}
		}
	}
	return nil
}
