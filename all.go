// Whole-column enumeration (§4.5).
//
// IterWhile is the spec surface; All wraps it as a range-over-func
// iterator for callers that prefer to range over results rather than
// pass a visitor, matching the idiom used elsewhere for whole-table
// scans.
package column

import (
	"fmt"
	"iter"
)

// IterWhile surfaces every live entry for verification or export. When
// the column is declared preimage and skipPreimageIndexes is true,
// every non-blob tier is scanned directly — payloads are
// self-identifying, since key = hash(value) by construction — and only
// the blob tier is walked through the index.
func (c *Column) IterWhile(skipPreimageIndexes bool, visit IterFunc) error {
	if c.closed.Load() {
		return ErrClosed
	}

	if !c.opts.Preimage || !skipPreimageIndexes {
		return c.walkGeneral(0, nil, visit)
	}

	blob := ValueTier(len(c.values) - 1)
	for tier := 0; tier < len(c.values)-1; tier++ {
		vt := c.values[tier]
		var stop bool
		scanErr := vt.Scan(func(offset uint64, payload []byte, rc uint32, compressed bool) (bool, error) {
			out, derr := decompressBytes(compressedKind(compressed, c.opts.Compression.Kind), payload)
			if derr != nil {
				cont, verr := visit(IterEntry{}, &Corrupted{Err: derr})
				if verr != nil {
					return false, verr
				}
				stop = !cont
				return cont, nil
			}
			key := c.HashKey(out)
			cont, verr := visit(IterEntry{Key: key, RefCount: rc, Payload: out}, nil)
			stop = !cont
			return cont, verr
		})
		if scanErr != nil {
			return fmt.Errorf("column: iterate preimage tier %d: %w", tier, scanErr)
		}
		if stop {
			return nil
		}
	}

	return c.walkGeneral(0, &blob, visit)
}

// All ranges over every live entry, using the same preimage shortcut
// IterWhile applies.
func (c *Column) All(skipPreimageIndexes bool) iter.Seq2[IterEntry, error] {
	return func(yield func(IterEntry, error) bool) {
		err := c.IterWhile(skipPreimageIndexes, func(e IterEntry, corrupt *Corrupted) (bool, error) {
			if corrupt != nil {
				if !yield(IterEntry{}, *corrupt) {
					return false, nil
				}
				return true, nil
			}
			return yield(e, nil), nil
		})
		if err != nil {
			yield(IterEntry{}, err)
		}
	}
}
