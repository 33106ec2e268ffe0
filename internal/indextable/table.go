// Package indextable is the default on-disk implementation of
// kvtypes.IndexTable: a chunked hash table with a small, fixed number
// of linear-probe slots per chunk. The number of chunks is 2^bits; a
// chunk that fills all its slots cannot accept another probe step and
// reports kvtypes.NeedReindex so the column facade can trigger a
// bit-width doubling (spec §4.2).
//
// Slots store the full key alongside the Address rather than a
// size-minimal partial key. That trades some on-disk density for a
// simpler, self-contained reindex drain (ReadChunkRange has everything
// it needs without consulting a value table) — reasonable for an
// embedded engine's default table, and swappable behind the
// kvtypes.IndexTable interface if a denser layout is ever needed.
package indextable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jpl-au/columndb/internal/filelock"
	"github.com/jpl-au/columndb/internal/kvtypes"
)

// SlotsPerChunk bounds the local probe sequence within one chunk.
const SlotsPerChunk = 6

const (
	occupiedOff = 0
	keyOff      = 1
	addrOff     = keyOff + 32
	slotSize    = addrOff + 8
	chunkSize   = SlotsPerChunk * slotSize
)

// Table is a single index_<column>_<bits> file.
type Table struct {
	id   kvtypes.TableID
	bits uint8

	mu   sync.Mutex // serialises writes; reads use pread and need no lock
	file *os.File
	lock *filelock.Lock

	statsMu sync.Mutex
	stats   kvtypes.ColumnStats
}

// Create makes a new, empty index table at path with 2^bits chunks.
func Create(path string, id kvtypes.TableID, bits uint8) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("indextable: create: %w", err)
	}
	t := &Table{id: id, bits: bits, file: f, lock: filelock.New(f)}
	hdr := header{Bits: bits, ID: uint8(id)}
	buf, err := hdr.encode()
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		f.Close()
		return nil, err
	}
	total := totalChunks(bits)
	if err := f.Truncate(headerSize + int64(total)*chunkSize); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// Open opens an existing index table file, reading bits and stats from
// its header.
func Open(path string, id kvtypes.TableID) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("indextable: open: %w", err)
	}
	hdr, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Table{id: id, bits: hdr.Bits, file: f, lock: filelock.New(f), stats: hdr.Stats}, nil
}

func (t *Table) ID() kvtypes.TableID  { return t.id }
func (t *Table) Bits() uint8         { return t.bits }
func (t *Table) TotalChunks() uint64 { return totalChunks(t.bits) }

func totalChunks(bits uint8) uint64 {
	if bits >= 64 {
		return 0 // unreachable in practice; see spec §3 index_bits domain note
	}
	return uint64(1) << bits
}

func chunkIndexFor(key kvtypes.Key, bits uint8) uint64 {
	if bits == 0 {
		return 0
	}
	v := binary.BigEndian.Uint64(key[:8])
	if bits >= 64 {
		return v
	}
	return v >> (64 - bits)
}

func slotOffset(chunk uint64, slot uint32) int64 {
	return headerSize + int64(chunk)*chunkSize + int64(slot)*slotSize
}

func (t *Table) readSlot(chunk uint64, slot uint32) (occupied bool, key kvtypes.Key, addr kvtypes.Address, err error) {
	buf := make([]byte, slotSize)
	if _, rerr := t.file.ReadAt(buf, slotOffset(chunk, slot)); rerr != nil && rerr != io.EOF {
		return false, key, 0, rerr
	}
	if buf[occupiedOff] != 1 {
		return false, key, 0, nil
	}
	copy(key[:], buf[keyOff:keyOff+32])
	addr = kvtypes.Address(binary.BigEndian.Uint64(buf[addrOff : addrOff+8]))
	return true, key, addr, nil
}

func (t *Table) writeSlot(chunk uint64, slot uint32, key kvtypes.Key, addr kvtypes.Address) error {
	buf := make([]byte, slotSize)
	buf[occupiedOff] = 1
	copy(buf[keyOff:keyOff+32], key[:])
	binary.BigEndian.PutUint64(buf[addrOff:addrOff+8], uint64(addr))
	_, err := t.file.WriteAt(buf, slotOffset(chunk, slot))
	return err
}

func (t *Table) clearSlot(chunk uint64, slot uint32) error {
	buf := make([]byte, slotSize)
	_, err := t.file.WriteAt(buf, slotOffset(chunk, slot))
	return err
}

// Get returns the probe entry at or after subIndex for key's chunk.
func (t *Table) Get(key kvtypes.Key, subIndex uint32) (kvtypes.IndexEntry, uint32, error) {
	if subIndex >= SlotsPerChunk {
		return kvtypes.IndexEntry{Empty: true}, subIndex + 1, nil
	}
	chunk := chunkIndexFor(key, t.bits)
	occupied, _, addr, err := t.readSlot(chunk, subIndex)
	if err != nil {
		return kvtypes.IndexEntry{}, 0, fmt.Errorf("indextable: get: %w", err)
	}
	if !occupied {
		return kvtypes.IndexEntry{Empty: true}, subIndex + 1, nil
	}
	return kvtypes.IndexEntry{Address: addr}, subIndex + 1, nil
}

// WriteInsertPlan logs an insert (when w is non-nil) and writes the
// slot immediately, in the same call.
func (t *Table) WriteInsertPlan(w kvtypes.LogWriter, key kvtypes.Key, addr kvtypes.Address, subIndex *uint32) (kvtypes.PlanResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	chunk := chunkIndexFor(key, t.bits)

	var slot uint32
	if subIndex != nil {
		slot = *subIndex
	} else {
		found := false
		for s := uint32(0); s < SlotsPerChunk; s++ {
			occupied, _, _, err := t.readSlot(chunk, s)
			if err != nil {
				return 0, fmt.Errorf("indextable: insert: %w", err)
			}
			if !occupied {
				slot = s
				found = true
				break
			}
		}
		if !found {
			return kvtypes.NeedReindex, nil
		}
	}

	if w != nil {
		s := slot
		if err := w.Append(kvtypes.LogAction{
			Kind: kvtypes.ActionInsertIndex, Table: t.id, Key: key, SubIndex: &s, Address: addr,
		}); err != nil {
			return 0, fmt.Errorf("indextable: log insert: %w", err)
		}
	}
	if err := t.writeSlot(chunk, slot, key, addr); err != nil {
		return 0, fmt.Errorf("indextable: write slot: %w", err)
	}
	return kvtypes.Written, nil
}

// WriteRemovePlan stages removal of the entry at subIndex.
func (t *Table) WriteRemovePlan(w kvtypes.LogWriter, key kvtypes.Key, subIndex uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	chunk := chunkIndexFor(key, t.bits)
	if w != nil {
		s := subIndex
		if err := w.Append(kvtypes.LogAction{
			Kind: kvtypes.ActionRemoveIndex, Table: t.id, Key: key, SubIndex: &s,
		}); err != nil {
			return fmt.Errorf("indextable: log remove: %w", err)
		}
	}
	return t.clearSlot(chunk, subIndex)
}

// ReadChunkRange returns non-empty entries in chunks [start, start+count).
func (t *Table) ReadChunkRange(start, count uint64) ([]kvtypes.ChunkEntry, error) {
	total := t.TotalChunks()
	end := start + count
	if end > total {
		end = total
	}
	var out []kvtypes.ChunkEntry
	for c := start; c < end; c++ {
		for s := uint32(0); s < SlotsPerChunk; s++ {
			occupied, key, addr, err := t.readSlot(c, s)
			if err != nil {
				return nil, fmt.Errorf("indextable: scan chunk %d: %w", c, err)
			}
			if occupied {
				out = append(out, kvtypes.ChunkEntry{ChunkIndex: c, KeyPrefix: key, Address: addr})
			}
		}
	}
	return out, nil
}

func (t *Table) Stats() kvtypes.ColumnStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

func (t *Table) SetStats(s kvtypes.ColumnStats) {
	t.statsMu.Lock()
	t.stats = s
	t.statsMu.Unlock()
}

func (t *Table) Flush() error {
	hdr := header{Bits: t.bits, ID: uint8(t.id), Stats: t.Stats()}
	buf, err := hdr.encode()
	if err != nil {
		return err
	}
	if _, err := t.file.WriteAt(buf, 0); err != nil {
		return err
	}
	return t.file.Sync()
}

func (t *Table) Close() error {
	t.lock.Detach()
	return t.file.Close()
}

// DropFile unlinks the backing file. Idempotent: removing an
// already-removed file is not an error (§9 design notes).
func (t *Table) DropFile() error {
	path := t.file.Name()
	if err := t.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("indextable: drop: %w", err)
	}
	return nil
}
