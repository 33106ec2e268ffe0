// Package valuetable is the default on-disk implementation of
// kvtypes.ValueTable: a fixed-slot value table for one size tier, or an
// unbounded append-only heap for the blob tier.
//
// Both shapes are written the same way: every insert appends a new
// record at the table's tail, mirroring folio's append-only tail
// tracking (write.go). Fixed tiers always allocate Capacity ==
// valueSize; the blob tier allocates Capacity == len(payload), so a
// later same-size-or-smaller replace can still happen in place.
package valuetable

import (
	"fmt"
	"os"
	"sync"

	"github.com/jpl-au/columndb/internal/filelock"
	"github.com/jpl-au/columndb/internal/kvtypes"
)

// Table is a single value_<column>_<tier> file.
type Table struct {
	tier      kvtypes.ValueTier
	valueSize int // 0 for the blob tier
	isBlob    bool

	file *os.File
	lock *filelock.Lock

	tailMu sync.Mutex
	tail   int64
}

// Create makes a new, empty value table. valueSize == 0 marks the blob
// tier (accepts payloads of any size, per §3).
func Create(path string, tier kvtypes.ValueTier, valueSize int) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("valuetable: create: %w", err)
	}
	t := &Table{tier: tier, valueSize: valueSize, isBlob: valueSize == 0, file: f, lock: filelock.New(f), tail: fileHeaderSize}
	if _, err := f.WriteAt(make([]byte, fileHeaderSize), 0); err != nil {
		f.Close()
		return nil, err
	}
	if err := t.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// Open opens an existing value table file.
func Open(path string, tier kvtypes.ValueTier) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("valuetable: open: %w", err)
	}
	hdr, err := readFileHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Table{
		tier: tier, valueSize: hdr.ValueSize, isBlob: hdr.IsBlob,
		file: f, lock: filelock.New(f), tail: hdr.Tail,
	}, nil
}

func (t *Table) Tier() kvtypes.ValueTier { return t.tier }
func (t *Table) ValueSize() int          { return t.valueSize }
func (t *Table) IsBlobTier() bool        { return t.isBlob }

func (t *Table) readRecordHeader(offset int64) (recordHeader, error) {
	buf := make([]byte, recordHeaderSize)
	if _, err := t.file.ReadAt(buf, offset); err != nil {
		return recordHeader{}, err
	}
	return decodeRecordHeader(buf), nil
}

// Get returns the payload at offset iff it belongs to key, confirmed by
// the stored partial key suffix (§4.3). A suffix mismatch is reported
// as !found, not an error — the caller is expected to advance the
// probe sequence and try again. A checksum mismatch on a suffix match
// is corruption.
func (t *Table) Get(offset uint64, key kvtypes.Key) ([]byte, uint32, bool, bool, error) {
	hdr, err := t.readRecordHeader(int64(offset))
	if err != nil {
		return nil, 0, false, false, fmt.Errorf("valuetable: get header: %w", err)
	}
	if !hdr.Occupied {
		return nil, 0, false, false, nil
	}
	if hdr.KeySuffix != keySuffix(key) {
		return nil, 0, false, false, nil
	}
	payload := make([]byte, hdr.Length)
	if hdr.Length > 0 {
		if _, err := t.file.ReadAt(payload, int64(offset)+recordHeaderSize); err != nil {
			return nil, 0, false, false, fmt.Errorf("valuetable: get payload: %w", err)
		}
	}
	if checksum(payload) != hdr.Checksum {
		return nil, 0, false, false, fmt.Errorf("valuetable: %w: checksum mismatch at offset %d", kvtypes.ErrCorruptEntry, offset)
	}
	return payload, hdr.RefCount, hdr.Compressed, true, nil
}

func (t *Table) writeRecord(offset int64, key kvtypes.Key, payload []byte, compressed bool, refCount uint32, capacity int) error {
	hdr := recordHeader{
		Occupied: true, RefCount: refCount, Compressed: compressed,
		KeySuffix: keySuffix(key), Length: uint32(len(payload)), Capacity: uint32(capacity),
		Checksum: checksum(payload),
	}
	buf := append(encodeRecordHeader(hdr), payload...)
	_, err := t.file.WriteAt(buf, offset)
	return err
}

// WriteInsertPlan appends a new record and returns its offset.
func (t *Table) WriteInsertPlan(w kvtypes.LogWriter, key kvtypes.Key, payload []byte, compressed bool) (uint64, error) {
	t.tailMu.Lock()
	defer t.tailMu.Unlock()

	capacity := len(payload)
	if !t.isBlob {
		capacity = t.valueSize
	}
	offset := t.tail

	if w != nil {
		if err := w.Append(kvtypes.LogAction{
			Kind: kvtypes.ActionInsertValue, Tier: t.tier, Key: key,
			Payload: payload, Compressed: compressed, Offset: uint64(offset),
		}); err != nil {
			return 0, fmt.Errorf("valuetable: log insert: %w", err)
		}
	}
	if err := t.applyInsertAt(offset, key, payload, compressed, capacity); err != nil {
		return 0, fmt.Errorf("valuetable: insert: %w", err)
	}
	return uint64(offset), nil
}

// WriteInsertAt applies an insert at an exact offset already chosen
// (and logged) earlier, used by EnactPlan during replay. Unlike
// WriteInsertPlan it never picks its own offset: a crash can revert
// the table's tracked tail to an earlier durability checkpoint while
// the index still points past it, so replay must land the record at
// the offset the log names and pull the tail back forward to cover it.
func (t *Table) WriteInsertAt(offset uint64, key kvtypes.Key, payload []byte, compressed bool) error {
	t.tailMu.Lock()
	defer t.tailMu.Unlock()

	capacity := len(payload)
	if !t.isBlob {
		capacity = t.valueSize
	}
	if err := t.applyInsertAt(int64(offset), key, payload, compressed, capacity); err != nil {
		return fmt.Errorf("valuetable: insert at offset: %w", err)
	}
	return nil
}

// applyInsertAt writes the record at offset and advances the tracked
// tail to cover it, never retreating it: a replayed insert's offset
// may already be within the current tail (nothing to extend) or past
// it (a pending write the tail hasn't caught up to yet).
func (t *Table) applyInsertAt(offset int64, key kvtypes.Key, payload []byte, compressed bool, capacity int) error {
	if err := t.writeRecord(offset, key, payload, compressed, 1, capacity); err != nil {
		return err
	}
	if end := offset + recordHeaderSize + int64(capacity); end > t.tail {
		t.tail = end
	}
	return nil
}

// WriteReplacePlan overwrites the record at offset if it still fits the
// originally allocated capacity, otherwise it tombstones the old slot
// and appends a fresh record (the blob tier's growth path).
func (t *Table) WriteReplacePlan(w kvtypes.LogWriter, offset uint64, key kvtypes.Key, payload []byte, compressed bool) (uint64, error) {
	hdr, err := t.readRecordHeader(int64(offset))
	if err != nil {
		return 0, fmt.Errorf("valuetable: replace: %w", err)
	}
	if uint32(len(payload)) <= hdr.Capacity {
		if w != nil {
			if err := w.Append(kvtypes.LogAction{
				Kind: kvtypes.ActionReplaceValue, Tier: t.tier, Key: key,
				Payload: payload, Compressed: compressed, Offset: offset,
			}); err != nil {
				return 0, fmt.Errorf("valuetable: log replace: %w", err)
			}
		}
		if err := t.writeRecord(int64(offset), key, payload, compressed, hdr.RefCount, int(hdr.Capacity)); err != nil {
			return 0, fmt.Errorf("valuetable: replace: %w", err)
		}
		return offset, nil
	}

	// Doesn't fit: tombstone and reinsert (only reachable on the blob
	// tier — fixed tiers always fit, since tier selection guarantees
	// value_size >= len and Capacity never shrinks below valueSize).
	if err := t.clear(int64(offset), hdr.Capacity); err != nil {
		return 0, err
	}
	return t.WriteInsertPlan(w, key, payload, compressed)
}

// clear marks a slot free while preserving its Capacity field: Scan
// walks the file by recordHeaderSize+Capacity, so a cleared slot must
// still report the span it occupies or the scan desynchronises against
// the bytes that follow.
func (t *Table) clear(offset int64, capacity uint32) error {
	buf := encodeRecordHeader(recordHeader{Capacity: capacity})
	_, err := t.file.WriteAt(buf, offset)
	return err
}

// WriteRemovePlan marks the record at offset free.
func (t *Table) WriteRemovePlan(w kvtypes.LogWriter, offset uint64) error {
	hdr, err := t.readRecordHeader(int64(offset))
	if err != nil {
		return fmt.Errorf("valuetable: remove: %w", err)
	}
	if w != nil {
		if err := w.Append(kvtypes.LogAction{Kind: kvtypes.ActionRemoveValue, Tier: t.tier, Offset: offset}); err != nil {
			return fmt.Errorf("valuetable: log remove: %w", err)
		}
	}
	if err := t.clear(int64(offset), hdr.Capacity); err != nil {
		return fmt.Errorf("valuetable: remove: %w", err)
	}
	return nil
}

func (t *Table) adjustRefCount(offset uint64, delta int32) (uint32, error) {
	hdr, err := t.readRecordHeader(int64(offset))
	if err != nil {
		return 0, err
	}
	if !hdr.Occupied {
		return 0, fmt.Errorf("valuetable: adjust refcount: %w", kvtypes.ErrCorruptEntry)
	}
	next := int64(hdr.RefCount) + int64(delta)
	if next < 0 {
		next = 0
	}
	hdr.RefCount = uint32(next)
	buf := encodeRecordHeader(hdr)
	if _, err := t.file.WriteAt(buf, int64(offset)); err != nil {
		return 0, err
	}
	if hdr.RefCount == 0 {
		if err := t.clear(int64(offset), hdr.Capacity); err != nil {
			return 0, err
		}
	}
	return hdr.RefCount, nil
}

// WriteIncRefPlan increments the slot's reference count.
func (t *Table) WriteIncRefPlan(w kvtypes.LogWriter, offset uint64) error {
	if w != nil {
		if err := w.Append(kvtypes.LogAction{Kind: kvtypes.ActionIncRefValue, Tier: t.tier, Offset: offset}); err != nil {
			return fmt.Errorf("valuetable: log inc-ref: %w", err)
		}
	}
	_, err := t.adjustRefCount(offset, 1)
	return err
}

// WriteDecRefPlan decrements the slot's reference count, clearing the
// slot once it reaches zero, and returns the resulting count.
func (t *Table) WriteDecRefPlan(w kvtypes.LogWriter, offset uint64) (uint32, error) {
	if w != nil {
		if err := w.Append(kvtypes.LogAction{Kind: kvtypes.ActionDecRefValue, Tier: t.tier, Offset: offset}); err != nil {
			return 0, fmt.Errorf("valuetable: log dec-ref: %w", err)
		}
	}
	return t.adjustRefCount(offset, -1)
}

// Scan walks every record from the start of the table to the current
// tail, visiting occupied ones in append order. A record whose checksum
// does not match stops the scan: Scan returns an error wrapping
// ErrCorruptEntry and does not visit the records after it.
func (t *Table) Scan(visit func(offset uint64, payload []byte, refCount uint32, compressed bool) (bool, error)) error {
	t.tailMu.Lock()
	tail := t.tail
	t.tailMu.Unlock()

	offset := int64(fileHeaderSize)
	for offset < tail {
		hdr, err := t.readRecordHeader(offset)
		if err != nil {
			return fmt.Errorf("valuetable: scan header at %d: %w", offset, err)
		}
		capacity := int64(hdr.Capacity)
		recSize := recordHeaderSize + capacity
		if !hdr.Occupied {
			offset += recSize
			continue
		}

		payload := make([]byte, hdr.Length)
		if hdr.Length > 0 {
			if _, err := t.file.ReadAt(payload, offset+recordHeaderSize); err != nil {
				return fmt.Errorf("valuetable: scan payload at %d: %w", offset, err)
			}
		}
		if checksum(payload) != hdr.Checksum {
			return fmt.Errorf("valuetable: %w: checksum mismatch at offset %d", kvtypes.ErrCorruptEntry, offset)
		}

		cont, err := visit(uint64(offset), payload, hdr.RefCount, hdr.Compressed)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		offset += recSize
	}
	return nil
}

// RefreshMetadata re-reads the on-disk header, used after crash recovery.
func (t *Table) RefreshMetadata() error {
	hdr, err := readFileHeader(t.file)
	if err != nil {
		return err
	}
	t.tailMu.Lock()
	t.tail = hdr.Tail
	t.tailMu.Unlock()
	return nil
}

// CompletePlan commits the table's durability marker once the owning
// log segment is durable.
func (t *Table) CompletePlan(w kvtypes.LogWriter) error {
	return t.Flush()
}

func (t *Table) Flush() error {
	t.tailMu.Lock()
	hdr := fileHeader{Tier: int(t.tier), ValueSize: t.valueSize, IsBlob: t.isBlob, Tail: t.tail}
	t.tailMu.Unlock()
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
