// Package wal is the default on-disk log: a single append-only,
// newline-delimited file of encoded LogActions, read and written the
// way folio's write.go/read.go treat its own append-only record file
// (raw() appends a line and advances a tracked tail; line()/align()
// walk the file back with a bufio.Reader over an io.SectionReader).
//
// The column facade drives a two-phase protocol on top of this: one
// Writer per in-flight plan batch, made durable by Writer.Sync once
// every action in the batch has been appended. column.CompletePlan
// does not sync the Writer itself.
package wal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// Writer appends LogActions to a single log file and tracks the
// current tail so concurrent writers never interleave a line.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	tail int64
	sync bool
}

// OpenWriter opens (creating if necessary) a log file for appending.
// syncEvery, when true, fsyncs after every action; otherwise the
// caller is expected to call Sync explicitly once a plan batch
// completes, matching folio's config.SyncWrites toggle.
func OpenWriter(path string, syncEvery bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("wal: open writer: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{file: f, tail: info.Size(), sync: syncEvery}, nil
}

// Append encodes and writes one action as a single line.
func (w *Writer) Append(action kvtypes.LogAction) error {
	line, err := encodeAction(action)
	if err != nil {
		return fmt.Errorf("wal: encode: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.WriteAt(line, w.tail); err != nil {
		return fmt.Errorf("wal: append: %w", err)
	}
	w.tail += int64(len(line))
	if w.sync {
		return w.file.Sync()
	}
	return nil
}

// Sync fsyncs the log file, marking every action appended so far as
// durable. The column facade never calls it: its LogWriter interface
// exposes only Append, so the owner of the Writer syncs it.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Tail returns the current write offset, used as a replay checkpoint.
func (w *Writer) Tail() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tail
}

func (w *Writer) Close() error {
	return w.file.Close()
}

// Reader replays a log file sequentially from a starting offset, one
// action at a time, in the style of folio's line()-based scan.
type Reader struct {
	file   *os.File
	reader *bufio.Reader
	pos    int64
}

// OpenReader opens a log file for sequential replay starting at from
// (0 to replay the whole file).
func OpenReader(path string, from int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wal: open reader: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	remaining := info.Size() - from
	if remaining < 0 {
		remaining = 0
	}
	return &Reader{
		file:   f,
		reader: bufio.NewReader(io.NewSectionReader(f, from, remaining)),
		pos:    from,
	}, nil
}

// Next returns the next action in the log, or ok == false at EOF. A
// truncated final line (a torn write from a crash mid-append) is
// treated as EOF rather than an error: the action never completed.
func (r *Reader) Next() (kvtypes.LogAction, bool, error) {
	line, err := r.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF {
			if len(line) == 0 {
				return kvtypes.LogAction{}, false, nil
			}
			// torn trailing line, no newline terminator: discard.
			return kvtypes.LogAction{}, false, nil
		}
		return kvtypes.LogAction{}, false, fmt.Errorf("wal: read: %w", err)
	}
	r.pos += int64(len(line))
	trimmed := line[:len(line)-1]
	action, err := decodeAction(trimmed)
	if err != nil {
		return kvtypes.LogAction{}, false, fmt.Errorf("wal: %w: %v", kvtypes.ErrCorruptEntry, err)
	}
	return action, true, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// overlayKey identifies one index-table slot.
type overlayKey struct {
	table    kvtypes.TableID
	key      kvtypes.Key
	subIndex uint32
}

// Overlays is an in-memory LogOverlays built by replaying a committed
// but not-yet-checkpointed log segment. It lets a lookup see writes
// that are durable in the log but not yet applied to an index table's
// on-disk slots, the same role folio's in-memory tracking plays
// between a raw() append and the next compaction pass.
type Overlays struct {
	mu      sync.RWMutex
	entries map[overlayKey]kvtypes.Address
	removed map[overlayKey]struct{}
}

// NewOverlays returns an empty overlay set.
func NewOverlays() *Overlays {
	return &Overlays{entries: make(map[overlayKey]kvtypes.Address)}
}

// Apply folds one replayed action into the overlay set. Only index
// actions are tracked; value actions are irrelevant to HasKeyAt.
func (o *Overlays) Apply(a kvtypes.LogAction) {
	if a.SubIndex == nil {
		return
	}
	k := overlayKey{table: a.Table, key: a.Key, subIndex: *a.SubIndex}
	o.mu.Lock()
	defer o.mu.Unlock()
	switch a.Kind {
	case kvtypes.ActionInsertIndex:
		o.entries[k] = a.Address
	case kvtypes.ActionRemoveIndex:
		delete(o.entries, k)
	}
}

// HasKeyAt reports the overlaid address for a table/key/subIndex slot,
// if this overlay set has seen a write to it since it was built.
func (o *Overlays) HasKeyAt(table kvtypes.TableID, key kvtypes.Key, subIndex uint32) (kvtypes.Address, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	addr, ok := o.entries[overlayKey{table: table, key: key, subIndex: subIndex}]
	return addr, ok
}

// ReplayInto reads every action from path starting at from and folds
// index-affecting ones into a fresh Overlays set.
func ReplayInto(path string, from int64) (*Overlays, int64, error) {
	r, err := OpenReader(path, from)
	if err != nil {
		if os.IsNotExist(err) {
			return NewOverlays(), from, nil
		}
		return nil, from, err
	}
	defer r.Close()

	overlays := NewOverlays()
	pos := from
	for {
		action, ok, err := r.Next()
		if err != nil {
			return nil, pos, err
		}
		if !ok {
			break
		}
		overlays.Apply(action)
		pos = r.pos
	}
	return overlays, pos, nil
}
