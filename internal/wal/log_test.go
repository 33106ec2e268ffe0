package wal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

func testKey(b byte) kvtypes.Key {
	var k kvtypes.Key
	k[0] = b
	return k
}

func TestWriterReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	w, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}

	subIndex := uint32(2)
	actions := []kvtypes.LogAction{
		{Kind: kvtypes.ActionInsertIndex, Table: 7, Key: testKey(1), SubIndex: &subIndex, Address: kvtypes.NewAddress(0, 5)},
		{Kind: kvtypes.ActionInsertValue, Tier: 0, Key: testKey(1), Payload: []byte("payload"), Offset: 5},
		{Kind: kvtypes.ActionRemoveValue, Tier: 0, Offset: 5},
	}
	for _, a := range actions {
		if err := w.Append(a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r, err := OpenReader(path, 0)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	var got []kvtypes.LogAction
	for {
		a, ok, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, a)
	}

	if len(got) != len(actions) {
		t.Fatalf("read %d actions, want %d", len(got), len(actions))
	}
	for i, want := range actions {
		if got[i].Kind != want.Kind || got[i].Table != want.Table || got[i].Tier != want.Tier {
			t.Fatalf("action %d = %+v, want %+v", i, got[i], want)
		}
		if got[i].Key != want.Key {
			t.Fatalf("action %d key = %x, want %x", i, got[i].Key, want.Key)
		}
		if !bytes.Equal(got[i].Payload, want.Payload) {
			t.Fatalf("action %d payload = %q, want %q", i, got[i].Payload, want.Payload)
		}
	}
}

func TestReaderStopsAtTornTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	w, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := w.Append(kvtypes.LogAction{Kind: kvtypes.ActionRemoveValue, Offset: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Simulate a crash mid-append: a line with no trailing newline.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.Write([]byte(`{"kind":2,"offset":9`)); err != nil {
		t.Fatalf("write torn line: %v", err)
	}
	f.Close()

	r, err := OpenReader(path, 0)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	var n int
	for {
		_, ok, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		n++
	}
	if n != 1 {
		t.Fatalf("read %d complete actions, want 1 (torn trailing line must be discarded)", n)
	}
}

func TestOverlaysReflectReplayedIndexActions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	w, err := OpenWriter(path, true)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}

	si := uint32(0)
	addr := kvtypes.NewAddress(1, 55)
	key := testKey(9)
	if err := w.Append(kvtypes.LogAction{Kind: kvtypes.ActionInsertIndex, Table: 3, Key: key, SubIndex: &si, Address: addr}); err != nil {
		t.Fatalf("append insert: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	overlays, pos, err := ReplayInto(path, 0)
	if err != nil {
		t.Fatalf("replay into: %v", err)
	}
	if pos == 0 {
		t.Fatal("replay position did not advance")
	}

	got, ok := overlays.HasKeyAt(3, key, 0)
	if !ok {
		t.Fatal("overlay did not record the replayed insert")
	}
	if got != addr {
		t.Fatalf("overlay address = %v, want %v", got, addr)
	}
}

func TestOverlaysForgetRemovedKeys(t *testing.T) {
	overlays := NewOverlays()
	si := uint32(0)
	key := testKey(4)
	overlays.Apply(kvtypes.LogAction{Kind: kvtypes.ActionInsertIndex, Table: 1, Key: key, SubIndex: &si, Address: kvtypes.NewAddress(0, 1)})
	if _, ok := overlays.HasKeyAt(1, key, 0); !ok {
		t.Fatal("overlay missing after insert")
	}

	overlays.Apply(kvtypes.LogAction{Kind: kvtypes.ActionRemoveIndex, Table: 1, Key: key, SubIndex: &si})
	if _, ok := overlays.HasKeyAt(1, key, 0); ok {
		t.Fatal("overlay still present after a replayed remove")
	}
}
