package column

import (
	"bytes"
	"testing"
)

func testOptions() Options {
	return Options{
		Sizes: []uint16{16, 64, 256},
		Stats: true,
	}
}

func openTestColumn(t *testing.T, opts Options) *Column {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(dir, "t", opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenCreatesFreshIndex(t *testing.T) {
	c := openTestColumn(t, testOptions())
	if got := c.IndexBits(); got != 16 {
		t.Fatalf("index bits = %d, want 16", got)
	}
	if got := c.ReindexDepth(); got != 0 {
		t.Fatalf("reindex depth = %d, want 0", got)
	}
}

func TestWriteThenGetRoundTrip(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("label-one"))
	value := []byte("hello, column")

	if _, err := c.WritePlan(nil, nil, key, value); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	got, found, err := c.Get(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatalf("get: key not found after insert")
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("get = %q, want %q", got, value)
	}
}

func TestGetMissingKey(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("never-written"))

	_, found, err := c.Get(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("get: found a key that was never written")
	}
}

func TestExistsMatchesGet(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("present"))
	if _, err := c.WritePlan(nil, nil, key, []byte("x")); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	ok, err := c.Exists(key, nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatal("exists: false for a live key")
	}

	missing := c.HashKey([]byte("absent"))
	ok, err = c.Exists(missing, nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("exists: true for a key never written")
	}
}

func TestWriteNilValueDeletes(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("to-delete"))
	if _, err := c.WritePlan(nil, nil, key, []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := c.WritePlan(nil, nil, key, nil)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result != Written {
		t.Fatalf("delete result = %v, want Written", result)
	}

	_, found, err := c.Get(key, nil)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if found {
		t.Fatal("get: key still found after delete")
	}
}

func TestDeleteMissingKeyIsSkipped(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("ghost"))

	result, err := c.WritePlan(nil, nil, key, nil)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result != Skipped {
		t.Fatalf("delete result = %v, want Skipped", result)
	}
	if got := c.Stats().RemoveMiss; got != 1 {
		t.Fatalf("RemoveMiss = %d, want 1", got)
	}
}

func TestUpdateReplacesValueInSameTier(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("updatable"))

	if _, err := c.WritePlan(nil, nil, key, []byte("short")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.WritePlan(nil, nil, key, []byte("other")); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, found, err := c.Get(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || !bytes.Equal(got, []byte("other")) {
		t.Fatalf("get = %q, found %v; want %q", got, found, "other")
	}
}

func TestUpdateMovesAcrossTiers(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("grower"))

	small := bytes.Repeat([]byte("a"), 8)
	big := bytes.Repeat([]byte("b"), 200)

	if _, err := c.WritePlan(nil, nil, key, small); err != nil {
		t.Fatalf("insert small: %v", err)
	}
	if _, err := c.WritePlan(nil, nil, key, big); err != nil {
		t.Fatalf("insert big: %v", err)
	}

	got, found, err := c.Get(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || !bytes.Equal(got, big) {
		t.Fatalf("get after cross-tier move = %q (found %v), want %q", got, found, big)
	}
}

func TestStatsTrackInsertAndRemove(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("counted"))

	if _, err := c.WritePlan(nil, nil, key, []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := c.Stats().Inserted; got != 1 {
		t.Fatalf("Inserted = %d, want 1", got)
	}

	if _, err := c.WritePlan(nil, nil, key, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := c.Stats().Removed; got != 1 {
		t.Fatalf("Removed = %d, want 1", got)
	}
}

func TestStatsDisabledStayZero(t *testing.T) {
	opts := testOptions()
	opts.Stats = false
	c := openTestColumn(t, opts)
	key := c.HashKey([]byte("uncounted"))

	if _, err := c.WritePlan(nil, nil, key, []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s := c.Stats()
	if s.Inserted != 0 || s.QueryHit != [8]uint64{} {
		t.Fatalf("stats accumulated while disabled: %+v", s)
	}
}

func TestCloseThenOperateReturnsErrClosed(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, "t", testOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	key := c.HashKey([]byte("anything"))
	if _, _, err := c.Get(key, nil); err != ErrClosed {
		t.Fatalf("get after close: err = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != ErrClosed {
		t.Fatalf("second close: err = %v, want ErrClosed", err)
	}
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()

	c1, err := Open(dir, "t", opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := c1.HashKey([]byte("durable"))
	if _, err := c1.WritePlan(nil, nil, key, []byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c1.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	c2, err := Open(dir, "t", opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	got, found, err := c2.Get(key, nil)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !found || !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("get after reopen = %q (found %v), want %q", got, found, "payload")
	}
	if got := c2.Stats().Inserted; got != 1 {
		t.Fatalf("Inserted after reopen = %d, want 1 (stats snapshot not restored)", got)
	}
}
