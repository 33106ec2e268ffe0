package column

import (
	"bytes"
	"fmt"
	"testing"
)

// fillUntilReindex inserts sequential keys into c until one of them
// reports NeedReindex, returning every key written so far (including
// the one that triggered it).
func fillUntilReindex(t *testing.T, c *Column) []Key {
	t.Helper()
	var keys []Key
	for i := 0; i < 1<<20; i++ {
		key := c.HashKey([]byte(fmt.Sprintf("reindex-key-%d", i)))
		result, err := c.WritePlan(nil, nil, key, []byte("v"))
		if err != nil {
			t.Fatalf("write plan %d: %v", i, err)
		}
		keys = append(keys, key)
		if result == NeedReindex {
			return keys
		}
	}
	t.Fatal("never triggered a reindex")
	return nil
}

func TestTriggerReindexDoublesBitsAndQueuesOld(t *testing.T) {
	c := openTestColumn(t, testOptions())
	before := c.IndexBits()

	keys := fillUntilReindex(t, c)

	if got := c.IndexBits(); got != before+1 {
		t.Fatalf("index bits after reindex = %d, want %d", got, before+1)
	}
	if got := c.ReindexDepth(); got != 1 {
		t.Fatalf("reindex depth = %d, want 1", got)
	}

	// Every key written before the trigger must still resolve: a
	// reindex only relocates entries, it never loses them.
	for _, key := range keys {
		if _, found, err := c.Get(key, nil); err != nil || !found {
			t.Fatalf("get %x after trigger: found=%v err=%v", key, found, err)
		}
	}
}

func TestReindexDrainMigratesAndDrops(t *testing.T) {
	c := openTestColumn(t, testOptions())
	fillUntilReindex(t, c)

	if c.ReindexDepth() == 0 {
		t.Fatal("expected a queued index after trigger")
	}

	var dropped *TableID
	for i := 0; i < 1000 && dropped == nil; i++ {
		batch, err := c.Reindex()
		if err != nil {
			t.Fatalf("reindex drain: %v", err)
		}
		if len(batch.Entries) == 0 && batch.Dropped == nil {
			break
		}
		for _, e := range batch.Entries {
			if _, err := c.WriteReindexPlan(nil, e.KeyPrefix, e.Address); err != nil {
				t.Fatalf("write reindex plan: %v", err)
			}
		}
		dropped = batch.Dropped
	}
	if dropped == nil {
		t.Fatal("drain never reported a fully-drained index")
	}

	if err := c.DropIndex(*dropped); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if got := c.ReindexDepth(); got != 0 {
		t.Fatalf("reindex depth after drop = %d, want 0", got)
	}
}

func TestDropIndexIsIdempotent(t *testing.T) {
	c := openTestColumn(t, testOptions())
	// No queue at all: dropping anything is a harmless no-op, not an error.
	if err := c.DropIndex(TableID(99)); err != nil {
		t.Fatalf("drop index on empty queue: %v", err)
	}
}

func TestReindexPreservesValues(t *testing.T) {
	c := openTestColumn(t, testOptions())
	key := c.HashKey([]byte("stable-value"))
	value := bytes.Repeat([]byte("z"), 5)
	if _, err := c.WritePlan(nil, nil, key, value); err != nil {
		t.Fatalf("insert: %v", err)
	}

	fillUntilReindex(t, c)

	got, found, err := c.Get(key, nil)
	if err != nil || !found {
		t.Fatalf("get after reindex: found=%v err=%v", found, err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("get after reindex = %q, want %q", got, value)
	}
}
