package column

import "testing"

func TestProbeCacheStoreLookupInvalidate(t *testing.T) {
	opts := testOptions()
	opts.CacheSize = 16
	c := openTestColumn(t, opts)

	key := c.HashKey([]byte("cached"))
	if _, ok := c.cacheLookup(key); ok {
		t.Fatal("cache hit before any store")
	}

	c.cacheStore(key, ValueTier(1), NewAddress(1, 42))
	got, ok := c.cacheLookup(key)
	if !ok {
		t.Fatal("cache miss after store")
	}
	if got.tier != 1 {
		t.Fatalf("cached tier = %d, want 1", got.tier)
	}

	c.cacheInvalidate(key)
	if _, ok := c.cacheLookup(key); ok {
		t.Fatal("cache hit after invalidate")
	}
}

func TestProbeCacheDisabledWhenSizeNegative(t *testing.T) {
	opts := testOptions()
	opts.CacheSize = -1
	c := openTestColumn(t, opts)
	if c.cache != nil {
		t.Fatal("expected a nil cache for a non-positive size")
	}

	key := c.HashKey([]byte("whatever"))
	c.cacheStore(key, 0, NewAddress(0, 1))
	if _, ok := c.cacheLookup(key); ok {
		t.Fatal("lookup hit despite a disabled cache")
	}
}

func TestWritePlanWarmsCacheOnInsert(t *testing.T) {
	opts := testOptions()
	opts.CacheSize = 16
	c := openTestColumn(t, opts)

	key := c.HashKey([]byte("populated"))
	if _, err := c.WritePlan(nil, nil, key, []byte("v")); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	if _, ok := c.cacheLookup(key); !ok {
		t.Fatal("insert did not warm the probe cache")
	}
	if _, found, err := c.Get(key, nil); err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	opts := testOptions()
	opts.CacheSize = 16
	c := openTestColumn(t, opts)

	key := c.HashKey([]byte("evicted"))
	if _, err := c.WritePlan(nil, nil, key, []byte("v")); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	if _, ok := c.cacheLookup(key); !ok {
		t.Fatal("insert did not warm the probe cache")
	}

	if _, err := c.WritePlan(nil, nil, key, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := c.cacheLookup(key); ok {
		t.Fatal("cache still warm after delete")
	}
}
