package store

import "testing"

type cachedThing struct {
	name string
}

func TestCacheIdentity(t *testing.T) {
	c := NewCache[cachedThing]()

	v := &cachedThing{name: "first"}
	c.Put(1, v)

	got1, ok := c.Get(1)
	if !ok {
		t.Fatal("expected cache hit")
	}
	got2, _ := c.Get(1)

	// Two gets with no intervening invalidation return the same instance.
	if got1 != v || got2 != v {
		t.Error("expected identical instances across gets")
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache[cachedThing]()

	if _, ok := c.Get(42); ok {
		t.Error("expected cache miss")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache[cachedThing]()

	c.Put(1, &cachedThing{name: "first"})
	c.Invalidate(1)

	if _, ok := c.Get(1); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache[cachedThing]()

	c.Put(1, &cachedThing{name: "first"})
	second := &cachedThing{name: "second"}
	c.Put(1, second)

	got, _ := c.Get(1)
	if got != second {
		t.Error("expected put to overwrite the entry")
	}
}
