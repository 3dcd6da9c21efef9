package cache

import (
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](0)

	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache must miss")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGetOrCreateComputesOnce(t *testing.T) {
	c := New[string, int](0)
	calls := 0
	create := func() int {
		calls++
		return 42
	}

	if v := c.GetOrCreate("k", create); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if v := c.GetOrCreate("k", create); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[int, string](0)
	c.Set(1, "a")
	c.Set(2, "b")

	if !c.Delete(1) {
		t.Error("Delete(1) = false, want true")
	}
	if c.Delete(1) {
		t.Error("Delete of a missing key must return false")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}

func TestSoftLimitEviction(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 9; i++ {
		c.Set(i, i)
	}

	// Exceeding the limit shrinks the cache to 75% of it.
	if c.Len() != 6 {
		t.Fatalf("Len() = %d after eviction, want 6", c.Len())
	}
	// The most recently inserted entry survives.
	if _, ok := c.Get(8); !ok {
		t.Error("newest entry must survive eviction")
	}
	// The oldest entries go first.
	if _, ok := c.Get(0); ok {
		t.Error("oldest entry must be evicted")
	}
}

func TestEvictionRespectsRecentAccess(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 8; i++ {
		c.Set(i, i)
	}
	// Touch the oldest entry, then overflow.
	c.Get(0)
	c.Set(8, 8)

	if _, ok := c.Get(0); !ok {
		t.Error("recently accessed entry must survive eviction")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](32)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(n*100+j, j)
				c.Get(n * 100)
				c.GetOrCreate(n, func() int { return n })
			}
		}(i)
	}
	wg.Wait()
}
