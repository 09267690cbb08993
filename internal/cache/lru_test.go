package cache

import (
	"sync"
	"testing"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b to survive")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c to survive")
	}
}

func TestLRURecencyProtectsFromEviction(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // bump a to front
	c.Put("c", 3) // should evict b, not a

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted, a was more recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive due to recency")
	}
}

func TestGetOrLoadDeduplicatesConcurrentLoads(t *testing.T) {
	c := New[string, int](8)
	var loadCount int
	var mu sync.Mutex
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.GetOrLoad("ir1", func() (int, error) {
				mu.Lock()
				loadCount++
				mu.Unlock()
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("unexpected result: %d, %v", v, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if loadCount != 1 {
		t.Fatalf("expected exactly one load, got %d", loadCount)
	}
}

func TestLRULenCapped(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	if c.Len() != 8 {
		t.Fatalf("expected cache length capped at 8, got %d", c.Len())
	}
}
