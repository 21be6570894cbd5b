// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	c.Add("a", 10)
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("Get(a) after update = %d, want 10", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() after update = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// a becomes most recently used, so b is the eviction victim.
	c.Get("a")
	c.Add("d", 4)

	if c.Contains("b") {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if !c.Contains(key) {
			t.Errorf("%s should be present", key)
		}
	}
}

func TestLRU_TTL(t *testing.T) {
	clock := newClock()
	c := NewLRU[int, string](10, time.Minute, WithClock(clock.Now))
	c.Add(1, "one")

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(1); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(1); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed on Get, Len() = %d", c.Len())
	}
}

func TestLRU_AddRestartsTTL(t *testing.T) {
	clock := newClock()
	c := NewLRU[int, int](10, time.Minute, WithClock(clock.Now))
	c.Add(1, 1)
	clock.Advance(50 * time.Second)
	c.Add(1, 2)
	clock.Advance(50 * time.Second)

	if v, ok := c.Get(1); !ok || v != 2 {
		t.Errorf("Get(1) = %d, %v; want 2, true", v, ok)
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	clock := newClock()
	c := NewLRU[int, int](10, time.Minute, WithClock(clock.Now))
	c.Add(1, 1)
	c.Add(2, 2)
	clock.Advance(30 * time.Second)
	c.Add(3, 3)
	clock.Advance(45 * time.Second)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", removed)
	}
	if !c.Contains(3) {
		t.Error("live entry removed")
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[string, int](5, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 || c.Contains("b") {
		t.Error("Clear() left entries behind")
	}
	c.Add("c", 3)
	if !c.Contains("c") {
		t.Error("cache unusable after Clear()")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[string, int](5, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")
	c.Contains("a")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int, int](0, 0)
	if c.capacity != DefaultCapacity || c.ttl != DefaultTTL {
		t.Errorf("defaults = %d, %v", c.capacity, c.ttl)
	}
}

func TestLRU_StructKey(t *testing.T) {
	type key struct {
		version int
		id      int64
	}
	c := NewLRU[key, string](2, time.Minute)
	c.Add(key{1, 7}, "v1")
	c.Add(key{2, 7}, "v2")

	if v, _ := c.Get(key{1, 7}); v != "v1" {
		t.Errorf("Get(v1) = %q", v)
	}
	if v, _ := c.Get(key{2, 7}); v != "v2" {
		t.Errorf("Get(v2) = %q", v)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (g*500+i)%150)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

func BenchmarkLRU_Get(b *testing.B) {
	c := NewLRU[int, int](1000, time.Minute)
	for i := 0; i < 1000; i++ {
		c.Add(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(i % 1000)
	}
}
