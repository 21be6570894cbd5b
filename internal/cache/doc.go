// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

/*
Package cache provides a thread-safe, bounded LRU cache with TTL expiry.

The recommendation engine keys served results by model version, customer
and list size, so publishing a new model never returns stale lists even
before the cache is cleared.

# Behavior

  - O(1) Get, Add and Remove (hash map plus doubly-linked list)
  - Adding beyond capacity evicts the least recently used entry
  - Expired entries are dropped lazily on Get, or in bulk by CleanupExpired
  - The clock is injectable for tests

# Usage

	c := cache.NewLRU[string, int](1000, 5*time.Minute)
	c.Add("a", 1)
	if v, ok := c.Get("a"); ok {
	    fmt.Println(v)
	}
	hits, misses, size := c.Stats()
*/
package cache
