// Package cache provides pluggable result caching with per-entry TTL.
//
// The orchestration core depends only on the Backend contract, so the
// in-memory backend can be swapped for Redis (or any other store)
// without touching callers.
package cache

import (
	"context"
	"math"
	"time"
)

// DefaultTTL is the expiry applied when callers pass a zero TTL.
const DefaultTTL = 300 * time.Second

// Backend is the cache contract used by tool runners.
type Backend interface {
	// Get returns the cached value for key and whether it was present
	// and unexpired. An expired entry counts as a miss.
	Get(ctx context.Context, key string) (interface{}, bool, error)

	// Set stores value under key, overwriting unconditionally and
	// resetting the expiry. A zero ttl falls back to DefaultTTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries and resets statistics.
	Clear(ctx context.Context) error

	// Stats reports hit/miss counters accumulated since creation or the
	// last Clear.
	Stats() Stats

	// Close releases any resources held by the backend.
	Close() error
}

// Stats holds cache effectiveness counters.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	TotalRequests uint64  `json:"total_requests"`
	HitRate       float64 `json:"hit_rate"`
}

// hitRate returns hits/(hits+misses) rounded to three decimals, or 0
// when there have been no requests yet.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*1000) / 1000
}
