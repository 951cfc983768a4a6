// Package ratelimit provides a sliding-window request limiter keyed by
// client IP. It protects the crowdsourced attestation endpoints from a
// single client flooding the tallies.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// BucketStore tracks request timestamps per key over a sliding window. The
// sliding window avoids the burst a fixed window permits at its boundary.
type BucketStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

func NewBucketStore() *BucketStore {
	return &BucketStore{buckets: make(map[string]*slidingWindow)}
}

// Allow records one request for key if it fits under limit and reports the
// outcome. Denied requests are not recorded.
func (s *BucketStore) Allow(key string, limit int, window time.Duration) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sw := s.buckets[key]
	if sw == nil {
		sw = &slidingWindow{window: window}
		s.buckets[key] = sw
	}
	sw.cleanup(now)

	if len(sw.timestamps) >= limit {
		oldest := sw.timestamps[0]
		resetAt := oldest.Add(window)
		retry := int(time.Until(resetAt).Seconds()) + 1
		if retry < 1 {
			retry = 1
		}
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}
}

// Reset clears the window for a key.
func (s *BucketStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}

// Count reports how many requests are currently inside the key's window.
func (s *BucketStore) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.buckets[key]
	if sw == nil {
		return 0
	}
	sw.cleanup(time.Now())
	return len(sw.timestamps)
}

func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
