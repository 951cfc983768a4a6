package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caredex/pkg/requestcontext"
)

func TestBucketAllowsUpToLimit(t *testing.T) {
	store := NewBucketStore()

	for i := 0; i < 5; i++ {
		result := store.Allow("203.0.113.9", 5, time.Minute)
		require.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}

	result := store.Allow("203.0.113.9", 5, time.Minute)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.GreaterOrEqual(t, result.RetryAfter, 1)
}

func TestBucketKeysAreIndependent(t *testing.T) {
	store := NewBucketStore()

	for i := 0; i < 3; i++ {
		store.Allow("203.0.113.9", 3, time.Minute)
	}
	assert.False(t, store.Allow("203.0.113.9", 3, time.Minute).Allowed)
	assert.True(t, store.Allow("198.51.100.7", 3, time.Minute).Allowed)
}

func TestBucketWindowSlides(t *testing.T) {
	store := NewBucketStore()

	store.Allow("203.0.113.9", 1, 20*time.Millisecond)
	assert.False(t, store.Allow("203.0.113.9", 1, 20*time.Millisecond).Allowed)

	time.Sleep(30 * time.Millisecond)
	assert.True(t, store.Allow("203.0.113.9", 1, 20*time.Millisecond).Allowed)
}

func TestBucketResetClearsKey(t *testing.T) {
	store := NewBucketStore()

	store.Allow("203.0.113.9", 1, time.Minute)
	assert.False(t, store.Allow("203.0.113.9", 1, time.Minute).Allowed)

	store.Reset("203.0.113.9")
	assert.True(t, store.Allow("203.0.113.9", 1, time.Minute).Allowed)
}

func TestBucketConcurrentAccess(t *testing.T) {
	store := NewBucketStore()

	var wg sync.WaitGroup
	allowed := make([]bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allowed[i] = store.Allow("203.0.113.9", 10, time.Minute).Allowed
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, ok := range allowed {
		if ok {
			granted++
		}
	}
	assert.Equal(t, 10, granted)
	assert.Equal(t, 10, store.Count("203.0.113.9"))
}

func limitedHandler(m *Middleware, ip string) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.UserAgent())
		m.Limit(inner).ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	m := New(2, time.Minute)
	handler := limitedHandler(m, "203.0.113.9")

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestMiddlewarePassesWithoutClientIP(t *testing.T) {
	m := New(1, time.Minute)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := m.Limit(inner)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	m := New(1, time.Minute, WithDisabled(true))
	handler := limitedHandler(m, "203.0.113.9")

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attestations", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
