package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"caredex/pkg/platform/httputil"
	"caredex/pkg/requestcontext"
)

// Middleware enforces a per-IP request limit on the routes it wraps.
type Middleware struct {
	store    *BucketStore
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	disabled bool
}

type Option func(*Middleware)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) { m.logger = logger }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Middleware) { m.metrics = metrics }
}

// WithDisabled turns the limiter off entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func New(limit int, window time.Duration, opts ...Option) *Middleware {
	m := &Middleware{
		store:  NewBucketStore(),
		limit:  limit,
		window: window,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// Limit wraps a handler with the per-IP sliding window check. A request
// with no resolvable client IP passes through rather than sharing one
// bucket across all such callers.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := requestcontext.ClientIP(r.Context())
		if ip == "" {
			next.ServeHTTP(w, r)
			return
		}

		result := m.store.Allow(ip, m.limit, m.window)
		if m.metrics != nil {
			m.metrics.Checks.Inc()
		}
		addRateLimitHeaders(w, result)

		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.Denied.Inc()
			}
			m.logger.WarnContext(r.Context(), "rate limit exceeded",
				"client_ip", ip,
				"retry_after", result.RetryAfter,
			)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests from this IP address. Please try again later.",
		"retry_after": result.RetryAfter,
	})
}
