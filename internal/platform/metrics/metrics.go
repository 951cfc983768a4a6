// Package metrics instruments the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP tracks request counts and latency across all routes.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTP() *HTTP {
	return &HTTP{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caredex_http_requests_total",
			Help: "Total HTTP requests by method and status",
		}, []string{"method", "status"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caredex_http_request_duration_seconds",
			Help:    "HTTP request latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Middleware records one observation per request.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		m.Requests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.Duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
