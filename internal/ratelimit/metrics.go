package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks prometheus.Counter
	Denied prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_ratelimit_checks_total",
			Help: "Total rate limit checks performed",
		}),
		Denied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_ratelimit_denied_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}
