package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attestation module.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	Votes            *prometheus.CounterVec
	Verifications    prometheus.Counter
	DuplicatesDenied prometheus.Counter
}

// New creates a Metrics instance with all attestation module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caredex_attestation_submissions_total",
			Help: "Total crowdsourced submissions by reported status",
		}, []string{"status"}),
		Votes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caredex_attestation_votes_total",
			Help: "Total votes cast on acceptance records by direction",
		}, []string{"direction"}),
		Verifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_attestation_verifications_total",
			Help: "Total staff verifications recorded",
		}),
		DuplicatesDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_attestation_duplicates_denied_total",
			Help: "Submissions rejected because the same device already reported the pair recently",
		}),
	}
}

func (m *Metrics) IncrementSubmissions(status string) {
	m.Submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementVotes(upvote bool) {
	direction := "down"
	if upvote {
		direction = "up"
	}
	m.Votes.WithLabelValues(direction).Inc()
}
