// Package reverify runs the background sweep that flags acceptance records
// whose last verification has aged past their confidence tier's allowance.
package reverify

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"caredex/internal/confidence"
	"caredex/internal/directory/models"
	"caredex/pkg/requestcontext"
)

// DefaultInterval is how often the sweep runs when the caller passes a
// non-positive interval.
const DefaultInterval = time.Hour

// AcceptanceStore is the slice of directory persistence the sweep needs.
type AcceptanceStore interface {
	ListAll(ctx context.Context) ([]*models.Acceptance, error)
	Update(ctx context.Context, acceptance *models.Acceptance) error
}

// Metrics tracks sweep activity.
type Metrics struct {
	StaleRecords prometheus.Gauge
	Marked       prometheus.Counter
	Sweeps       prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		StaleRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "caredex_reverify_stale_records",
			Help: "Acceptance records currently flagged for reverification",
		}),
		Marked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_reverify_marked_total",
			Help: "Acceptance records newly flagged by the sweep",
		}),
		Sweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_reverify_sweeps_total",
			Help: "Completed reverification sweeps",
		}),
	}
}

// Sweeper periodically scans acceptance records and sets the
// reverification flag on stale ones.
type Sweeper struct {
	acceptances  AcceptanceStore
	interval     time.Duration
	baselineDays int
	logger       *slog.Logger
	metrics      *Metrics
}

// Option configures optional sweeper dependencies.
type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// NewSweeper constructs a sweeper. A non-positive interval falls back to
// DefaultInterval; a non-positive baseline falls back to
// confidence.DefaultBaselineDays.
func NewSweeper(acceptances AcceptanceStore, interval time.Duration, baselineDays int, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if baselineDays <= 0 {
		baselineDays = confidence.DefaultBaselineDays
	}
	s := &Sweeper{
		acceptances:  acceptances,
		interval:     interval,
		baselineDays: baselineDays,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reverification sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "reverification sweep failed", "error", err)
			}
		}
	}
}

// Sweep scans every acceptance record once and returns how many it newly
// flagged. Records already flagged count toward the stale gauge but are not
// rewritten.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	acceptances, err := s.acceptances.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	marked := 0
	stale := 0
	for _, acceptance := range acceptances {
		if ctx.Err() != nil {
			return marked, ctx.Err()
		}
		score := 0
		if acceptance.ConfidenceScore != nil {
			score = *acceptance.ConfidenceScore
		}
		if !confidence.IsStale(acceptance.LastVerifiedAt, score, s.baselineDays, now) {
			continue
		}
		stale++
		if acceptance.NeedsReverification {
			continue
		}

		acceptance.NeedsReverification = true
		acceptance.UpdatedAt = now
		if err := s.acceptances.Update(ctx, acceptance); err != nil {
			s.logger.WarnContext(ctx, "failed to flag acceptance",
				"acceptance_id", acceptance.ID,
				"error", err,
			)
			continue
		}
		marked++
	}

	if s.metrics != nil {
		s.metrics.StaleRecords.Set(float64(stale))
		s.metrics.Marked.Add(float64(marked))
		s.metrics.Sweeps.Inc()
	}
	if marked > 0 {
		s.logger.InfoContext(ctx, "reverification sweep flagged records",
			"marked", marked,
			"stale", stale,
		)
	}
	return marked, nil
}
