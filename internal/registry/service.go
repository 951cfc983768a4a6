package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"caredex/internal/confidence"
	"caredex/internal/directory/models"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/platform/sentinel"
	"caredex/pkg/requestcontext"
)

// ProviderStore is the slice of directory persistence the sync needs.
type ProviderStore interface {
	FindByID(ctx context.Context, id domain.ProviderID) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	Search(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error)
}

// Metrics tracks registry sync activity.
type Metrics struct {
	Lookups       prometheus.Counter
	CacheHits     prometheus.Counter
	Deactivations prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_registry_lookups_total",
			Help: "Total upstream registry lookups",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_registry_cache_hits_total",
			Help: "Registry lookups served from cache",
		}),
		Deactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_registry_deactivations_total",
			Help: "Providers deactivated by registry sync",
		}),
	}
}

// Service refreshes provider standing from the authoritative registry.
type Service struct {
	client    Client
	cache     Cache
	providers ProviderStore
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the registry sync service.
func NewService(client Client, cache Cache, providers ProviderStore, opts ...Option) *Service {
	s := &Service{
		client:    client,
		cache:     cache,
		providers: providers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh pulls the registry record for one provider and applies its status
// to the directory. A missing registry entry is treated as a deactivation:
// the authoritative feed no longer lists the provider.
func (s *Service) Refresh(ctx context.Context, providerID domain.ProviderID) (*models.Provider, error) {
	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "provider not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load provider")
	}

	record, err := s.lookup(ctx, provider.NPI)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.applyMissing(ctx, provider)
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "registry lookup failed")
	}

	now := requestcontext.Now(ctx)
	wasActive := provider.IsActive()
	provider.ApplyRegistryStatus(record.Status, &record.LastUpdated, now)
	if err := s.providers.Update(ctx, provider); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update provider")
	}

	if wasActive && !provider.IsActive() {
		if s.metrics != nil {
			s.metrics.Deactivations.Inc()
		}
		s.logger.InfoContext(ctx, "provider deactivated by registry",
			"provider_id", provider.ID,
			"npi", provider.NPI,
		)
	}
	return provider, nil
}

func (s *Service) applyMissing(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	if !provider.IsActive() {
		return provider, nil
	}
	now := requestcontext.Now(ctx)
	provider.ApplyRegistryStatus(confidence.ProviderDeactivated, nil, now)
	if err := s.providers.Update(ctx, provider); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update provider")
	}
	if s.metrics != nil {
		s.metrics.Deactivations.Inc()
	}
	s.logger.WarnContext(ctx, "provider missing from registry, deactivated",
		"provider_id", provider.ID,
		"npi", provider.NPI,
	)
	return provider, nil
}

func (s *Service) lookup(ctx context.Context, npi string) (Record, error) {
	if s.cache != nil {
		if record, ok := s.cache.Get(ctx, npi); ok {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return record, nil
		}
	}

	if s.metrics != nil {
		s.metrics.Lookups.Inc()
	}
	record, err := s.client.Lookup(ctx, npi)
	if err != nil {
		return Record{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, npi, record)
	}
	return record, nil
}

// RefreshAll refreshes every provider currently in the directory. Errors on
// individual providers are logged and skipped so one bad record does not
// abort the sweep.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	providers, err := s.providers.Search(ctx, models.SearchFilter{Limit: 500}.Normalize())
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to list providers")
	}

	refreshed := 0
	for _, provider := range providers {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.Refresh(ctx, provider.ID); err != nil {
			s.logger.WarnContext(ctx, "registry refresh failed",
				"provider_id", provider.ID,
				"error", err,
			)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
