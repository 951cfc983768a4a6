package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"caredex/internal/confidence"
	"caredex/internal/directory/metrics"
	"caredex/internal/directory/models"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/platform/sentinel"
	"caredex/pkg/requestcontext"
)

// ProviderStore persists provider records.
type ProviderStore interface {
	Create(ctx context.Context, provider *models.Provider) error
	FindByID(ctx context.Context, id domain.ProviderID) (*models.Provider, error)
	FindByNPI(ctx context.Context, npi string) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	Search(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error)
}

// PlanStore persists insurance plan records.
type PlanStore interface {
	Create(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id domain.PlanID) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
}

// AcceptanceStore persists (provider, plan) acceptance records and their
// evidence tallies.
type AcceptanceStore interface {
	Create(ctx context.Context, acceptance *models.Acceptance) error
	FindByProviderPlan(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID) (*models.Acceptance, error)
	ListByProvider(ctx context.Context, providerID domain.ProviderID) ([]*models.Acceptance, error)
	ListAll(ctx context.Context) ([]*models.Acceptance, error)
	Update(ctx context.Context, acceptance *models.Acceptance) error
}

// Service orchestrates the provider directory: CRUD over providers, plans,
// and acceptances, and evaluation of acceptance confidence on read.
type Service struct {
	providers   ProviderStore
	plans       PlanStore
	acceptances AcceptanceStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the directory service with required stores.
func New(providers ProviderStore, plans PlanStore, acceptances AcceptanceStore, opts ...Option) *Service {
	s := &Service{
		providers:   providers,
		plans:       plans,
		acceptances: acceptances,
		logger:      slog.Default(),
		tracer:      otel.Tracer("caredex/directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProvider registers a provider after checking NPI uniqueness.
func (s *Service) CreateProvider(ctx context.Context, npi, name, specialty string) (*models.Provider, error) {
	provider, err := models.NewProvider(domain.NewProviderID(), npi, name, specialty, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if _, err := s.providers.FindByNPI(ctx, npi); err == nil {
		return nil, derrors.New(derrors.CodeConflict, "a provider with this NPI already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to check NPI uniqueness")
	}

	if err := s.providers.Create(ctx, provider); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "a provider with this NPI already exists")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create provider")
	}

	if s.metrics != nil {
		s.metrics.IncrementProvidersCreated()
	}
	return provider, nil
}

// GetProvider fetches one provider by ID.
func (s *Service) GetProvider(ctx context.Context, id domain.ProviderID) (*models.Provider, error) {
	if id.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "provider_id is required")
	}
	provider, err := s.providers.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "provider")
	}
	return provider, nil
}

// SearchProviders lists providers matching the filter.
func (s *Service) SearchProviders(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error) {
	providers, err := s.providers.Search(ctx, filter.Normalize())
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to search providers")
	}
	return providers, nil
}

// DeactivateProvider marks the provider deactivated in the directory.
// Confidence on every linked plan drops on the next evaluation; no cascade
// writes are needed because the engine reads provider status live.
func (s *Service) DeactivateProvider(ctx context.Context, id domain.ProviderID) (*models.Provider, error) {
	provider, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := provider.Deactivate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.providers.Update(ctx, provider); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update provider")
	}
	s.logger.InfoContext(ctx, "provider deactivated",
		"provider_id", provider.ID,
		"npi", provider.NPI,
	)
	return provider, nil
}

// CreatePlan registers an insurance plan.
func (s *Service) CreatePlan(ctx context.Context, carrier, name string, effective, termination *time.Time) (*models.Plan, error) {
	plan, err := models.NewPlan(domain.NewPlanID(), carrier, name, effective, termination, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create plan")
	}
	return plan, nil
}

// GetPlan fetches one plan by ID.
func (s *Service) GetPlan(ctx context.Context, id domain.PlanID) (*models.Plan, error) {
	if id.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "plan_id is required")
	}
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "plan")
	}
	return plan, nil
}

// ListPlans lists every known plan.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}

// UpsertAcceptance records a primary observation that a provider does or does
// not accept a plan. Repeat observations refresh the data source fields on
// the existing record instead of creating duplicates.
func (s *Service) UpsertAcceptance(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, source confidence.Source) (*models.Acceptance, error) {

	if _, err := s.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	if _, err := s.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	existing, err := s.acceptances.FindByProviderPlan(ctx, providerID, planID)
	switch {
	case err == nil:
		existing.Status = status
		existing.DataSource = source
		existing.DataSourceDate = &now
		existing.UpdatedAt = now
		if err := s.acceptances.Update(ctx, existing); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update acceptance")
		}
		return existing, nil
	case errors.Is(err, sentinel.ErrNotFound):
		acceptance, err := models.NewAcceptance(domain.NewAcceptanceID(), providerID, planID, status, source, &now, now)
		if err != nil {
			return nil, err
		}
		if err := s.acceptances.Create(ctx, acceptance); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create acceptance")
		}
		return acceptance, nil
	default:
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load acceptance")
	}
}

func wrapStoreErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeNotFound, what+" not found")
	}
	return derrors.Wrap(err, derrors.CodeInternal, "failed to load "+what)
}
