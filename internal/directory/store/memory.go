// Package store provides the directory's persistence implementations: an
// in-memory variant for single-node deployments and tests, and a PostgreSQL
// variant for production.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"caredex/internal/directory/models"
	"caredex/pkg/domain"
	"caredex/pkg/platform/sentinel"
)

// In-memory stores keep the initial implementation lightweight and testable.
// They intentionally favor clarity over performance.

// InMemoryProviders implements service.ProviderStore with a map.
type InMemoryProviders struct {
	mu        sync.RWMutex
	providers map[domain.ProviderID]models.Provider
	byNPI     map[string]domain.ProviderID

	// acceptances is consulted for plan and min-score search filters; nil
	// disables those filters.
	acceptances *InMemoryAcceptances
}

// NewInMemoryProviders creates an empty provider store. Passing the
// acceptance store enables plan and score search filters.
func NewInMemoryProviders(acceptances *InMemoryAcceptances) *InMemoryProviders {
	return &InMemoryProviders{
		providers:   make(map[domain.ProviderID]models.Provider),
		byNPI:       make(map[string]domain.ProviderID),
		acceptances: acceptances,
	}
}

func (s *InMemoryProviders) Create(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNPI[provider.NPI]; ok {
		return sentinel.ErrConflict
	}
	s.providers[provider.ID] = *provider
	s.byNPI[provider.NPI] = provider.ID
	return nil
}

func (s *InMemoryProviders) FindByID(_ context.Context, id domain.ProviderID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if provider, ok := s.providers[id]; ok {
		return &provider, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProviders) FindByNPI(_ context.Context, npi string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byNPI[npi]; ok {
		provider := s.providers[id]
		return &provider, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProviders) Update(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[provider.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.providers[provider.ID] = *provider
	return nil
}

func (s *InMemoryProviders) Search(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error) {
	s.mu.RLock()
	matched := make([]*models.Provider, 0)
	for _, provider := range s.providers {
		if filter.Specialty != "" && !strings.EqualFold(provider.Specialty, filter.Specialty) {
			continue
		}
		p := provider
		matched = append(matched, &p)
	}
	s.mu.RUnlock()

	if s.acceptances != nil && (!filter.PlanID.IsNil() || filter.MinScore != nil) {
		matched = s.filterByAcceptance(ctx, matched, filter)
	}

	// Deterministic order for paging and tests.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	if len(matched) > filter.Limit && filter.Limit > 0 {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryProviders) filterByAcceptance(ctx context.Context, providers []*models.Provider, filter models.SearchFilter) []*models.Provider {
	kept := providers[:0]
	for _, provider := range providers {
		accs, err := s.acceptances.ListByProvider(ctx, provider.ID)
		if err != nil {
			continue
		}
		for _, acc := range accs {
			if !filter.PlanID.IsNil() && acc.PlanID != filter.PlanID {
				continue
			}
			if filter.MinScore != nil && (acc.ConfidenceScore == nil || *acc.ConfidenceScore < *filter.MinScore) {
				continue
			}
			kept = append(kept, provider)
			break
		}
	}
	return kept
}

// InMemoryPlans implements service.PlanStore with a map.
type InMemoryPlans struct {
	mu    sync.RWMutex
	plans map[domain.PlanID]models.Plan
}

func NewInMemoryPlans() *InMemoryPlans {
	return &InMemoryPlans{plans: make(map[domain.PlanID]models.Plan)}
}

func (s *InMemoryPlans) Create(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = *plan
	return nil
}

func (s *InMemoryPlans) FindByID(_ context.Context, id domain.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if plan, ok := s.plans[id]; ok {
		return &plan, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPlans) List(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]*models.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		p := plan
		plans = append(plans, &p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Carrier != plans[j].Carrier {
			return plans[i].Carrier < plans[j].Carrier
		}
		return plans[i].Name < plans[j].Name
	})
	return plans, nil
}

// InMemoryAcceptances implements service.AcceptanceStore with a map.
type InMemoryAcceptances struct {
	mu          sync.RWMutex
	acceptances map[domain.AcceptanceID]models.Acceptance
	byPair      map[pairKey]domain.AcceptanceID
}

type pairKey struct {
	provider domain.ProviderID
	plan     domain.PlanID
}

func NewInMemoryAcceptances() *InMemoryAcceptances {
	return &InMemoryAcceptances{
		acceptances: make(map[domain.AcceptanceID]models.Acceptance),
		byPair:      make(map[pairKey]domain.AcceptanceID),
	}
}

func (s *InMemoryAcceptances) Create(_ context.Context, acceptance *models.Acceptance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{acceptance.ProviderID, acceptance.PlanID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	s.acceptances[acceptance.ID] = *acceptance
	s.byPair[key] = acceptance.ID
	return nil
}

func (s *InMemoryAcceptances) FindByProviderPlan(_ context.Context, providerID domain.ProviderID, planID domain.PlanID) (*models.Acceptance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byPair[pairKey{providerID, planID}]; ok {
		acceptance := s.acceptances[id]
		return &acceptance, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryAcceptances) ListByProvider(_ context.Context, providerID domain.ProviderID) ([]*models.Acceptance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Acceptance
	for _, acceptance := range s.acceptances {
		if acceptance.ProviderID == providerID {
			a := acceptance
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryAcceptances) ListAll(_ context.Context) ([]*models.Acceptance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Acceptance, 0, len(s.acceptances))
	for _, acceptance := range s.acceptances {
		a := acceptance
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryAcceptances) Update(_ context.Context, acceptance *models.Acceptance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acceptances[acceptance.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.acceptances[acceptance.ID] = *acceptance
	return nil
}
