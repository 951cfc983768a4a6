package service

import (
	"time"

	"caredex/internal/confidence"
	"caredex/internal/directory/models"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/testutil"
)

func (s *DirectoryServiceSuite) seedAcceptance(provider *models.Provider, plan *models.Plan) *models.Acceptance {
	acceptance, err := s.service.UpsertAcceptance(s.ctx, provider.ID, plan.ID,
		confidence.AcceptanceAccepted, confidence.SourceAuthoritativeFeed)
	s.Require().NoError(err)
	return acceptance
}

func (s *DirectoryServiceSuite) TestEvaluateAcceptance() {
	s.Run("scores the pair and caches the result on the record", func() {
		provider := s.mustCreateProvider("1234567893", "Dr. Ada Okafor", "cardiology")
		plan := s.mustCreatePlan("Acme Health", "Gold PPO")
		acceptance := s.seedAcceptance(provider, plan)

		result, err := s.service.EvaluateAcceptance(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)

		// Fresh authoritative feed datum with no verification or crowd
		// evidence scores only the data source band.
		s.Equal(30, result.Factors.DataSource.Score)
		s.Equal(0, result.Factors.Verification.Score)
		s.True(result.NeedsVerification)

		stored, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.ConfidenceScore)
		s.Equal(result.Score, *stored.ConfidenceScore)
		s.Require().NotNil(stored.ConfidenceFactors)
		s.Equal(acceptance.ID, stored.ID)
	})

	s.Run("deactivated provider caps the recommendation", func() {
		provider := s.mustCreateProvider("1598765432", "Dr. Gone", "cardiology")
		plan := s.mustCreatePlan("Zenith", "Bronze HMO")
		s.seedAcceptance(provider, plan)

		_, err := s.service.DeactivateProvider(s.ctx, provider.ID)
		s.Require().NoError(err)

		result, err := s.service.EvaluateAcceptance(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Equal(confidence.RecommendationDeactivated, result.Recommendation)
	})

	s.Run("unknown pair is not found", func() {
		provider := s.mustCreateProvider("1112223334", "Dr. Alone", "cardiology")
		plan := s.mustCreatePlan("Acme Health", "Unlinked")

		_, err := s.service.EvaluateAcceptance(s.ctx, provider.ID, plan.ID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func (s *DirectoryServiceSuite) TestProviderSummary() {
	s.Run("provider with no acceptances needs attention", func() {
		provider := s.mustCreateProvider("1000000004", "Dr. Empty", "cardiology")

		summary, err := s.service.ProviderSummary(s.ctx, provider.ID)
		s.Require().NoError(err)
		s.Equal(0, summary.Average)
		s.True(summary.NeedsAttention)
	})

	s.Run("aggregates stored scores without re-evaluating", func() {
		provider := s.mustCreateProvider("1000000012", "Dr. Stored", "cardiology")
		planA := s.mustCreatePlan("Acme Health", "Gold PPO")
		planB := s.mustCreatePlan("Zenith", "Bronze HMO")
		s.seedAcceptance(provider, planA)
		s.seedAcceptance(provider, planB)

		_, err := s.service.EvaluateAcceptance(s.ctx, provider.ID, planA.ID)
		s.Require().NoError(err)
		_, err = s.service.EvaluateAcceptance(s.ctx, provider.ID, planB.ID)
		s.Require().NoError(err)

		summary, err := s.service.ProviderSummary(s.ctx, provider.ID)
		s.Require().NoError(err)
		s.Equal(summary.Min, summary.Max, "identical evidence must score identically")
		s.Equal(summary.Min, summary.Average)
	})

	s.Run("scores unevaluated acceptances on the fly", func() {
		provider := s.mustCreateProvider("1000000020", "Dr. Lazy", "cardiology")
		plan := s.mustCreatePlan("Acme Health", "Fresh Plan")
		s.seedAcceptance(provider, plan)

		summary, err := s.service.ProviderSummary(s.ctx, provider.ID)
		s.Require().NoError(err)
		s.Greater(summary.Average, 0)

		// The lazy path must not persist scores.
		stored, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Nil(stored.ConfidenceScore)
	})
}

func (s *DirectoryServiceSuite) TestRescoreAll() {
	providers := make([]*models.Provider, 0, 3)
	plan := s.mustCreatePlan("Acme Health", "Gold PPO")
	npis := []string{"1000000004", "1000000012", "1000000020"}
	for i, npi := range npis {
		provider := s.mustCreateProvider(npi, "Dr. Batch "+string(rune('A'+i)), "cardiology")
		s.seedAcceptance(provider, plan)
		providers = append(providers, provider)
	}

	count, err := s.service.RescoreAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(len(providers), count)

	var first *int
	for _, provider := range providers {
		stored, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.ConfidenceScore, "rescore must persist every record")
		if first == nil {
			first = stored.ConfidenceScore
		} else {
			s.Equal(*first, *stored.ConfidenceScore, "batch shares one clock reading")
		}
	}
}

func (s *DirectoryServiceSuite) TestEvaluationClockInjection() {
	provider := s.mustCreateProvider("1999999992", "Dr. Clock", "cardiology")
	plan := s.mustCreatePlan("Acme Health", "Gold PPO")
	s.seedAcceptance(provider, plan)

	fresh, err := s.service.EvaluateAcceptance(s.ctx, provider.ID, plan.ID)
	s.Require().NoError(err)

	// A year later the same evidence decays.
	later := testutil.ContextAt(testNow.Add(365 * 24 * time.Hour))
	stale, err := s.service.EvaluateAcceptance(later, provider.ID, plan.ID)
	s.Require().NoError(err)

	s.Less(stale.Score, fresh.Score)
}
