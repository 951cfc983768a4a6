package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caredex/internal/attestation/device"
	attstore "caredex/internal/attestation/store"
	"caredex/internal/audit"
	"caredex/internal/confidence"
	dirmodels "caredex/internal/directory/models"
	dirstore "caredex/internal/directory/store"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/requestcontext"
	"caredex/pkg/testutil"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// capturingPublisher records emitted audit events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *capturingPublisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) Close() {}

func (p *capturingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]string, len(p.events))
	for i, e := range p.events {
		actions[i] = e.Action
	}
	return actions
}

type AttestationServiceSuite struct {
	suite.Suite
	providers   *dirstore.InMemoryProviders
	plans       *dirstore.InMemoryPlans
	acceptances *dirstore.InMemoryAcceptances
	submissions *attstore.InMemorySubmissions
	publisher   *capturingPublisher
	service     *Service
	ctx         context.Context
	npiSeq      int
}

func TestAttestationServiceSuite(t *testing.T) {
	suite.Run(t, new(AttestationServiceSuite))
}

func (s *AttestationServiceSuite) SetupTest() {
	s.acceptances = dirstore.NewInMemoryAcceptances()
	s.providers = dirstore.NewInMemoryProviders(s.acceptances)
	s.plans = dirstore.NewInMemoryPlans()
	s.submissions = attstore.NewInMemorySubmissions()
	s.publisher = &capturingPublisher{}
	s.service = New(s.submissions, s.acceptances, s.providers, s.plans,
		device.NewService(true), WithAudit(s.publisher))
	s.ctx = requestcontext.WithClientMetadata(testutil.ContextAt(testNow), "203.0.113.9", chromeUA)
}

// seedPair creates a fresh provider and plan. NPIs are sequenced so subtests
// sharing one store never trip the uniqueness check.
func (s *AttestationServiceSuite) seedPair() (*dirmodels.Provider, *dirmodels.Plan) {
	s.npiSeq++
	provider, err := dirmodels.NewProvider(domain.NewProviderID(), fmt.Sprintf("19%08d", s.npiSeq), "Dr. Ada Okafor", "cardiology", testNow)
	s.Require().NoError(err)
	s.Require().NoError(s.providers.Create(s.ctx, provider))

	plan, err := dirmodels.NewPlan(domain.NewPlanID(), "Acme Health", "Gold PPO", nil, nil, testNow)
	s.Require().NoError(err)
	s.Require().NoError(s.plans.Create(s.ctx, plan))
	return provider, plan
}

func (s *AttestationServiceSuite) seedAcceptance(provider *dirmodels.Provider, plan *dirmodels.Plan) *dirmodels.Acceptance {
	acceptance, err := dirmodels.NewAcceptance(domain.NewAcceptanceID(), provider.ID, plan.ID,
		confidence.AcceptanceAccepted, confidence.SourceCarrierFeed, &testNow, testNow)
	s.Require().NoError(err)
	s.Require().NoError(s.acceptances.Create(s.ctx, acceptance))
	return acceptance
}

func (s *AttestationServiceSuite) TestSubmit() {
	s.Run("bumps the submission tally on the existing acceptance", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		submission, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "front desk confirmed")
		s.Require().NoError(err)
		s.Contains(submission.DeviceSummary, "Chrome")
		s.NotEmpty(submission.Fingerprint)

		acceptance, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Equal(1, acceptance.UserSubmissions)
		s.Contains(s.publisher.actions(), audit.ActionSubmissionCreated)
	})

	s.Run("seeds an acceptance record for a never-observed pair", func() {
		provider, plan := s.seedPair()

		_, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceNotAccepted, "")
		s.Require().NoError(err)

		acceptance, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Equal(confidence.AcceptanceNotAccepted, acceptance.Status)
		s.Equal(confidence.SourceCrowdsource, acceptance.DataSource)
		s.Equal(1, acceptance.UserSubmissions)
	})

	s.Run("rejects repeat submission from the same device within the window", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		_, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().NoError(err)

		_, err = s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeConflict))

		acceptance, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
		s.Require().NoError(err)
		s.Equal(1, acceptance.UserSubmissions, "duplicate must not bump the tally")
	})

	s.Run("allows the same device again after the window passes", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		_, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().NoError(err)

		later := requestcontext.WithClientMetadata(
			testutil.ContextAt(testNow.Add(DefaultDedupeWindow+time.Hour)), "203.0.113.9", chromeUA)
		_, err = s.service.Submit(later, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().NoError(err)
	})

	s.Run("rejects unknown provider", func() {
		_, plan := s.seedPair()
		_, err := s.service.Submit(s.ctx, domain.NewProviderID(), plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("rejects pending as a reported status", func() {
		provider, plan := s.seedPair()
		_, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptancePending, "")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvalidInput))
	})
}

func (s *AttestationServiceSuite) TestVote() {
	s.Run("applies votes to the submission's acceptance", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		submission, err := s.service.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
		s.Require().NoError(err)

		acceptance, err := s.service.Vote(s.ctx, submission.ID, true)
		s.Require().NoError(err)
		s.Equal(1, acceptance.Upvotes)

		acceptance, err = s.service.Vote(s.ctx, submission.ID, false)
		s.Require().NoError(err)
		s.Equal(1, acceptance.Downvotes)
		s.Contains(s.publisher.actions(), audit.ActionVoteCast)
	})

	s.Run("unknown submission is not found", func() {
		_, err := s.service.Vote(s.ctx, domain.NewSubmissionID(), true)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func (s *AttestationServiceSuite) TestRecordVerification() {
	s.Run("records verification evidence on the acceptance", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		acceptance, err := s.service.RecordVerification(s.ctx, provider.ID, plan.ID,
			confidence.AcceptanceAccepted, confidence.SourcePhoneCall)
		s.Require().NoError(err)
		s.Equal(1, acceptance.VerificationCount)
		s.Equal(confidence.SourcePhoneCall, acceptance.VerificationSource)
		s.Require().NotNil(acceptance.LastVerifiedAt)
		s.True(acceptance.LastVerifiedAt.Equal(testNow))
		s.False(acceptance.NeedsReverification)
		s.Contains(s.publisher.actions(), audit.ActionVerificationLogged)
	})

	s.Run("verification of a never-observed pair is not found", func() {
		provider, plan := s.seedPair()
		_, err := s.service.RecordVerification(s.ctx, provider.ID, plan.ID,
			confidence.AcceptanceAccepted, confidence.SourcePhoneCall)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("rejects unknown source", func() {
		provider, plan := s.seedPair()
		s.seedAcceptance(provider, plan)

		_, err := s.service.RecordVerification(s.ctx, provider.ID, plan.ID,
			confidence.AcceptanceAccepted, confidence.Source("gossip"))
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvariantViolation))
	})
}

func (s *AttestationServiceSuite) TestFingerprintDisabled() {
	svc := New(s.submissions, s.acceptances, s.providers, s.plans,
		device.NewService(false), WithAudit(s.publisher))
	provider, plan := s.seedPair()
	s.seedAcceptance(provider, plan)

	// Without fingerprinting there is no dedupe.
	_, err := svc.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
	s.Require().NoError(err)
	_, err = svc.Submit(s.ctx, provider.ID, plan.ID, confidence.AcceptanceAccepted, "")
	s.Require().NoError(err)

	acceptance, err := s.acceptances.FindByProviderPlan(s.ctx, provider.ID, plan.ID)
	s.Require().NoError(err)
	s.Equal(2, acceptance.UserSubmissions)
}
