// Package service orchestrates crowdsourced attestations: patient
// submissions, votes, and staff verifications, each of which feeds the crowd
// and verification evidence on acceptance records.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caredex/internal/attestation/device"
	"caredex/internal/attestation/metrics"
	"caredex/internal/attestation/models"
	"caredex/internal/audit"
	"caredex/internal/confidence"
	dirmodels "caredex/internal/directory/models"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/platform/sentinel"
	"caredex/pkg/requestcontext"
)

// DefaultDedupeWindow is how long one device is held to one submission per
// (provider, plan) pair.
const DefaultDedupeWindow = 24 * time.Hour

// SubmissionStore persists attestation submissions.
type SubmissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id domain.SubmissionID) (*models.Submission, error)
	CountRecent(ctx context.Context, fingerprint string, providerID domain.ProviderID, planID domain.PlanID, since time.Time) (int, error)
}

// AcceptanceStore is the slice of the directory's acceptance persistence the
// attestation flow needs.
type AcceptanceStore interface {
	Create(ctx context.Context, acceptance *dirmodels.Acceptance) error
	FindByProviderPlan(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID) (*dirmodels.Acceptance, error)
	Update(ctx context.Context, acceptance *dirmodels.Acceptance) error
}

// ProviderChecker verifies submission targets exist.
type ProviderChecker interface {
	FindByID(ctx context.Context, id domain.ProviderID) (*dirmodels.Provider, error)
}

// PlanChecker verifies submission targets exist.
type PlanChecker interface {
	FindByID(ctx context.Context, id domain.PlanID) (*dirmodels.Plan, error)
}

// Service handles attestation operations.
type Service struct {
	submissions  SubmissionStore
	acceptances  AcceptanceStore
	providers    ProviderChecker
	plans        PlanChecker
	device       *device.Service
	audit        audit.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	dedupeWindow time.Duration
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithDedupeWindow(window time.Duration) Option {
	return func(s *Service) { s.dedupeWindow = window }
}

// New constructs the attestation service.
func New(submissions SubmissionStore, acceptances AcceptanceStore,
	providers ProviderChecker, plans PlanChecker, dev *device.Service, opts ...Option) *Service {

	s := &Service{
		submissions:  submissions,
		acceptances:  acceptances,
		providers:    providers,
		plans:        plans,
		device:       dev,
		logger:       slog.Default(),
		dedupeWindow: DefaultDedupeWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = audit.NewLogPublisher(s.logger)
	}
	return s
}

// Submit records one patient report and bumps the crowd tallies on the
// matching acceptance record. A pair with no acceptance record yet gets one
// seeded from the crowd report itself.
func (s *Service) Submit(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, note string) (*models.Submission, error) {

	if _, err := s.providers.FindByID(ctx, providerID); err != nil {
		return nil, wrapLookupErr(err, "provider")
	}
	if _, err := s.plans.FindByID(ctx, planID); err != nil {
		return nil, wrapLookupErr(err, "plan")
	}

	now := requestcontext.Now(ctx)
	rawUA := requestcontext.UserAgent(ctx)
	fingerprint := s.device.ComputeFingerprint(rawUA)

	if fingerprint != "" {
		count, err := s.submissions.CountRecent(ctx, fingerprint, providerID, planID, now.Add(-s.dedupeWindow))
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to check submission history")
		}
		if count > 0 {
			if s.metrics != nil {
				s.metrics.DuplicatesDenied.Inc()
			}
			return nil, derrors.New(derrors.CodeConflict, "this device already reported this provider and plan recently")
		}
	}

	submission, err := models.NewSubmission(domain.NewSubmissionID(), providerID, planID,
		status, note, device.ParseUserAgent(rawUA), fingerprint, now)
	if err != nil {
		return nil, err
	}

	if err := s.bumpAcceptance(ctx, providerID, planID, status, now); err != nil {
		return nil, err
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store submission")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmissions(string(status))
	}
	s.emit(ctx, audit.Event{
		Action:      audit.ActionSubmissionCreated,
		ProviderID:  providerID.String(),
		PlanID:      planID.String(),
		Fingerprint: fingerprint,
		Detail:      string(status),
	})
	return submission, nil
}

// bumpAcceptance increments the submission tally, creating the acceptance
// record from the crowd report when the pair has never been observed.
func (s *Service) bumpAcceptance(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, now time.Time) error {

	acceptance, err := s.acceptances.FindByProviderPlan(ctx, providerID, planID)
	switch {
	case err == nil:
		acceptance.ApplySubmission(now)
		if err := s.acceptances.Update(ctx, acceptance); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update acceptance tallies")
		}
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		seeded, err := dirmodels.NewAcceptance(domain.NewAcceptanceID(), providerID, planID,
			status, confidence.SourceCrowdsource, &now, now)
		if err != nil {
			return err
		}
		seeded.ApplySubmission(now)
		if err := s.acceptances.Create(ctx, seeded); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to seed acceptance record")
		}
		return nil
	default:
		return derrors.Wrap(err, derrors.CodeInternal, "failed to load acceptance")
	}
}

// Vote applies one up or down vote to the acceptance record targeted by an
// earlier submission.
func (s *Service) Vote(ctx context.Context, submissionID domain.SubmissionID, upvote bool) (*dirmodels.Acceptance, error) {
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, wrapLookupErr(err, "submission")
	}

	acceptance, err := s.acceptances.FindByProviderPlan(ctx, submission.ProviderID, submission.PlanID)
	if err != nil {
		return nil, wrapLookupErr(err, "acceptance")
	}

	now := requestcontext.Now(ctx)
	acceptance.ApplyVote(upvote, now)
	if err := s.acceptances.Update(ctx, acceptance); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update acceptance tallies")
	}

	if s.metrics != nil {
		s.metrics.IncrementVotes(upvote)
	}
	s.emit(ctx, audit.Event{
		Action:     audit.ActionVoteCast,
		ProviderID: submission.ProviderID.String(),
		PlanID:     submission.PlanID.String(),
		Detail:     voteDirection(upvote),
	})
	return acceptance, nil
}

// RecordVerification registers a staff-performed verification (phone call,
// self-report follow-up) on the acceptance record.
func (s *Service) RecordVerification(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, source confidence.Source) (*dirmodels.Acceptance, error) {

	acceptance, err := s.acceptances.FindByProviderPlan(ctx, providerID, planID)
	if err != nil {
		return nil, wrapLookupErr(err, "acceptance")
	}

	now := requestcontext.Now(ctx)
	if err := acceptance.RecordVerification(source, status, now); err != nil {
		return nil, err
	}
	if err := s.acceptances.Update(ctx, acceptance); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store verification")
	}

	if s.metrics != nil {
		s.metrics.Verifications.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:     audit.ActionVerificationLogged,
		ProviderID: providerID.String(),
		PlanID:     planID.String(),
		Subject:    requestcontext.Subject(ctx),
		Detail:     string(source),
	})
	return acceptance, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func voteDirection(upvote bool) string {
	if upvote {
		return "up"
	}
	return "down"
}

func wrapLookupErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeNotFound, what+" not found")
	}
	return derrors.Wrap(err, derrors.CodeInternal, "failed to load "+what)
}
