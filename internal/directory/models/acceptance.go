package models

import (
	"time"

	"caredex/internal/confidence"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
)

// Acceptance is the record of whether one provider accepts one plan, together
// with every piece of evidence the confidence engine scores: provenance of the
// primary datum, verification history, and crowd tallies. The stored score and
// factors are a cache of the last evaluation, not a source of truth; the
// engine recomputes them from the evidence on demand.
type Acceptance struct {
	ID         domain.AcceptanceID `json:"id"`
	ProviderID domain.ProviderID   `json:"provider_id"`
	PlanID     domain.PlanID       `json:"plan_id"`

	Status         confidence.AcceptanceStatus `json:"status"`
	DataSource     confidence.Source           `json:"data_source,omitempty"`
	DataSourceDate *time.Time                  `json:"data_source_date,omitempty"`

	LastVerifiedAt     *time.Time        `json:"last_verified_at,omitempty"`
	VerificationSource confidence.Source `json:"verification_source,omitempty"`
	VerificationCount  int               `json:"verification_count"`

	Upvotes         int `json:"upvotes"`
	Downvotes       int `json:"downvotes"`
	UserSubmissions int `json:"user_submissions"`

	ConfidenceScore     *int                `json:"confidence_score,omitempty"`
	ConfidenceFactors   *confidence.Factors `json:"confidence_factors,omitempty"`
	NeedsReverification bool                `json:"needs_reverification"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAcceptance constructs an acceptance record from a primary data source
// observation.
func NewAcceptance(id domain.AcceptanceID, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, source confidence.Source, sourceDate *time.Time, now time.Time) (*Acceptance, error) {

	if providerID.IsNil() || planID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "acceptance requires provider and plan IDs")
	}
	switch status {
	case confidence.AcceptanceAccepted, confidence.AcceptanceNotAccepted,
		confidence.AcceptancePending, confidence.AcceptanceUnknown:
	default:
		return nil, derrors.Newf(derrors.CodeInvariantViolation, "unknown acceptance status %q", status)
	}
	if source != "" && !source.Known() {
		return nil, derrors.Newf(derrors.CodeInvariantViolation, "unknown data source %q", source)
	}

	return &Acceptance{
		ID:             id,
		ProviderID:     providerID,
		PlanID:         planID,
		Status:         status,
		DataSource:     source,
		DataSourceDate: sourceDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RecordVerification registers a fresh human or system verification and
// clears any pending re-verification flag.
func (a *Acceptance) RecordVerification(source confidence.Source, status confidence.AcceptanceStatus, now time.Time) error {
	if !source.Known() {
		return derrors.Newf(derrors.CodeInvariantViolation, "unknown verification source %q", source)
	}
	t := now
	a.LastVerifiedAt = &t
	a.VerificationSource = source
	a.VerificationCount++
	a.Status = status
	a.NeedsReverification = false
	a.UpdatedAt = now
	return nil
}

// ApplyVote tallies one community vote on the record's verifications.
func (a *Acceptance) ApplyVote(upvote bool, now time.Time) {
	if upvote {
		a.Upvotes++
	} else {
		a.Downvotes++
	}
	a.UpdatedAt = now
}

// ApplySubmission tallies one independent crowd submission.
func (a *Acceptance) ApplySubmission(now time.Time) {
	a.UserSubmissions++
	a.UpdatedAt = now
}

// ApplyScore caches the engine's latest evaluation on the record.
func (a *Acceptance) ApplyScore(result confidence.Result, now time.Time) {
	score := result.Score
	factors := result.Factors
	a.ConfidenceScore = &score
	a.ConfidenceFactors = &factors
	a.UpdatedAt = now
}

// Evidence assembles the engine's input snapshot from this record and its
// provider and plan. This is the single place where persistence shape maps to
// engine shape.
func (a *Acceptance) Evidence(provider *Provider, plan *Plan) confidence.Evidence {
	ev := confidence.Evidence{
		DataSource:         a.DataSource,
		DataSourceDate:     a.DataSourceDate,
		LastVerifiedAt:     a.LastVerifiedAt,
		VerificationSource: a.VerificationSource,
		VerificationCount:  a.VerificationCount,
		Upvotes:            a.Upvotes,
		Downvotes:          a.Downvotes,
		UserSubmissions:    a.UserSubmissions,
		AcceptanceStatus:   a.Status,
	}
	if provider != nil {
		ev.ProviderStatus = provider.Status
		ev.ProviderLastUpdate = provider.LastRegistryUpdate
	}
	if plan != nil {
		ev.PlanEffectiveDate = plan.EffectiveDate
		ev.PlanTerminationDate = plan.TerminationDate
	}
	return ev
}
