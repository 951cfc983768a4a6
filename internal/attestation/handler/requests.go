package handler

import (
	"caredex/internal/confidence"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
)

// SubmitRequest is one crowdsourced report about a (provider, plan) pair.
type SubmitRequest struct {
	ProviderID domain.ProviderID `json:"provider_id"`
	PlanID     domain.PlanID     `json:"plan_id"`
	Status     string            `json:"status"`
	Note       string            `json:"note,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	if r.ProviderID.IsNil() {
		return derrors.New(derrors.CodeBadRequest, "provider_id is required")
	}
	if r.PlanID.IsNil() {
		return derrors.New(derrors.CodeBadRequest, "plan_id is required")
	}
	switch confidence.AcceptanceStatus(r.Status) {
	case confidence.AcceptanceAccepted, confidence.AcceptanceNotAccepted:
		return nil
	default:
		return derrors.Newf(derrors.CodeBadRequest, "status must be accepted or not_accepted, got %q", r.Status)
	}
}

// VoteRequest casts a vote on the acceptance a submission reported.
type VoteRequest struct {
	Upvote bool `json:"upvote"`
}

// VerificationRequest records a staff verification outcome.
type VerificationRequest struct {
	ProviderID domain.ProviderID `json:"provider_id"`
	PlanID     domain.PlanID     `json:"plan_id"`
	Status     string            `json:"status"`
	Source     string            `json:"source"`
}

func (r *VerificationRequest) Validate() error {
	if r.ProviderID.IsNil() {
		return derrors.New(derrors.CodeBadRequest, "provider_id is required")
	}
	if r.PlanID.IsNil() {
		return derrors.New(derrors.CodeBadRequest, "plan_id is required")
	}
	switch confidence.AcceptanceStatus(r.Status) {
	case confidence.AcceptanceAccepted, confidence.AcceptanceNotAccepted,
		confidence.AcceptancePending, confidence.AcceptanceUnknown:
	default:
		return derrors.Newf(derrors.CodeBadRequest, "unknown acceptance status %q", r.Status)
	}
	source := confidence.Source(r.Source)
	if !source.Known() {
		return derrors.Newf(derrors.CodeBadRequest, "unknown verification source %q", r.Source)
	}
	return nil
}
