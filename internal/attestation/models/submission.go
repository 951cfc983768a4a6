// Package models defines the attestation domain: crowdsourced submissions
// and votes that feed the crowd evidence of acceptance records.
package models

import (
	"strings"
	"time"

	"caredex/internal/confidence"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
)

const maxNoteLength = 500

// Submission is one patient report about a (provider, plan) pair. Submissions
// are append-only; their tallies live on the acceptance record.
type Submission struct {
	ID             domain.SubmissionID         `json:"id"`
	ProviderID     domain.ProviderID           `json:"provider_id"`
	PlanID         domain.PlanID               `json:"plan_id"`
	ReportedStatus confidence.AcceptanceStatus `json:"reported_status"`
	Note           string                      `json:"note,omitempty"`
	DeviceSummary  string                      `json:"device_summary,omitempty"`
	Fingerprint    string                      `json:"-"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// NewSubmission validates and constructs a submission.
func NewSubmission(id domain.SubmissionID, providerID domain.ProviderID, planID domain.PlanID,
	status confidence.AcceptanceStatus, note, deviceSummary, fingerprint string, now time.Time) (*Submission, error) {

	if providerID.IsNil() || planID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "submission requires provider and plan IDs")
	}
	switch status {
	case confidence.AcceptanceAccepted, confidence.AcceptanceNotAccepted:
	default:
		return nil, derrors.Newf(derrors.CodeInvalidInput, "reported status must be accepted or not_accepted, got %q", status)
	}
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, derrors.Newf(derrors.CodeInvalidInput, "note exceeds %d characters", maxNoteLength)
	}

	return &Submission{
		ID:             id,
		ProviderID:     providerID,
		PlanID:         planID,
		ReportedStatus: status,
		Note:           note,
		DeviceSummary:  deviceSummary,
		Fingerprint:    fingerprint,
		CreatedAt:      now,
	}, nil
}
