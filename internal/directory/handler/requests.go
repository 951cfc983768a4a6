package handler

import (
	"strings"
	"time"

	"caredex/internal/confidence"
	derrors "caredex/pkg/domain-errors"
)

// CreateProviderRequest registers a provider in the directory.
type CreateProviderRequest struct {
	NPI       string `json:"npi"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

func (r *CreateProviderRequest) Validate() error {
	r.NPI = strings.TrimSpace(r.NPI)
	r.Name = strings.TrimSpace(r.Name)
	r.Specialty = strings.TrimSpace(r.Specialty)
	if r.NPI == "" {
		return derrors.New(derrors.CodeBadRequest, "npi is required")
	}
	if r.Name == "" {
		return derrors.New(derrors.CodeBadRequest, "name is required")
	}
	return nil
}

// CreatePlanRequest registers an insurance plan.
type CreatePlanRequest struct {
	Carrier         string     `json:"carrier"`
	Name            string     `json:"name"`
	EffectiveDate   *time.Time `json:"effective_date,omitempty"`
	TerminationDate *time.Time `json:"termination_date,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	r.Carrier = strings.TrimSpace(r.Carrier)
	r.Name = strings.TrimSpace(r.Name)
	if r.Carrier == "" {
		return derrors.New(derrors.CodeBadRequest, "carrier is required")
	}
	if r.Name == "" {
		return derrors.New(derrors.CodeBadRequest, "name is required")
	}
	return nil
}

// UpsertAcceptanceRequest records a primary observation for a
// (provider, plan) pair.
type UpsertAcceptanceRequest struct {
	Status string `json:"status"`
	Source string `json:"source"`
}

func (r *UpsertAcceptanceRequest) Validate() error {
	switch confidence.AcceptanceStatus(r.Status) {
	case confidence.AcceptanceAccepted, confidence.AcceptanceNotAccepted,
		confidence.AcceptancePending, confidence.AcceptanceUnknown:
	default:
		return derrors.Newf(derrors.CodeBadRequest, "unknown acceptance status %q", r.Status)
	}
	if r.Source != "" && !confidence.Source(r.Source).Known() {
		return derrors.Newf(derrors.CodeBadRequest, "unknown data source %q", r.Source)
	}
	return nil
}
