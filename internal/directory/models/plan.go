package models

import (
	"strings"
	"time"

	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
)

// Plan is one insurance plan offered by a carrier. The validity window is
// optional because carrier feeds frequently omit termination dates; the
// confidence engine treats a missing window as weaker evidence rather than
// an error.
type Plan struct {
	ID              domain.PlanID `json:"id"`
	Carrier         string        `json:"carrier"`
	Name            string        `json:"name"`
	EffectiveDate   *time.Time    `json:"effective_date,omitempty"`
	TerminationDate *time.Time    `json:"termination_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewPlan validates and constructs a plan record.
func NewPlan(id domain.PlanID, carrier, name string, effective, termination *time.Time, now time.Time) (*Plan, error) {
	carrier = strings.TrimSpace(carrier)
	name = strings.TrimSpace(name)
	if carrier == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "plan carrier cannot be empty")
	}
	if name == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "plan name cannot be empty")
	}
	if effective != nil && termination != nil && termination.Before(*effective) {
		return nil, derrors.New(derrors.CodeInvariantViolation, "plan termination date precedes effective date")
	}
	return &Plan{
		ID:              id,
		Carrier:         carrier,
		Name:            name,
		EffectiveDate:   effective,
		TerminationDate: termination,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
