// Package domain defines typed identifiers shared across modules.
//
// Each aggregate gets its own UUID-backed type so the compiler rejects
// cross-type assignment (a ProviderID can never be passed where a PlanID is
// expected). Parse functions enforce the trust-boundary invariant that IDs
// are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	derrors "caredex/pkg/domain-errors"
)

type (
	// ProviderID identifies a healthcare provider record.
	ProviderID uuid.UUID
	// PlanID identifies an insurance plan.
	PlanID uuid.UUID
	// AcceptanceID identifies a (provider, plan) acceptance record.
	AcceptanceID uuid.UUID
	// SubmissionID identifies a crowdsourced attestation submission.
	SubmissionID uuid.UUID
)

func (id ProviderID) String() string   { return uuid.UUID(id).String() }
func (id PlanID) String() string       { return uuid.UUID(id).String() }
func (id AcceptanceID) String() string { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }

func (id ProviderID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AcceptanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's encoding methods, so each ID
// implements encoding.TextMarshaler explicitly to serialize as the canonical
// UUID string.

func (id ProviderID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id PlanID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id AcceptanceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ProviderID) UnmarshalText(b []byte) error {
	parsed, err := ParseProviderID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PlanID) UnmarshalText(b []byte) error {
	parsed, err := ParsePlanID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AcceptanceID) UnmarshalText(b []byte) error {
	parsed, err := ParseAcceptanceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubmissionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubmissionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewProviderID returns a fresh random provider ID.
func NewProviderID() ProviderID { return ProviderID(uuid.New()) }

// NewPlanID returns a fresh random plan ID.
func NewPlanID() PlanID { return PlanID(uuid.New()) }

// NewAcceptanceID returns a fresh random acceptance ID.
func NewAcceptanceID() AcceptanceID { return AcceptanceID(uuid.New()) }

// NewSubmissionID returns a fresh random submission ID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// ParseProviderID parses and validates a provider ID from its string form.
func ParseProviderID(s string) (ProviderID, error) {
	u, err := parseUUID(s, "provider_id")
	return ProviderID(u), err
}

// ParsePlanID parses and validates a plan ID from its string form.
func ParsePlanID(s string) (PlanID, error) {
	u, err := parseUUID(s, "plan_id")
	return PlanID(u), err
}

// ParseAcceptanceID parses and validates an acceptance ID from its string form.
func ParseAcceptanceID(s string) (AcceptanceID, error) {
	u, err := parseUUID(s, "acceptance_id")
	return AcceptanceID(u), err
}

// ParseSubmissionID parses and validates a submission ID from its string form.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s, "submission_id")
	return SubmissionID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s is required", field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s is not a valid UUID", field)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s must not be the nil UUID", field)
	}
	return u, nil
}
