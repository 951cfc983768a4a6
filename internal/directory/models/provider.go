package models

import (
	"regexp"
	"strings"
	"time"

	"caredex/internal/confidence"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
)

var npiPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Provider is a healthcare provider listed in the directory.
//
// Invariants:
//   - NPI is exactly ten digits and unique across the directory
//   - Name is non-empty and at most 256 characters
//   - Status mirrors the authoritative registry: active or deactivated
//
// Deactivation is not a delete: the record stays visible so patients see the
// warning instead of a vanished provider, and the confidence engine applies
// its penalty to every plan the provider is linked to.
type Provider struct {
	ID                 domain.ProviderID         `json:"id"`
	NPI                string                    `json:"npi"`
	Name               string                    `json:"name"`
	Specialty          string                    `json:"specialty"`
	Status             confidence.ProviderStatus `json:"status"`
	LastRegistryUpdate *time.Time                `json:"last_registry_update,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewProvider validates and constructs a provider record.
func NewProvider(id domain.ProviderID, npi, name, specialty string, now time.Time) (*Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "provider name cannot be empty")
	}
	if len(name) > 256 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "provider name must be 256 characters or less")
	}
	if !npiPattern.MatchString(npi) {
		return nil, derrors.New(derrors.CodeInvariantViolation, "NPI must be exactly ten digits")
	}
	return &Provider{
		ID:        id,
		NPI:       npi,
		Name:      name,
		Specialty: strings.TrimSpace(specialty),
		Status:    confidence.ProviderActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Provider) IsActive() bool {
	return p.Status == confidence.ProviderActive
}

// ApplyRegistryStatus records the provider's standing as reported by the
// authoritative registry feed.
func (p *Provider) ApplyRegistryStatus(status confidence.ProviderStatus, registryUpdated *time.Time, now time.Time) {
	p.Status = status
	p.LastRegistryUpdate = registryUpdated
	p.UpdatedAt = now
}

// Deactivate marks the provider deactivated. Returns an error when already
// deactivated so callers can distinguish a no-op from a transition.
func (p *Provider) Deactivate(now time.Time) error {
	if p.Status == confidence.ProviderDeactivated {
		return derrors.New(derrors.CodeInvariantViolation, "provider is already deactivated")
	}
	p.Status = confidence.ProviderDeactivated
	p.UpdatedAt = now
	return nil
}

// Reactivate returns the provider to active standing.
func (p *Provider) Reactivate(now time.Time) error {
	if p.Status == confidence.ProviderActive {
		return derrors.New(derrors.CodeInvariantViolation, "provider is already active")
	}
	p.Status = confidence.ProviderActive
	p.UpdatedAt = now
	return nil
}
