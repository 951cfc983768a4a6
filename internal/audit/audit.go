// Package audit emits structured events for attestation activity. Events fan
// out to Kafka when brokers are configured and fall back to structured logs
// otherwise, so domain code never branches on deployment shape.
package audit

import (
	"context"
	"time"
)

// Actions emitted by the attestation domain.
const (
	ActionSubmissionCreated  = "attestation.submitted"
	ActionVoteCast           = "attestation.voted"
	ActionVerificationLogged = "attestation.verified"
)

// Event is one audit record. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	ProviderID  string    `json:"provider_id"`
	PlanID      string    `json:"plan_id"`
	Subject     string    `json:"subject,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// Publisher delivers audit events to a sink. Implementations must be safe for
// concurrent use and must not block request handling on sink latency.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close()
}

func stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
