// Package confidence turns heterogeneous, partially-trustworthy evidence about
// one (provider, plan) pair into a single comparable trust score, a
// human-readable recommendation, and a re-verification policy decision.
//
// Every function here is a pure, total function of its inputs and an explicit
// "now" instant. The package performs no I/O, holds no state, and never
// returns errors: absent evidence contributes nothing, unknown sources weigh
// nothing, and the only failure visible to callers is a low score.
//
// Invariants:
//   - the final score is always clamped to [0,100]
//   - sub-scores stay within their bands (data source 0-30, recency 0-25,
//     verification 0-25, crowdsource 0-20)
//   - a deactivated provider can only ever reduce the verification sub-score
//   - NeedsVerification is a pure function of the final score
package confidence

import "time"

// ProviderStatus is the provider's standing in the authoritative registry.
type ProviderStatus string

const (
	ProviderActive      ProviderStatus = "active"
	ProviderDeactivated ProviderStatus = "deactivated"
)

// AcceptanceStatus is the currently believed answer to "does this provider
// accept this plan".
type AcceptanceStatus string

const (
	AcceptanceAccepted    AcceptanceStatus = "accepted"
	AcceptanceNotAccepted AcceptanceStatus = "not_accepted"
	AcceptancePending     AcceptanceStatus = "pending"
	AcceptanceUnknown     AcceptanceStatus = "unknown"
)

// Evidence is an immutable snapshot of everything known about one
// (provider, plan) pair. The persistence layer owns and assembles it; the
// engine only reads it. Optional fields are nil pointers or the zero Source.
type Evidence struct {
	// Primary data provenance.
	DataSource     Source
	DataSourceDate *time.Time

	// Human verification history.
	LastVerifiedAt     *time.Time
	VerificationSource Source
	VerificationCount  int

	// Community agreement on recorded verifications.
	Upvotes         int
	Downvotes       int
	UserSubmissions int

	// Plan validity window, when known.
	PlanEffectiveDate   *time.Time
	PlanTerminationDate *time.Time

	// Registry facts about the provider.
	ProviderLastUpdate *time.Time
	ProviderStatus     ProviderStatus

	AcceptanceStatus AcceptanceStatus
}

// Factor is one scorer's contribution: an integer sub-score within the
// scorer's band plus a short explanation of how it was reached.
type Factor struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Factors breaks the final score down by scorer.
type Factors struct {
	DataSource   Factor `json:"data_source"`
	Recency      Factor `json:"recency"`
	Verification Factor `json:"verification"`
	Crowdsource  Factor `json:"crowdsource"`
}

// Result is the engine's output for one evidence snapshot. It is constructed
// fresh on every call and has no identity or lifecycle of its own.
type Result struct {
	Score             int     `json:"score"`
	Factors           Factors `json:"factors"`
	Recommendation    string  `json:"recommendation"`
	NeedsVerification bool    `json:"needs_verification"`
}

// daysSince measures whole days between a past instant and now. Future
// instants measure as 0 days.
func daysSince(t, now time.Time) int {
	d := int(now.Sub(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
