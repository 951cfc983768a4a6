package confidence

import "time"

// DefaultBaselineDays is the staleness baseline when the caller passes a
// non-positive value.
const DefaultBaselineDays = 90

// IsStale decides whether a record's last verification is old enough,
// relative to its confidence tier, to warrant prompting for a fresh check.
// High-confidence records earn a longer leash; a record that was never
// verified is always stale.
func IsStale(lastVerifiedAt *time.Time, confidenceScore, baselineDays int, now time.Time) bool {
	if lastVerifiedAt == nil {
		return true
	}
	if baselineDays <= 0 {
		baselineDays = DefaultBaselineDays
	}

	var multiplier float64
	switch {
	case confidenceScore >= 90:
		multiplier = 2
	case confidenceScore >= 75:
		multiplier = 1.5
	case confidenceScore >= 50:
		multiplier = 1
	default:
		multiplier = 0.5
	}

	allowedDays := float64(baselineDays) * multiplier
	return now.Sub(*lastVerifiedAt).Hours()/24 >= allowedDays
}
