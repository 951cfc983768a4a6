package confidence

// Recommendation texts. Status special cases outrank score bands: a
// deactivated provider gets the deactivation warning no matter how well the
// stale evidence once scored.
const (
	RecommendationDeactivated = "Provider's NPI is deactivated in the registry; contact the practice directly to confirm they are still seeing patients."
	RecommendationLikelyNot   = "Provider likely does not accept this plan, but the data is uncertain; verify before scheduling."
	RecommendationNotAccepted = "Provider does not accept this plan per available data."
	RecommendationNoData      = "No acceptance data available; contact the provider to confirm."
	RecommendationHigh        = "High confidence; this information is well-verified."
	RecommendationGood        = "Good confidence; consider confirming for important visits."
	RecommendationModerate    = "Moderate confidence; we recommend calling the provider to confirm."
	RecommendationLow         = "Low confidence; strongly recommend verifying with the provider."
	RecommendationVeryLow     = "Very low confidence; verification required before relying on this information."
)

// recommend maps a score and the evidence's status flags to guidance text.
// Cases are evaluated in priority order; the first match wins.
func recommend(ev Evidence, score int) string {
	switch {
	case ev.ProviderStatus == ProviderDeactivated:
		return RecommendationDeactivated
	case ev.AcceptanceStatus == AcceptanceNotAccepted:
		if score < 50 {
			return RecommendationLikelyNot
		}
		return RecommendationNotAccepted
	case ev.AcceptanceStatus == AcceptanceUnknown:
		return RecommendationNoData
	}

	switch {
	case score >= 90:
		return RecommendationHigh
	case score >= 75:
		return RecommendationGood
	case score >= 50:
		return RecommendationModerate
	case score >= 25:
		return RecommendationLow
	default:
		return RecommendationVeryLow
	}
}
