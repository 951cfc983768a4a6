package confidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellVerified is a snapshot with every kind of evidence in its favor:
// a fresh authoritative feed, a same-day verification with history, strong
// community agreement, and a plan inside its window.
func wellVerified() Evidence {
	return Evidence{
		DataSource:          SourceAuthoritativeFeed,
		DataSourceDate:      daysAgo(0),
		LastVerifiedAt:      daysAgo(0),
		VerificationSource:  SourceAuthoritativeFeed,
		VerificationCount:   5,
		Upvotes:             10,
		Downvotes:           0,
		UserSubmissions:     3,
		PlanEffectiveDate:   daysAgo(200),
		PlanTerminationDate: daysInFuture(200),
		ProviderStatus:      ProviderActive,
		AcceptanceStatus:    AcceptanceAccepted,
	}
}

func TestEvaluate_WellVerified(t *testing.T) {
	result := Evaluate(wellVerified(), testNow)

	// 30 (data) + 25 (recency) + 25 (verification) + 12 (crowd) = 92.
	assert.Equal(t, 92, result.Score)
	assert.False(t, result.NeedsVerification)
	assert.Equal(t, RecommendationHigh, result.Recommendation)

	assert.Equal(t, 30, result.Factors.DataSource.Score)
	assert.Equal(t, 25, result.Factors.Recency.Score)
	assert.Equal(t, 25, result.Factors.Verification.Score)
	assert.Equal(t, 12, result.Factors.Crowdsource.Score)
}

func TestEvaluate_EmptyEvidence(t *testing.T) {
	result := Evaluate(Evidence{
		ProviderStatus:   ProviderActive,
		AcceptanceStatus: AcceptanceUnknown,
	}, testNow)

	assert.Equal(t, 0, result.Score)
	assert.True(t, result.NeedsVerification)
	assert.Equal(t, RecommendationNoData, result.Recommendation)
	assert.Equal(t, "no source", result.Factors.DataSource.Reason)
	assert.Equal(t, "no crowdsource data", result.Factors.Crowdsource.Reason)
}

// TestEvaluate_DeactivationDominates verifies both deactivation invariants:
// the score drops relative to the identical active snapshot, and the
// deactivation warning wins over the numeric band.
func TestEvaluate_DeactivationDominates(t *testing.T) {
	active := Evaluate(wellVerified(), testNow)

	deactivated := wellVerified()
	deactivated.ProviderStatus = ProviderDeactivated
	result := Evaluate(deactivated, testNow)

	assert.Less(t, result.Score, active.Score)
	assert.Equal(t, RecommendationDeactivated, result.Recommendation)
}

func TestEvaluate_Recommendations(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want string
	}{
		{
			"not accepted with strong evidence",
			func() Evidence {
				ev := wellVerified()
				ev.AcceptanceStatus = AcceptanceNotAccepted
				return ev
			}(),
			RecommendationNotAccepted,
		},
		{
			"not accepted with weak evidence",
			Evidence{ProviderStatus: ProviderActive, AcceptanceStatus: AcceptanceNotAccepted},
			RecommendationLikelyNot,
		},
		{
			"unknown acceptance",
			Evidence{ProviderStatus: ProviderActive, AcceptanceStatus: AcceptanceUnknown},
			RecommendationNoData,
		},
		{
			"pending falls through to score bands",
			Evidence{ProviderStatus: ProviderActive, AcceptanceStatus: AcceptancePending},
			RecommendationVeryLow,
		},
		{
			"low band",
			Evidence{
				DataSource:         SourceCarrierFeed,
				DataSourceDate:     daysAgo(10),
				LastVerifiedAt:     daysAgo(20),
				VerificationSource: SourcePhoneCall,
				ProviderStatus:     ProviderActive,
				AcceptanceStatus:   AcceptanceAccepted,
			},
			// 26 (fresh carrier feed) + 12 (recency) + 9 (phone half weight) = 47.
			RecommendationLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.ev, testNow)
			assert.Equal(t, tt.want, result.Recommendation)
		})
	}
}

// TestEvaluate_ScoreBounds sweeps a grid of evidence permutations and checks
// the [0,100] clamp plus the needs-verification threshold on every result.
func TestEvaluate_ScoreBounds(t *testing.T) {
	sources := []Source{"", SourceAuthoritativeFeed, SourceCrowdsource, "bogus"}
	dates := []*time.Time{nil, daysAgo(0), daysAgo(100), daysAgo(1000)}
	statuses := []ProviderStatus{ProviderActive, ProviderDeactivated}
	votes := []int{0, 3, 50}

	for _, src := range sources {
		for _, date := range dates {
			for _, status := range statuses {
				for _, up := range votes {
					ev := Evidence{
						DataSource:         src,
						DataSourceDate:     date,
						LastVerifiedAt:     date,
						VerificationSource: src,
						VerificationCount:  up,
						Upvotes:            up,
						Downvotes:          3,
						UserSubmissions:    up,
						ProviderStatus:     status,
						AcceptanceStatus:   AcceptanceAccepted,
					}
					result := Evaluate(ev, testNow)
					require.GreaterOrEqual(t, result.Score, 0)
					require.LessOrEqual(t, result.Score, 100)
					require.Equal(t, result.Score < 75, result.NeedsVerification)
				}
			}
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	ev := wellVerified()
	first := Evaluate(ev, testNow)
	for range 10 {
		assert.Equal(t, first, Evaluate(ev, testNow))
	}
}

func TestEvaluateBatch(t *testing.T) {
	t.Run("preserves order element-wise", func(t *testing.T) {
		batch := []Evidence{
			wellVerified(),
			{ProviderStatus: ProviderActive, AcceptanceStatus: AcceptanceUnknown},
		}
		results := EvaluateBatch(batch, testNow)
		require.Len(t, results, 2)
		assert.Equal(t, Evaluate(batch[0], testNow), results[0])
		assert.Equal(t, Evaluate(batch[1], testNow), results[1])
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, EvaluateBatch(nil, testNow))
	})
}
