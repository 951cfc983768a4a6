package confidence

import (
	"math"
	"time"
)

// NeedsVerificationThreshold is the score below which a record should prompt
// the user to verify directly with the provider.
const NeedsVerificationThreshold = 75

// Evaluate composes the four scorers over one evidence snapshot at the given
// instant. The scorers are independent and share no state; their order does
// not matter. The summed score is clamped to [0,100] and rounded.
func Evaluate(ev Evidence, now time.Time) Result {
	dataScore, dataReason := scoreDataSource(ev, now)
	recencyScore, recencyReason := scoreRecency(ev, now)
	verificationScore, verificationReason := scoreVerification(ev)
	crowdScore, crowdReason := scoreCrowdsource(ev)

	total := dataScore + recencyScore + verificationScore + crowdScore
	score := int(math.Round(math.Min(math.Max(total, 0), 100)))

	return Result{
		Score: score,
		Factors: Factors{
			DataSource:   Factor{Score: int(math.Round(dataScore)), Reason: dataReason},
			Recency:      Factor{Score: int(math.Round(recencyScore)), Reason: recencyReason},
			Verification: Factor{Score: int(math.Round(verificationScore)), Reason: verificationReason},
			Crowdsource:  Factor{Score: int(math.Round(crowdScore)), Reason: crowdReason},
		},
		Recommendation:    recommend(ev, score),
		NeedsVerification: score < NeedsVerificationThreshold,
	}
}

// EvaluateBatch evaluates each snapshot against the same instant. The result
// slice is element-wise and order-preserving. Elements are independent, so
// callers that want parallelism can shard the input and merge by index.
func EvaluateBatch(evidence []Evidence, now time.Time) []Result {
	results := make([]Result, len(evidence))
	for i, ev := range evidence {
		results[i] = Evaluate(ev, now)
	}
	return results
}
