package confidence

import "math"

// Summary reduces a provider's per-plan confidence scores to the numbers the
// provider detail page and the attention queue care about.
type Summary struct {
	Average        int  `json:"average"`
	Min            int  `json:"min"`
	Max            int  `json:"max"`
	NeedsAttention bool `json:"needs_attention"`
}

// Aggregate summarizes one provider's per-plan scores. A provider needs
// attention when any plan scores below 50 or the average falls below 60.
// An empty input is a distinct case: nothing is known, so attention is due.
func Aggregate(scores []int) Summary {
	if len(scores) == 0 {
		return Summary{NeedsAttention: true}
	}

	minScore, maxScore, sum := scores[0], scores[0], 0
	for _, s := range scores {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
		sum += s
	}
	average := int(math.Round(float64(sum) / float64(len(scores))))

	return Summary{
		Average:        average,
		Min:            minScore,
		Max:            maxScore,
		NeedsAttention: minScore < 50 || average < 60,
	}
}
