package confidence

import (
	"fmt"
	"math"
)

const (
	submissionCap = 5
	// voteSaturation is the total vote count at which the volume multiplier
	// reaches 1.0: sqrt(25)/5 = 1.
	voteSaturation = 25
)

// scoreCrowdsource rates community agreement on a 0-20 scale: up to 15 points
// for the upvote ratio, discounted when few votes back it, plus one point per
// independent submission up to 5. The sum is rounded before it leaves this
// scorer.
func scoreCrowdsource(ev Evidence) (float64, string) {
	totalVotes := ev.Upvotes + ev.Downvotes
	if totalVotes == 0 && ev.UserSubmissions == 0 {
		return 0, "no crowdsource data"
	}

	var (
		votePoints float64
		reason     string
	)
	if totalVotes > 0 {
		voteRatio := float64(ev.Upvotes) / float64(totalVotes)
		volumeMultiplier := math.Min(math.Sqrt(float64(totalVotes))/5, 1)

		switch {
		case voteRatio >= 0.8:
			votePoints = 15 * volumeMultiplier
			reason = fmt.Sprintf("strong positive feedback (%d/%d upvotes)", ev.Upvotes, totalVotes)
		case voteRatio >= 0.6:
			votePoints = 10 * volumeMultiplier
			reason = fmt.Sprintf("mostly positive feedback (%d/%d upvotes)", ev.Upvotes, totalVotes)
		case voteRatio >= 0.4:
			votePoints = 5 * volumeMultiplier
			reason = fmt.Sprintf("mixed feedback (%d/%d upvotes)", ev.Upvotes, totalVotes)
		default:
			votePoints = 0
			reason = "negative feedback dominant"
		}
	} else {
		reason = "no votes recorded"
	}

	submissionPoints := float64(ev.UserSubmissions)
	if submissionPoints > submissionCap {
		submissionPoints = submissionCap
	}
	if ev.UserSubmissions > 0 {
		reason += fmt.Sprintf("; %d user submissions", ev.UserSubmissions)
	}

	return math.Round(votePoints + submissionPoints), reason
}
