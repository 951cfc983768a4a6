package confidence

import "fmt"

const (
	verificationSourceCap = 15
	verificationVolumeCap = 10
	deactivationPenalty   = 10
)

// scoreVerification rates verification provenance and volume on a 0-25 scale:
// half the verification source's reliability weight (capped at 15) plus two
// points per recorded verification (capped at 10). A provider deactivated in
// the registry costs 10 points, floored at 0, so deactivation can only ever
// reduce this sub-score.
func scoreVerification(ev Evidence) (float64, string) {
	var score float64
	reason := "no verification source"

	if ev.VerificationSource != "" && ev.VerificationSource.Known() {
		quality := ev.VerificationSource.Weight() / 2
		if quality > verificationSourceCap {
			quality = verificationSourceCap
		}
		score += quality
		reason = fmt.Sprintf("verified via %s", ev.VerificationSource)
	}

	volume := float64(ev.VerificationCount * 2)
	if volume > verificationVolumeCap {
		volume = verificationVolumeCap
	}
	score += volume
	if ev.VerificationCount > 0 {
		reason += fmt.Sprintf(", %d verifications on record", ev.VerificationCount)
	}

	if ev.ProviderStatus == ProviderDeactivated {
		score -= deactivationPenalty
		if score < 0 {
			score = 0
		}
		reason += "; provider deactivated in registry"
	}

	return score, reason
}
