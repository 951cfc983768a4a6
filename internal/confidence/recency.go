package confidence

import (
	"fmt"
	"time"
)

// scoreRecency rates freshness on a 0-25 scale: up to 15 points for how
// recently a human verified the record, up to 10 for the plan being inside
// its effective window. The tier values cap the sum at 25 by construction.
func scoreRecency(ev Evidence, now time.Time) (float64, string) {
	verification, verificationReason := verificationAgePoints(ev, now)
	validity, validityReason := planValidityPoints(ev, now)

	return verification + validity, verificationReason + "; " + validityReason
}

func verificationAgePoints(ev Evidence, now time.Time) (float64, string) {
	if ev.LastVerifiedAt == nil {
		return 0, "never verified"
	}

	days := daysSince(*ev.LastVerifiedAt, now)
	switch {
	case days <= 7:
		return 15, "verified within a week"
	case days <= 30:
		return 12, "verified within 30 days"
	case days <= 90:
		return 8, "verified within 90 days"
	case days <= 180:
		return 4, "verified within 180 days"
	default:
		return 1, fmt.Sprintf("last verified %d days ago", days)
	}
}

func planValidityPoints(ev Evidence, now time.Time) (float64, string) {
	eff, term := ev.PlanEffectiveDate, ev.PlanTerminationDate

	switch {
	case eff != nil && now.Before(*eff):
		return 5, "plan not yet effective"
	case term != nil && now.After(*term):
		return 0, "plan terminated"
	case eff != nil && term != nil:
		return 10, "plan within effective window"
	case eff != nil:
		return 7, "plan effective, no termination known"
	default:
		return 0, "no plan validity data"
	}
}
