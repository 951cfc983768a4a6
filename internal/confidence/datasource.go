package confidence

import (
	"fmt"
	"time"
)

// Age-decay multipliers for the primary data source, tiered by days since the
// datum was recorded. A record with no date gets the flat unknown-age penalty.
const (
	decayFresh      = 1.0  // <= 30 days
	decayQuarter    = 0.9  // <= 90 days
	decayHalfYear   = 0.75 // <= 180 days
	decayYear       = 0.5  // <= 365 days
	decayStale      = 0.25 // older than a year
	decayUnknownAge = 0.5  // no date recorded
)

// scoreDataSource rates the primary data provenance on a 0-30 scale: the
// source's reliability weight decayed by the age of the datum.
func scoreDataSource(ev Evidence, now time.Time) (float64, string) {
	if ev.DataSource == "" {
		return 0, "no source"
	}

	base := ev.DataSource.Weight()
	if !ev.DataSource.Known() {
		return 0, fmt.Sprintf("unrecognized source %q", ev.DataSource)
	}

	if ev.DataSourceDate == nil {
		return base * decayUnknownAge, fmt.Sprintf("%s source, unknown age", ev.DataSource)
	}

	days := daysSince(*ev.DataSourceDate, now)
	var (
		decay float64
		tier  string
	)
	switch {
	case days <= 30:
		decay, tier = decayFresh, "under 30 days old"
	case days <= 90:
		decay, tier = decayQuarter, "under 90 days old"
	case days <= 180:
		decay, tier = decayHalfYear, "under 180 days old"
	case days <= 365:
		decay, tier = decayYear, "under a year old"
	default:
		decay, tier = decayStale, "over a year old"
	}

	return base * decay, fmt.Sprintf("%s source, %s", ev.DataSource, tier)
}
