package api

import "time"

// FreshnessStatus constants
const (
	FreshnessFresh       = "fresh"       // younger than one refresh interval
	FreshnessStale       = "stale"       // up to three intervals
	FreshnessUnavailable = "unavailable" // older, or no data
)

// CalculateFreshnessStatus returns the freshness of a dataset of the given
// age, relative to the refresh interval
func CalculateFreshnessStatus(age, interval time.Duration) string {
	if age < 0 || interval <= 0 {
		return FreshnessUnavailable
	}
	if age <= interval {
		return FreshnessFresh
	}
	if age <= 3*interval {
		return FreshnessStale
	}
	return FreshnessUnavailable
}
