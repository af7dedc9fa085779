package trending

import (
	"fmt"
	"time"
)

// Supported trending periods.
const (
	Period24h   = "24h"
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// WindowStart resolves a period name to the start of its aggregation window.
// "today" means since local midnight, but before 07:00 that window is too
// thin to rank anything, so it falls back to a rolling 24 hours.
func WindowStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case Period24h, "":
		return now.Add(-24 * time.Hour), nil
	case PeriodToday:
		if now.Hour() >= 7 {
			return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
		}
		return now.Add(-24 * time.Hour), nil
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}
