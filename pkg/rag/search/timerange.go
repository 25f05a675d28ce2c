package search

import (
	"time"

	"ai-discovery-be/internal/repository/contract"
)

// Named time ranges accepted by search requests.
const (
	TimeRangeToday = "today"
	TimeRangeWeek  = "week"
	TimeRangeMonth = "month"
	TimeRangeYear  = "year"
	TimeRangeAll   = "all"
)

// ResolveTimeBounds translates a symbolic range into concrete bounds on the
// publish/index date, evaluated against now. "all" and the empty string mean
// unbounded (nil).
func ResolveTimeBounds(name string, now time.Time) *contract.TimeBounds {
	switch name {
	case TimeRangeToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return &contract.TimeBounds{Start: start, End: now}
	case TimeRangeWeek:
		return &contract.TimeBounds{Start: now.AddDate(0, 0, -7), End: now}
	case TimeRangeMonth:
		return &contract.TimeBounds{Start: now.AddDate(0, -1, 0), End: now}
	case TimeRangeYear:
		return &contract.TimeBounds{Start: now.AddDate(-1, 0, 0), End: now}
	default:
		return nil
	}
}
