// Period enumeration used to bound statistics and search aggregation to a
// recency window. Periods are part of cache-key identity, so their string
// forms are stable and lowercase.
package domain

import (
	"strings"
	"time"
)

// Period names a day window applied to message aggregation.
type Period string

// The full enumeration. PeriodAll means no window at all.
const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Periods lists every valid period in display order.
func Periods() []Period {
	return []Period{PeriodAll, PeriodToday, PeriodWeek, PeriodMonth}
}

// ParsePeriod maps a user-supplied string onto the enumeration. Unknown or
// empty values fall back to PeriodAll; parsing never fails because a period
// always arrives from UI toggles, not typed input.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodToday:
		return PeriodToday
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	default:
		return PeriodAll
	}
}

// Days returns the day window for the period, or 0 for the unbounded case.
func (p Period) Days() int {
	switch p {
	case PeriodToday:
		return 1
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	default:
		return 0
	}
}

// Since converts the period into an absolute lower bound relative to now.
// It returns nil for the unbounded period so repositories can skip the
// created_at filter entirely.
func (p Period) Since(now time.Time) *time.Time {
	d := p.Days()
	if d == 0 {
		return nil
	}
	t := now.AddDate(0, 0, -d)
	return &t
}

// String implements fmt.Stringer.
func (p Period) String() string { return string(p) }
