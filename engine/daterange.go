package engine

import (
	"strings"
	"time"
)

// ============================================================================
// DATE RANGES — Relative and custom windows for the date stage
// ============================================================================
//
//	daily        [midnight(ref), ref]
//	weekly       [midnight(ref) - 7 days, ref]
//	last7days    [ref - 7×24h, ref]
//	last30days   [ref - 30 days, ref]
//	monthly      calendar month containing ref
//	yearly       calendar year containing ref
//	lastQuarter  [ref - 3 months, ref]
//	custom       [startDate 00:00, endDate 23:59:59.999…], either side may be open
//
// ============================================================================

// Date range kinds accepted in FilterConfig.DateRangeType.
const (
	RangeDaily       = "daily"
	RangeWeekly      = "weekly"
	RangeMonthly     = "monthly"
	RangeYearly      = "yearly"
	RangeLast7Days   = "last7days"
	RangeLast30Days  = "last30days"
	RangeLastQuarter = "lastQuarter"
	RangeCustom      = "custom"
)

// DateRangeTypes lists every accepted range kind.
var DateRangeTypes = []string{
	RangeDaily, RangeWeekly, RangeMonthly, RangeYearly,
	RangeLast7Days, RangeLast30Days, RangeLastQuarter, RangeCustom,
}

// IsDateRangeType reports whether kind names a known range.
func IsDateRangeType(kind string) bool {
	for _, k := range DateRangeTypes {
		if k == kind {
			return true
		}
	}
	return false
}

// DateRange is an inclusive interval. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// dateLayout is the ISO layout used for custom bounds.
const dateLayout = "2006-01-02"

// ResolveDateRange computes the interval for kind relative to ref.
// It returns false for an empty or unknown kind; callers skip the date
// stage in that case. Custom bounds that fail to parse are left open.
func ResolveDateRange(kind string, ref time.Time, startDate, endDate string) (DateRange, bool) {
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	switch kind {
	case RangeDaily:
		return DateRange{Start: midnight, End: ref}, true
	case RangeWeekly:
		return DateRange{Start: midnight.AddDate(0, 0, -7), End: ref}, true
	case RangeLast7Days:
		return DateRange{Start: ref.Add(-7 * 24 * time.Hour), End: ref}, true
	case RangeLast30Days:
		return DateRange{Start: ref.AddDate(0, 0, -30), End: ref}, true
	case RangeMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, true
	case RangeYearly:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
		return DateRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, true
	case RangeLastQuarter:
		return DateRange{Start: ref.AddDate(0, -3, 0), End: ref}, true
	case RangeCustom:
		var r DateRange
		if t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(startDate), ref.Location()); err == nil {
			r.Start = t
		}
		if t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(endDate), ref.Location()); err == nil {
			r.End = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return r, true
	}
	return DateRange{}, false
}
