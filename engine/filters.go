package engine

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// FILTERS — Four-stage filter chain over derived records
// ============================================================================
// Stages run in fixed order, each consuming the previous stage's output:
//   1. date range    (only when DateRangeType is set)
//   2. threshold     (duration floor, deviation floor, trip status)
//   3. frequency     (only when AlertThreshold > 0)
//   4. zone          (only when SelectedZone is set)
//
// Stages never modify their input. A disabled stage returns it as is.
// ============================================================================

// FilterConfig is the user-controlled filter state for one pipeline run.
type FilterConfig struct {
	MinDuration        float64    `json:"minDuration"`
	MinDeviation       float64    `json:"minDeviation"`
	AlertThreshold     int        `json:"alertThreshold"`
	SelectedZone       string     `json:"selectedZone,omitempty"`
	DateRangeType      string     `json:"dateRangeType,omitempty"`
	StartDate          string     `json:"startDate,omitempty"` // YYYY-MM-DD, custom range only
	EndDate            string     `json:"endDate,omitempty"`   // YYYY-MM-DD, custom range only
	ReferenceDate      *time.Time `json:"referenceDate,omitempty"`
	RequiredTripStatus string     `json:"requiredTripStatus,omitempty"`
}

// Key returns a string identifying the configuration. Two configurations
// with the same key select the same records from the same dataset, provided
// a relative date range carries a ReferenceDate.
func (f FilterConfig) Key() string {
	ref := ""
	if f.ReferenceDate != nil {
		ref = f.ReferenceDate.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("dur=%g|dev=%g|thr=%d|zone=%q|range=%q|from=%q|to=%q|ref=%s|status=%q",
		f.MinDuration, f.MinDeviation, f.AlertThreshold, f.SelectedZone,
		f.DateRangeType, f.StartDate, f.EndDate, ref, f.RequiredTripStatus)
}

// DependsOnClock reports whether the selected records change with the wall
// clock: a relative date range without a fixed ReferenceDate.
func (f FilterConfig) DependsOnClock() bool {
	return f.DateRangeType != "" && f.DateRangeType != RangeCustom && f.ReferenceDate == nil
}

func (f FilterConfig) reference() time.Time {
	if f.ReferenceDate != nil {
		return *f.ReferenceDate
	}
	return time.Now()
}

// ApplyFilters runs the full chain and returns the working set.
func ApplyFilters(records []telemetry.Record, f FilterConfig) []telemetry.Record {
	out := FilterByDateRange(records, f)
	out = FilterByThreshold(out, f)
	out = FilterByFrequency(out, f.AlertThreshold)
	out = FilterByZone(out, f.SelectedZone)
	return out
}

// FilterByDateRange keeps records whose StartTime falls inside the configured
// range. Records without a StartTime are dropped whenever the stage runs.
// An unknown range kind disables the stage.
func FilterByDateRange(records []telemetry.Record, f FilterConfig) []telemetry.Record {
	if f.DateRangeType == "" {
		return records
	}
	r, ok := ResolveDateRange(f.DateRangeType, f.reference(), f.StartDate, f.EndDate)
	if !ok {
		log.Printf("⚠️  FleetLens: unknown date range %q, date filter skipped", f.DateRangeType)
		return records
	}

	out := make([]telemetry.Record, 0, len(records))
	for _, rec := range records {
		if rec.StartTime != nil && r.Contains(*rec.StartTime) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByThreshold keeps a record iff its duration meets MinDuration and it
// is either a stoppage violation or its deviation meets MinDeviation.
// When RequiredTripStatus is set the record's trip status must also match it,
// ignoring case.
func FilterByThreshold(records []telemetry.Record, f FilterConfig) []telemetry.Record {
	status := strings.TrimSpace(f.RequiredTripStatus)

	out := make([]telemetry.Record, 0, len(records))
	for _, rec := range records {
		if rec.DurationMinutes < f.MinDuration {
			continue
		}
		if rec.AlertType != telemetry.AlertStoppageViolation && rec.RouteDeviationKm < f.MinDeviation {
			continue
		}
		if status != "" && !strings.EqualFold(rec.TripStatus, status) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FilterByFrequency keeps records whose vehicle has strictly more than
// threshold records in the input. A threshold of 0 or less disables it.
func FilterByFrequency(records []telemetry.Record, threshold int) []telemetry.Record {
	if threshold <= 0 {
		return records
	}

	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.VehicleNumber]++
	}

	out := make([]telemetry.Record, 0, len(records))
	for _, rec := range records {
		if counts[rec.VehicleNumber] > threshold {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByZone keeps records in the given zone. Empty means all zones.
func FilterByZone(records []telemetry.Record, zone string) []telemetry.Record {
	if zone == "" {
		return records
	}
	out := make([]telemetry.Record, 0, len(records))
	for _, rec := range records {
		if rec.Zone == zone {
			out = append(out, rec)
		}
	}
	return out
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
