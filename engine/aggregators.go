package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// AGGREGATORS — Grouped reductions over the working set
// ============================================================================
// Every aggregator is pure and independent of the others. Grouping produces
// SubViews (index lists into the bound view) in first-seen order; sorts are
// stable, so ties keep that order.
// ============================================================================

// DefaultTopLimit is the number of stoppage locations reported by default.
const DefaultTopLimit = 10

// FleetZones are the operational zone codes reported by the alert-type
// distribution when a deployment does not configure its own list.
var FleetZones = []string{"SCL", "NCL", "NWL", "WES", "SOU", "EAS"}

// RouteDeviation groups by route and reports mean and max deviation,
// ordered by mean deviation, highest first.
func RouteDeviation(records []telemetry.Record) []RouteDeviationRow {
	groups := groupBySingle(RecordsView(records), KeyRoute)

	rows := make([]RouteDeviationRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, RouteDeviationRow{
			RouteName:      g.Key,
			AvgDeviationKm: AvgMeasure(g.View, KeyDeviation),
			MaxDeviationKm: MaxMeasure(g.View, KeyDeviation),
			TotalAlerts:    g.View.Len(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AvgDeviationKm > rows[j].AvgDeviationKm })
	return rows
}

// TopStoppageLocations groups known locations and returns the most frequent
// ones, ordered by stoppage count. A limit of 0 or less returns every location.
func TopStoppageLocations(records []telemetry.Record, limit int) []StoppageLocationRow {
	known := make([]telemetry.Record, 0, len(records))
	for _, r := range records {
		if r.LocationName != telemetry.Unknown {
			known = append(known, r)
		}
	}
	groups := groupBySingle(RecordsView(known), KeyLocation)

	rows := make([]StoppageLocationRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, StoppageLocationRow{
			LocationName:   g.Key,
			TotalDuration:  SumMeasure(g.View, KeyDuration),
			Count:          g.View.Len(),
			AvgDuration:    AvgMeasure(g.View, KeyDuration),
			UniqueVehicles: CountDistinct(g.View, KeyVehicle),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// StoppageBubble returns records that carry both coordinates.
func StoppageBubble(records []telemetry.Record) []telemetry.Record {
	out := make([]telemetry.Record, 0, len(records))
	for _, r := range records {
		if r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out
}

// ZoneKPIs groups by zone, ordered by alert count, highest first.
// TotalTrips counts distinct load numbers; records without one share a
// single empty load number.
func ZoneKPIs(records []telemetry.Record) []ZoneKPIRow {
	groups := groupBySingle(RecordsView(records), KeyZone)

	rows := make([]ZoneKPIRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, ZoneKPIRow{
			Zone:                  g.Key,
			AvgTransitTimeMinutes: AvgMeasure(g.View, KeyTransitTime),
			TotalTrips:            countDistinctAll(g.View, KeyLoadNumber),
			AvgStoppageDuration:   AvgMeasure(g.View, KeyDuration),
			TotalStoppageDuration: SumMeasure(g.View, KeyDuration),
			AvgRouteDeviation:     AvgMeasure(g.View, KeyDeviation),
			MaxRouteDeviation:     MaxMeasure(g.View, KeyDeviation),
			TotalAlerts:           g.View.Len(),
			UniqueVehicles:        CountDistinct(g.View, KeyVehicle),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalAlerts > rows[j].TotalAlerts })
	return rows
}

// AlertTypeDistribution counts records per (zone, alert type) pair for zones
// in validZones. An empty allowlist admits every zone except Unknown.
// Rows come out zone by zone in first-seen order.
func AlertTypeDistribution(records []telemetry.Record, validZones []string) []AlertTypeRow {
	allowed := toSet(validZones)
	admit := func(zone string) bool {
		if len(allowed) == 0 {
			return zone != telemetry.Unknown
		}
		return allowed[zone]
	}

	kept := make([]telemetry.Record, 0, len(records))
	for _, r := range records {
		if admit(r.Zone) {
			kept = append(kept, r)
		}
	}

	var rows []AlertTypeRow
	for _, zone := range groupByMulti(RecordsView(kept), []string{KeyZone, KeyAlertType}) {
		for _, sub := range zone.SubGroups {
			rows = append(rows, AlertTypeRow{
				Zone:       zone.Key,
				AlertType:  sub.Key,
				AlertCount: sub.View.Len(),
			})
		}
	}
	if rows == nil {
		rows = []AlertTypeRow{}
	}
	return rows
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := getDimensionValue(view, i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		sub := newSubView(view, grouped[key])
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			Count: sub.Len(),
			View:  sub,
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string) []Group {
	if len(dimensions) < 2 {
		return groupBySingle(view, dimensions[0])
	}

	primaryGroups := groupBySingle(view, dimensions[0])
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1])
	}
	return primaryGroups
}

// Virtual dimensions derived from the start timestamp.
const (
	KeyStartDate  = "startDate"  // 2024-03-05
	KeyStartMonth = "startMonth" // 2024-03
)

// getDimensionValue extracts a dimension value from a view at index.
// Handles startDate and startMonth as virtual dimensions cut from startTime.
func getDimensionValue(view RecordView, i int, dimension string) string {
	switch dimension {
	case KeyStartDate, KeyStartMonth:
		ts := view.Dimension(i, KeyStartTime) // "2006-01-02 15:04"
		n := len("2006-01-02")
		if dimension == KeyStartMonth {
			n = len("2006-01")
		}
		if len(ts) < n {
			return ""
		}
		return ts[:n]
	}
	return view.Dimension(i, dimension)
}

// ============================================================================
// AGGREGATION
// ============================================================================

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure, or 0 for an
// empty view.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// CountDistinct counts distinct non-empty values of a dimension.
func CountDistinct(view RecordView, dimension string) int {
	return len(UniqueValues(view, dimension))
}

// countDistinctAll counts distinct values of a dimension, the empty
// string included.
func countDistinctAll(view RecordView, dimension string) int {
	seen := make(map[string]bool)
	for i := 0; i < view.Len(); i++ {
		seen[getDimensionValue(view, i, dimension)] = true
	}
	return len(seen)
}

// UniqueValues returns distinct non-empty values for a dimension in
// first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := getDimensionValue(view, i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatFloat formats a value with two decimals.
func FormatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// LabelForDimension turns a camelCase key into a spaced, capitalized label:
// "vehicleNumber" → "Vehicle Number".
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range dimension {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	s := b.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
