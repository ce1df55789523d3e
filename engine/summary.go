package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// SUMMARY — Headline KPIs, violation timeline, zone selector values
// ============================================================================

// Summarize computes the headline KPIs over the working set.
func Summarize(records []telemetry.Record) SummaryKPIs {
	view := RecordsView(records)
	return SummaryKPIs{
		TotalRecords:         view.Len(),
		UniqueVehicles:       CountDistinct(view, KeyVehicle),
		TotalDurationMinutes: SumMeasure(view, KeyDuration),
		AvgDeviationKm:       AvgMeasure(view, KeyDeviation),
	}
}

// ViolationTimeline returns records with a start time, ordered by vehicle
// and then by start time.
func ViolationTimeline(records []telemetry.Record) []telemetry.Record {
	out := make([]telemetry.Record, 0, len(records))
	for _, r := range records {
		if r.StartTime != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VehicleNumber != out[j].VehicleNumber {
			return out[i].VehicleNumber < out[j].VehicleNumber
		}
		return out[i].StartTime.Before(*out[j].StartTime)
	})
	return out
}

// AvailableZones returns the distinct non-empty zones, sorted.
func AvailableZones(records []telemetry.Record) []string {
	zones := UniqueValues(RecordsView(records), KeyZone)
	if zones == nil {
		zones = []string{}
	}
	sort.Strings(zones)
	return zones
}

// ============================================================================
// TEXT RENDERING
// ============================================================================

// DescribeSummary renders the KPIs as one human-readable line.
func DescribeSummary(s SummaryKPIs) string {
	if s.TotalRecords == 0 {
		return "No data available for the selected filters."
	}
	return fmt.Sprintf("%s alerts across %s vehicles, %s min stopped, avg deviation %.2f km.",
		FormatInt(s.TotalRecords), FormatInt(s.UniqueVehicles),
		FormatInt(int(s.TotalDurationMinutes+0.5)), s.AvgDeviationKm)
}

// DescribeDashboard renders a short multi-line text report.
func DescribeDashboard(d *Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", DescribeSummary(d.Summary))
	if d.IsEmpty() {
		return b.String()
	}

	if len(d.ZoneKPIs) > 0 {
		b.WriteString("\nZones:\n")
		for _, z := range d.ZoneKPIs {
			fmt.Fprintf(&b, "  %-12s %5d alerts  %4d vehicles  avg stop %.1f min\n",
				z.Zone, z.TotalAlerts, z.UniqueVehicles, z.AvgStoppageDuration)
		}
	}
	if len(d.RouteDeviation) > 0 {
		b.WriteString("\nWorst routes:\n")
		for i, r := range d.RouteDeviation {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %-20s avg %.2f km  max %.2f km  (%d alerts)\n",
				r.RouteName, r.AvgDeviationKm, r.MaxDeviationKm, r.TotalAlerts)
		}
	}
	if len(d.TopStoppages) > 0 {
		b.WriteString("\nTop stoppage locations:\n")
		for _, s := range d.TopStoppages {
			fmt.Fprintf(&b, "  %-40s %4d stops  %.1f min total\n",
				s.LocationName, s.Count, s.TotalDuration)
		}
	}
	return b.String()
}
