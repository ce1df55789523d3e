package engine

import (
	"log"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// EXECUTOR — One full pipeline run
// ============================================================================
// Entry points:
//   Run(raws, filters, opts...)     — normalize → filter → aggregate
//   Execute(records, filters, ...)  — filter → aggregate
//   Aggregate(records, working, ...) — aggregate only
//
// Pipeline:
//   1. Resolve the reference instant for relative date ranges
//   2. Apply the filter chain → working set
//   3. Run every aggregator over the working set
//   4. Return a Dashboard
//
// Each run is independent: nothing is cached here and no input is mutated.
// ============================================================================

// Run normalizes raw rows and executes the pipeline over them.
func Run(raws []telemetry.RawRecord, filters FilterConfig, opts ...Option) *Dashboard {
	cfg := applyOptions(opts)
	records := cfg.Normalizer.NormalizeAll(raws)
	return execute(records, filters, cfg)
}

// Execute filters derived records and computes every dashboard view.
//
// Options:
//   - WithReferenceTime(t) — instant for relative date ranges
//   - WithValidZones(zones...) — alert distribution allowlist
//   - WithTopLimit(n) — stoppage locations to report
//   - WithPivots(specs...) — pivot tables to compute
func Execute(records []telemetry.Record, filters FilterConfig, opts ...Option) *Dashboard {
	return execute(records, filters, applyOptions(opts))
}

func execute(records []telemetry.Record, filters FilterConfig, cfg *config) *Dashboard {
	if filters.ReferenceDate == nil && filters.DateRangeType != "" {
		ref := cfg.Now()
		filters.ReferenceDate = &ref
	}

	log.Printf("🔧 FleetLens: Processing %d records, range=%q, zone=%q, threshold=%d",
		len(records), filters.DateRangeType, filters.SelectedZone, filters.AlertThreshold)

	working := ApplyFilters(records, filters)

	log.Printf("🔧 FleetLens: %d records after filtering (from %d)", len(working), len(records))

	return aggregate(records, working, filters, cfg)
}

// Aggregate computes every dashboard view over a working set that has
// already been through ApplyFilters. records is the full derived dataset
// the working set came from; only the zone selector reads it.
func Aggregate(records, working []telemetry.Record, filters FilterConfig, opts ...Option) *Dashboard {
	return aggregate(records, working, filters, applyOptions(opts))
}

func aggregate(records, working []telemetry.Record, filters FilterConfig, cfg *config) *Dashboard {
	d := &Dashboard{
		Filters:           filters,
		InputRecords:      len(records),
		WorkingRecords:    len(working),
		Summary:           Summarize(working),
		RouteDeviation:    RouteDeviation(working),
		TopStoppages:      TopStoppageLocations(working, cfg.TopLimit),
		Bubble:            StoppageBubble(working),
		ZoneKPIs:          ZoneKPIs(working),
		AlertDistribution: AlertTypeDistribution(working, cfg.ValidZones),
		Timeline:          ViolationTimeline(working),
		AvailableZones:    AvailableZones(records),
		WorkingSet:        working,
	}

	for _, spec := range cfg.Pivots {
		d.Pivots = append(d.Pivots, Pivot(working, spec))
	}

	if d.IsEmpty() {
		log.Printf("📭 FleetLens: No records match the current filters")
	}
	return d
}
