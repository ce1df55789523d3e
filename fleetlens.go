// Package fleetlens turns fleet alert exports into dashboard views.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/fleetlens/engine"
//	    "github.com/spektr-org/fleetlens/helpers"
//	)
//
//	parsed, err := helpers.ParseDelimited(data)
//	dash := engine.Run(parsed.Records, engine.FilterConfig{MinDuration: 15},
//	    engine.WithValidZones("SCL", "NCL"),
//	)
//
// helpers parses CSV/TSV bytes into header-keyed rows, telemetry normalizes
// them into typed records, and engine filters the records and computes
// every view (route deviation, top stoppages, bubble points, zone KPIs,
// alert distribution, timeline, pivots). session memoizes dashboards for
// a loaded dataset. Nothing here performs I/O beyond what the caller hands in.
package fleetlens
