package engine

import (
	"strings"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from aggregation rows
// ============================================================================

// Fixed colours per known alert type. Unknown types get fallbackColor.
var alertTypeColors = map[string]string{
	"Device_Removed":         "rgba(220, 53, 69, 0.8)",
	"Power_Disconnect_Alert": "rgba(255, 193, 7, 0.8)",
	"Route_Diversion_Alert":  "rgba(255, 159, 64, 0.8)",
	"Stoppage_Violation":     "rgba(153, 102, 255, 0.8)",
	"RouteDeviationStoppage": "rgba(255, 99, 132, 0.8)",
}

const fallbackColor = "rgba(150, 150, 150, 0.8)"

// Default color palette for single-series and per-zone charts.
var defaultColors = []string{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF",
	"#FF9F40", "#C9CBCF", "#4F46E5", "#10B981", "#EF4444",
}

// AlertTypeColor returns the chart colour for an alert type.
func AlertTypeColor(alertType string) string {
	if c, ok := alertTypeColors[alertType]; ok {
		return c
	}
	return fallbackColor
}

// BuildAlertDistributionChart stacks alert counts per type over zones.
// Zones and types appear in first-seen order; missing pairs are 0.
func BuildAlertDistributionChart(rows []AlertTypeRow) *ChartConfig {
	if len(rows) == 0 {
		return nil
	}

	var zones, types []string
	seenZone := make(map[string]bool)
	seenType := make(map[string]bool)
	counts := make(map[[2]string]int)
	for _, r := range rows {
		if !seenZone[r.Zone] {
			seenZone[r.Zone] = true
			zones = append(zones, r.Zone)
		}
		if !seenType[r.AlertType] {
			seenType[r.AlertType] = true
			types = append(types, r.AlertType)
		}
		counts[[2]string{r.Zone, r.AlertType}] += r.AlertCount
	}

	series := make([]ChartSeries, 0, len(types))
	for _, t := range types {
		points := make([]ChartPoint, 0, len(zones))
		for _, z := range zones {
			points = append(points, ChartPoint{Label: z, Value: float64(counts[[2]string{z, t}])})
		}
		series = append(series, ChartSeries{
			Name:  LabelForAlertType(t),
			Data:  points,
			Color: AlertTypeColor(t),
		})
	}

	return &ChartConfig{
		ChartType:  "stacked_bar",
		Title:      "Alert Type Distribution",
		XAxis:      "Zone",
		YAxis:      "Alerts",
		Labels:     zones,
		Series:     series,
		Stacked:    true,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// BuildTopStoppagesChart plots stoppage counts per location.
func BuildTopStoppagesChart(rows []StoppageLocationRow) *ChartConfig {
	if len(rows) == 0 {
		return nil
	}

	labels := make([]string, 0, len(rows))
	points := make([]ChartPoint, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.LocationName)
		points = append(points, ChartPoint{Label: r.LocationName, Value: float64(r.Count)})
	}

	return &ChartConfig{
		ChartType: "horizontal_bar",
		Title:     "Top Stoppage Locations",
		XAxis:     "Stoppages",
		YAxis:     "Location",
		Labels:    labels,
		Series:    []ChartSeries{{Name: "Stoppages", Data: points, Color: defaultColors[0]}},
		ShowGrid:  true,
	}
}

// BuildBubbleChart plots records by coordinates, one series per zone.
// Radius is duration / 5, clamped to [5, 30].
func BuildBubbleChart(bubbles []telemetry.Record) *ChartConfig {
	if len(bubbles) == 0 {
		return nil
	}

	var zones []string
	byZone := make(map[string][]ChartPoint)
	for _, b := range bubbles {
		if _, ok := byZone[b.Zone]; !ok {
			zones = append(zones, b.Zone)
		}
		byZone[b.Zone] = append(byZone[b.Zone], ChartPoint{
			Label:  b.LocationName,
			Value:  b.DurationMinutes,
			X:      b.Longitude,
			Y:      b.Latitude,
			Radius: bubbleRadius(b.DurationMinutes),
		})
	}

	series := make([]ChartSeries, 0, len(zones))
	for i, z := range zones {
		series = append(series, ChartSeries{
			Name:  z,
			Data:  byZone[z],
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return &ChartConfig{
		ChartType:  "bubble",
		Title:      "Stoppage Locations",
		XAxis:      "Longitude",
		YAxis:      "Latitude",
		Series:     series,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func bubbleRadius(duration float64) float64 {
	r := duration / 5
	if r < 5 {
		return 5
	}
	if r > 30 {
		return 30
	}
	return r
}

// Heat bands for route deviation, by share of the worst average.
const (
	BandLow      = "low"
	BandModerate = "moderate"
	BandElevated = "elevated"
	BandHigh     = "high"
)

// BuildDeviationHeat assigns each route a band by its average deviation
// relative to the largest average: above 75% high, above 50% elevated,
// above 25% moderate, otherwise low.
func BuildDeviationHeat(rows []RouteDeviationRow) []HeatBand {
	var worst float64
	for _, r := range rows {
		if r.AvgDeviationKm > worst {
			worst = r.AvgDeviationKm
		}
	}

	out := make([]HeatBand, 0, len(rows))
	for _, r := range rows {
		out = append(out, HeatBand{
			RouteName:      r.RouteName,
			AvgDeviationKm: r.AvgDeviationKm,
			Band:           heatBand(r.AvgDeviationKm, worst),
		})
	}
	return out
}

func heatBand(v, worst float64) string {
	if worst <= 0 {
		return BandLow
	}
	ratio := v / worst
	switch {
	case ratio > 0.75:
		return BandHigh
	case ratio > 0.5:
		return BandElevated
	case ratio > 0.25:
		return BandModerate
	default:
		return BandLow
	}
}

// LabelForAlertType replaces underscores with spaces for display.
func LabelForAlertType(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}
