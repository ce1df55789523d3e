package engine

import (
	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// FLEETLENS ENGINE TYPES — Aggregation rows and dashboard output
// ============================================================================
// Every row type carries json and csv tags. JSON names are the field names
// consumers index by; csv tags drive workbook and CSV flattening.
//
// Dependency: engine imports only telemetry and schema from this module.
// ============================================================================

// ============================================================================
// AGGREGATION ROWS
// ============================================================================

// RouteDeviationRow summarizes deviation per route.
type RouteDeviationRow struct {
	RouteName      string  `json:"routeName" csv:"Route Name"`
	AvgDeviationKm float64 `json:"avgDeviationKm" csv:"Avg Deviation (km)"`
	MaxDeviationKm float64 `json:"maxDeviationKm" csv:"Max Deviation (km)"`
	TotalAlerts    int     `json:"totalAlerts" csv:"Total Alerts"`
}

// StoppageLocationRow summarizes stoppages at one landmark.
type StoppageLocationRow struct {
	LocationName   string  `json:"locationName" csv:"Location"`
	TotalDuration  float64 `json:"totalDuration" csv:"Total Duration (min)"`
	Count          int     `json:"count" csv:"Stoppages"`
	AvgDuration    float64 `json:"avgDuration" csv:"Avg Duration (min)"`
	UniqueVehicles int     `json:"uniqueVehicles" csv:"Unique Vehicles"`
}

// ZoneKPIRow holds the per-zone indicators.
type ZoneKPIRow struct {
	Zone                  string  `json:"zone" csv:"Zone"`
	AvgTransitTimeMinutes float64 `json:"avgTransitTimeMinutes" csv:"Avg Transit Time (min)"`
	TotalTrips            int     `json:"totalTrips" csv:"Total Trips"`
	AvgStoppageDuration   float64 `json:"avgStoppageDuration" csv:"Avg Stoppage (min)"`
	TotalStoppageDuration float64 `json:"totalStoppageDuration" csv:"Total Stoppage (min)"`
	AvgRouteDeviation     float64 `json:"avgRouteDeviation" csv:"Avg Deviation (km)"`
	MaxRouteDeviation     float64 `json:"maxRouteDeviation" csv:"Max Deviation (km)"`
	TotalAlerts           int     `json:"totalAlerts" csv:"Total Alerts"`
	UniqueVehicles        int     `json:"uniqueVehicles" csv:"Unique Vehicles"`
}

// AlertTypeRow counts alerts of one type within one zone.
type AlertTypeRow struct {
	Zone       string `json:"zone" csv:"Zone"`
	AlertType  string `json:"alertType" csv:"Alert Type"`
	AlertCount int    `json:"alertCount" csv:"Alert Count"`
}

// SummaryKPIs are the headline numbers over the working set.
type SummaryKPIs struct {
	TotalRecords         int     `json:"totalRecords" csv:"Total Records"`
	UniqueVehicles       int     `json:"uniqueVehicles" csv:"Unique Vehicles"`
	TotalDurationMinutes float64 `json:"totalDurationMinutes" csv:"Total Duration (min)"`
	AvgDeviationKm       float64 `json:"avgDeviationKm" csv:"Avg Deviation (km)"`
}

// RecordRow is the flat form of a derived record used for tables and export.
type RecordRow struct {
	VehicleNumber      string  `json:"vehicleNumber" csv:"Vehicle Number"`
	Zone               string  `json:"zone" csv:"Zone"`
	RouteName          string  `json:"routeName" csv:"Route"`
	TripName           string  `json:"tripName" csv:"Trip Name"`
	LoadNumber         string  `json:"loadNumber" csv:"Load No"`
	AlertType          string  `json:"alertType" csv:"Alert Type"`
	LocationName       string  `json:"locationName" csv:"Location"`
	StartTime          string  `json:"startTime" csv:"Start Time"`
	EndTime            string  `json:"endTime" csv:"End Time"`
	DurationMinutes    float64 `json:"durationMinutes" csv:"Duration (min)"`
	RouteDeviationKm   float64 `json:"routeDeviationKm" csv:"Deviation (km)"`
	TransitTimeMinutes float64 `json:"transitTimeMinutes" csv:"Transit Time (min)"`
	Longitude          float64 `json:"longitude" csv:"Longitude"`
	Latitude           float64 `json:"latitude" csv:"Latitude"`
}

// NewRecordRow flattens a derived record.
func NewRecordRow(r telemetry.Record) RecordRow {
	return RecordRow{
		VehicleNumber:      r.VehicleNumber,
		Zone:               r.Zone,
		RouteName:          r.RouteName,
		TripName:           r.TripName,
		LoadNumber:         r.LoadNumber,
		AlertType:          r.AlertType,
		LocationName:       r.LocationName,
		StartTime:          r.Field("startTime"),
		EndTime:            r.Field("endTime"),
		DurationMinutes:    r.DurationMinutes,
		RouteDeviationKm:   r.RouteDeviationKm,
		TransitTimeMinutes: r.TransitTimeMinutes,
		Longitude:          r.Longitude,
		Latitude:           r.Latitude,
	}
}

// NewRecordRows flattens a record slice.
func NewRecordRows(records []telemetry.Record) []RecordRow {
	rows := make([]RecordRow, len(records))
	for i, r := range records {
		rows[i] = NewRecordRow(r)
	}
	return rows
}

// ============================================================================
// DASHBOARD — Render-ready output of one pipeline run
// ============================================================================

// Dashboard bundles every view computed from one working set.
type Dashboard struct {
	Filters        FilterConfig `json:"filters"`
	InputRecords   int          `json:"inputRecords"`
	WorkingRecords int          `json:"workingRecords"`

	Summary           SummaryKPIs           `json:"summary"`
	RouteDeviation    []RouteDeviationRow   `json:"routeDeviation"`
	TopStoppages      []StoppageLocationRow `json:"topStoppages"`
	Bubble            []telemetry.Record    `json:"bubble"`
	ZoneKPIs          []ZoneKPIRow          `json:"zoneKpis"`
	AlertDistribution []AlertTypeRow        `json:"alertDistribution"`
	Timeline          []telemetry.Record    `json:"timeline"`
	Pivots            []PivotTable          `json:"pivots,omitempty"`
	AvailableZones    []string              `json:"availableZones"`

	// WorkingSet is the filtered record set every view above was computed from.
	WorkingSet []telemetry.Record `json:"-"`
}

// IsEmpty reports whether the working set has no records.
func (d *Dashboard) IsEmpty() bool {
	return d == nil || d.WorkingRecords == 0
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group is a set of records sharing one dimension value.
// Builders and aggregators read the members through View.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Labels     []string      `json:"labels,omitempty"`
	Series     []ChartSeries `json:"series"`
	Stacked    bool          `json:"stacked"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one data point. X, Y and Radius are set for scatter points.
type ChartPoint struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Radius float64 `json:"r,omitempty"`
}

// HeatBand classifies a route's average deviation against the worst route.
type HeatBand struct {
	RouteName      string  `json:"routeName"`
	AvgDeviationKm float64 `json:"avgDeviationKm"`
	Band           string  `json:"band"` // "low", "moderate", "elevated", "high"
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is one page of a searchable, sortable record table.
type TableData struct {
	Title     string     `json:"title"`
	Columns   []Column   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	PageCount int        `json:"pageCount"`
	Summary   *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "time"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
