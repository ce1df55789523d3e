package schema

import (
	"fmt"
	"sort"
)

// ============================================================================
// SCHEMA — Header knowledge for vehicle alert exports
// ============================================================================
// Alert exports come from several reporting tools. The same field shows up
// under different headers ("Stoppage location" / "Stoppage Location"), often
// with trailing blanks or a carriage return glued to the last column.
//
// A Catalogue maps each canonical Field to an ordered list of candidate
// headers. The normalizer resolves values through it; Discover reports
// which header satisfied each field.
// ============================================================================

// Field is a canonical source field the normalizer knows how to read.
type Field string

const (
	FieldDuration         Field = "duration"
	FieldDeviation        Field = "deviation"
	FieldStoppageLocation Field = "stoppage_location"
	FieldEndLocation      Field = "end_location"
	FieldStartLocation    Field = "start_location"
	FieldLongitude        Field = "longitude"
	FieldLatitude         Field = "latitude"
	FieldAlertSource      Field = "alert_source"
	FieldStartTime        Field = "start_time"
	FieldEndTime          Field = "end_time"
	FieldRouteNumber      Field = "route_number"
	FieldTripName         Field = "trip_name"
	FieldVehicle          Field = "vehicle"
	FieldZone             Field = "zone"
	FieldLoadNumber       Field = "load_number"
	FieldTripStatus       Field = "trip_status"
)

// AllFields lists every canonical field in report order.
var AllFields = []Field{
	FieldDuration, FieldDeviation,
	FieldStoppageLocation, FieldEndLocation, FieldStartLocation,
	FieldLongitude, FieldLatitude,
	FieldAlertSource, FieldStartTime, FieldEndTime,
	FieldRouteNumber, FieldTripName,
	FieldVehicle, FieldZone, FieldLoadNumber, FieldTripStatus,
}

var defaultCandidates = map[Field][]string{
	FieldDuration:         {"Alert Duration (min)", "Duration (min)", "Stoppage Duration (min)", "Alert Duration"},
	FieldDeviation:        {"Route Deviation Distance", "Route Deviation Distance (km)", "Route Deviation (km)"},
	FieldStoppageLocation: {"Stoppage location", "Stoppage Location"},
	FieldEndLocation:      {"End location", "End Location"},
	FieldStartLocation:    {"Start location", "Start Location"},
	FieldLongitude:        {"Stoppage Longitude", "Longitude"},
	FieldLatitude:         {"Stoppage Latitude", "Latitude"},
	FieldAlertSource:      {"Source Sheet Name", "Alert Type", "Alert Name"},
	FieldStartTime:        {"From Datetime", "Start Datetime", "Alert Start Time"},
	FieldEndTime:          {"To Datetime", "End Datetime", "Alert End Time"},
	FieldRouteNumber:      {"Route No", "Route Number", "RouteNo"},
	FieldTripName:         {"Trip Name", "TripName"},
	FieldVehicle:          {"Vehicle Number", "Vehicle No", "VehicleNumber"},
	FieldZone:             {"Zone", "Zone Name"},
	FieldLoadNumber:       {"Load No", "Load Number"},
	FieldTripStatus:       {"Trip Status"},
}

// Catalogue maps canonical fields to candidate headers, most preferred first.
type Catalogue map[Field][]string

// DefaultCatalogue returns a fresh copy of the built-in header candidates.
func DefaultCatalogue() Catalogue {
	c := make(Catalogue, len(defaultCandidates))
	for f, names := range defaultCandidates {
		c[f] = append([]string(nil), names...)
	}
	return c
}

// Candidates returns the candidate headers for a field.
func (c Catalogue) Candidates(f Field) []string {
	return c[f]
}

// With returns a copy of the catalogue where each override list is tried
// before the existing candidates for that field. Keys are field names
// ("duration", "zone", ...). Unknown field names are rejected.
func (c Catalogue) With(overrides map[string][]string) (Catalogue, error) {
	out := make(Catalogue, len(c))
	for f, names := range c {
		out[f] = append([]string(nil), names...)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f := Field(k)
		if _, ok := defaultCandidates[f]; !ok {
			return nil, fmt.Errorf("unknown header field %q", k)
		}
		merged := make([]string, 0, len(overrides[k])+len(out[f]))
		seen := make(map[string]bool)
		for _, name := range append(append([]string(nil), overrides[k]...), out[f]...) {
			n := NormalizeHeader(name)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			merged = append(merged, n)
		}
		out[f] = merged
	}
	return out, nil
}

// Resolve returns the value of field f in record, or "" when no candidate matches.
func (c Catalogue) Resolve(record map[string]string, f Field) string {
	return Resolve(record, c[f]...)
}

// ============================================================================
// REPORT — Result of header discovery
// ============================================================================

// Report describes how a dataset's headers line up with the catalogue.
type Report struct {
	Name         string          `json:"name"`
	Rows         int             `json:"rows"`
	Resolved     []ResolvedField `json:"resolved"`
	Missing      []Field         `json:"missing,omitempty"`
	Dimensions   []ColumnMeta    `json:"dimensions"`
	Measures     []ColumnMeta    `json:"measures"`
	Skipped      []SkippedColumn `json:"skippedColumns,omitempty"`
	DiscoveredAt string          `json:"discoveredAt,omitempty"`
}

// ResolvedField pairs a canonical field with the header that satisfied it.
type ResolvedField struct {
	Field  Field  `json:"field"`
	Header string `json:"header"`
}

// ColumnMeta describes an extra column usable for pivots.
type ColumnMeta struct {
	Header          string   `json:"header"`
	DisplayName     string   `json:"displayName"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	UniqueCount     int      `json:"uniqueCount"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// SkippedColumn records why a column was left out of pivot suggestions.
type SkippedColumn struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// DimensionHeaders returns the headers of all discovered dimensions.
func (r Report) DimensionHeaders() []string {
	keys := make([]string, len(r.Dimensions))
	for i, d := range r.Dimensions {
		keys[i] = d.Header
	}
	return keys
}

// MeasureHeaders returns the headers of all discovered measures.
func (r Report) MeasureHeaders() []string {
	keys := make([]string, len(r.Measures))
	for i, m := range r.Measures {
		keys[i] = m.Header
	}
	return keys
}
