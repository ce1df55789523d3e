// Package telemetry turns raw alert-export rows into derived records.
//
// Every derived attribute has a defined value: numeric fields fall back to
// 0, labels fall back to "Unknown", and timestamps are nil when the source
// text is missing, a "-" placeholder, or in an unrecognized layout.
package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/fleetlens/schema"
)

// Unknown is the label used whenever a textual attribute has no usable value.
const Unknown = "Unknown"

// RawRecord is one input row keyed by its header line.
type RawRecord map[string]string

// Record is a normalized alert row. Records are values; nothing in this
// module mutates one after Normalize returns it.
type Record struct {
	DurationMinutes    float64    `json:"durationMinutes"`
	RouteDeviationKm   float64    `json:"routeDeviationKm"`
	LocationName       string     `json:"locationName"`
	Longitude          float64    `json:"longitude"`
	Latitude           float64    `json:"latitude"`
	AlertType          string     `json:"alertType"`
	StartTime          *time.Time `json:"startTime,omitempty"`
	EndTime            *time.Time `json:"endTime,omitempty"`
	TransitTimeMinutes float64    `json:"transitTimeMinutes"`
	RouteName          string     `json:"routeName"`
	VehicleNumber      string     `json:"vehicleNumber"`
	Zone               string     `json:"zone"`
	LoadNumber         string     `json:"loadNumber"`
	TripName           string     `json:"tripName"`
	TripStatus         string     `json:"tripStatus"`

	Raw RawRecord `json:"raw"`
}

// HasCoordinates reports whether both coordinates are set. 0 means "no coordinate".
func (r Record) HasCoordinates() bool {
	return r.Longitude != 0 && r.Latitude != 0
}

// DerivedFields lists the attribute names Field and Measure answer for
// directly. Lookups are case-insensitive.
var DerivedFields = []string{
	"durationMinutes", "routeDeviationKm", "locationName", "longitude", "latitude",
	"alertType", "startTime", "endTime", "transitTimeMinutes", "routeName",
	"vehicleNumber", "zone", "loadNumber", "tripName", "tripStatus",
}

// Field returns the string value of a derived attribute or, failing that,
// of the raw column with that header. Missing fields yield "".
func (r Record) Field(name string) string {
	switch strings.ToLower(schema.NormalizeHeader(name)) {
	case "durationminutes":
		return formatNumber(r.DurationMinutes)
	case "routedeviationkm":
		return formatNumber(r.RouteDeviationKm)
	case "locationname":
		return r.LocationName
	case "longitude":
		return formatNumber(r.Longitude)
	case "latitude":
		return formatNumber(r.Latitude)
	case "alerttype":
		return r.AlertType
	case "starttime":
		return formatTime(r.StartTime)
	case "endtime":
		return formatTime(r.EndTime)
	case "transittimeminutes":
		return formatNumber(r.TransitTimeMinutes)
	case "routename":
		return r.RouteName
	case "vehiclenumber":
		return r.VehicleNumber
	case "zone":
		return r.Zone
	case "loadnumber":
		return r.LoadNumber
	case "tripname":
		return r.TripName
	case "tripstatus":
		return r.TripStatus
	}
	return schema.Resolve(r.Raw, name)
}

// Measure returns the numeric value of a derived attribute or raw column.
// Non-numeric and missing values read as 0.
func (r Record) Measure(name string) float64 {
	switch strings.ToLower(schema.NormalizeHeader(name)) {
	case "durationminutes":
		return r.DurationMinutes
	case "routedeviationkm":
		return r.RouteDeviationKm
	case "longitude":
		return r.Longitude
	case "latitude":
		return r.Latitude
	case "transittimeminutes":
		return r.TransitTimeMinutes
	}
	return ParseNumber(r.Field(name))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
