package telemetry

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spektr-org/fleetlens/schema"
)

// Normalizer maps raw rows to derived records through a header catalogue.
// It holds no state besides the catalogue and is safe for concurrent use.
type Normalizer struct {
	catalogue schema.Catalogue
}

// NewNormalizer creates a Normalizer. A nil catalogue uses the defaults.
func NewNormalizer(cat schema.Catalogue) *Normalizer {
	if cat == nil {
		cat = schema.DefaultCatalogue()
	}
	return &Normalizer{catalogue: cat}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize maps one raw row using the default catalogue.
func Normalize(raw RawRecord) Record {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeAll maps every raw row using the default catalogue.
func NormalizeAll(raws []RawRecord) []Record {
	return defaultNormalizer.NormalizeAll(raws)
}

// NormalizeAll maps every raw row. The result has one record per input row.
func (n *Normalizer) NormalizeAll(raws []RawRecord) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = n.Normalize(raw)
	}
	return out
}

// Normalize maps one raw row to a Record. It never fails: missing or
// malformed values degrade to 0, "Unknown", or a nil timestamp.
func (n *Normalizer) Normalize(raw RawRecord) Record {
	headers := schema.IndexHeaders(raw)
	get := func(f schema.Field) string {
		key, ok := headers.Match(n.catalogue.Candidates(f)...)
		if !ok {
			return ""
		}
		return strings.TrimSpace(raw[key])
	}

	rec := Record{
		DurationMinutes:  nonNegative(ParseNumber(get(schema.FieldDuration))),
		RouteDeviationKm: nonNegative(ParseNumber(get(schema.FieldDeviation))),
		LocationName: ExtractLandmark(firstNonEmpty(
			get(schema.FieldStoppageLocation),
			get(schema.FieldEndLocation),
			get(schema.FieldStartLocation),
		)),
		Longitude:     ParseNumber(get(schema.FieldLongitude)),
		Latitude:      ParseNumber(get(schema.FieldLatitude)),
		AlertType:     ClassifyAlert(get(schema.FieldAlertSource)),
		RouteName:     orUnknown(firstNonEmpty(get(schema.FieldRouteNumber), get(schema.FieldTripName))),
		VehicleNumber: orUnknown(get(schema.FieldVehicle)),
		Zone:          orUnknown(get(schema.FieldZone)),
		LoadNumber:    get(schema.FieldLoadNumber),
		TripName:      get(schema.FieldTripName),
		TripStatus:    get(schema.FieldTripStatus),
		Raw:           copyRaw(raw),
	}

	if t, ok := ParseTimestamp(get(schema.FieldStartTime)); ok {
		rec.StartTime = &t
	}
	if t, ok := ParseTimestamp(get(schema.FieldEndTime)); ok {
		rec.EndTime = &t
	}
	// Not clamped: an end before the start yields a negative transit time.
	if rec.StartTime != nil && rec.EndTime != nil {
		rec.TransitTimeMinutes = rec.EndTime.Sub(*rec.StartTime).Minutes()
	}

	return rec
}

// leadingNumber matches the numeric prefix a lenient float parse accepts:
// "12.5 min" → 12.5, "-3" → -3, ".5" → 0.5.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber parses the leading numeric prefix of s. Anything unparseable,
// NaN or infinite reads as 0.
func ParseNumber(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

func copyRaw(raw RawRecord) RawRecord {
	out := make(RawRecord, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
