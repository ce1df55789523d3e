package engine

import (
	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Grouping, pivots and the record table read derived records through this
// interface instead of touching struct fields directly.
//
// Implementations:
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered or reordered subset (indices into parent)
//
// RecordsView binds []telemetry.Record once; lookups for names that are not
// registered fall through to the record's raw columns.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // registered dimension keys
	MeasureKeys() []string   // registered measure keys
}

// ============================================================================
// SUB VIEW — subset of a parent view (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Trip]().
//	    Dimension("vehicle", func(t Trip) string { return t.Vehicle }).
//	    Measure("km", func(t Trip) float64 { return t.Km })
//
//	view := adapter.Bind(trips)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	dimFall  func(T, string) string
	mesFall  func(T, string) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Fallback registers lookups used for keys with no registered accessor.
// Either function may be nil.
func (a *DomainAdapter[T]) Fallback(dim func(T, string) string, mes func(T, string) float64) *DomainAdapter[T] {
	a.dimFall = dim
	a.mesFall = mes
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		dimFall:  a.dimFall,
		mesFall:  a.mesFall,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	dimFall  func(T, string) string
	mesFall  func(T, string) float64
	dimKeys  []string
	measKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	if v.dimFall != nil {
		return v.dimFall(v.data[i], key)
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	if v.mesFall != nil {
		return v.mesFall(v.data[i], key)
	}
	return 0
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }

// ============================================================================
// TELEMETRY BINDING
// ============================================================================

// Dimension and measure keys registered for derived records.
const (
	KeyVehicle     = "vehicleNumber"
	KeyZone        = "zone"
	KeyRoute       = "routeName"
	KeyTripName    = "tripName"
	KeyLoadNumber  = "loadNumber"
	KeyTripStatus  = "tripStatus"
	KeyAlertType   = "alertType"
	KeyLocation    = "locationName"
	KeyStartTime   = "startTime"
	KeyEndTime     = "endTime"
	KeyDuration    = "durationMinutes"
	KeyDeviation   = "routeDeviationKm"
	KeyTransitTime = "transitTimeMinutes"
	KeyLongitude   = "longitude"
	KeyLatitude    = "latitude"
)

var recordAdapter = NewDomainAdapter[telemetry.Record]().
	Dimension(KeyVehicle, func(r telemetry.Record) string { return r.VehicleNumber }).
	Dimension(KeyZone, func(r telemetry.Record) string { return r.Zone }).
	Dimension(KeyRoute, func(r telemetry.Record) string { return r.RouteName }).
	Dimension(KeyTripName, func(r telemetry.Record) string { return r.TripName }).
	Dimension(KeyLoadNumber, func(r telemetry.Record) string { return r.LoadNumber }).
	Dimension(KeyTripStatus, func(r telemetry.Record) string { return r.TripStatus }).
	Dimension(KeyAlertType, func(r telemetry.Record) string { return r.AlertType }).
	Dimension(KeyLocation, func(r telemetry.Record) string { return r.LocationName }).
	Dimension(KeyStartTime, func(r telemetry.Record) string { return r.Field(KeyStartTime) }).
	Dimension(KeyEndTime, func(r telemetry.Record) string { return r.Field(KeyEndTime) }).
	Measure(KeyDuration, func(r telemetry.Record) float64 { return r.DurationMinutes }).
	Measure(KeyDeviation, func(r telemetry.Record) float64 { return r.RouteDeviationKm }).
	Measure(KeyTransitTime, func(r telemetry.Record) float64 { return r.TransitTimeMinutes }).
	Measure(KeyLongitude, func(r telemetry.Record) float64 { return r.Longitude }).
	Measure(KeyLatitude, func(r telemetry.Record) float64 { return r.Latitude }).
	Fallback(
		func(r telemetry.Record, key string) string { return r.Field(key) },
		func(r telemetry.Record, key string) float64 { return r.Measure(key) },
	)

// RecordsView exposes derived records as a RecordView.
// Unregistered keys resolve against the derived names in any case,
// then against the raw columns.
func RecordsView(records []telemetry.Record) RecordView {
	return recordAdapter.Bind(records)
}
