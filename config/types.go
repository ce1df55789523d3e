package config

import (
	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/helpers"
	"github.com/spektr-org/fleetlens/telemetry"
)

// FilterSettings holds the default filter configuration.
type FilterSettings struct {
	MinDuration    float64 `yaml:"minDuration" validate:"gte=0"`
	MinDeviation   float64 `yaml:"minDeviation" validate:"gte=0"`
	AlertThreshold int     `yaml:"alertThreshold" validate:"gte=0"`
	Zone           string  `yaml:"zone"`
	DateRange      string  `yaml:"dateRange" validate:"omitempty,oneof=daily weekly monthly yearly last7days last30days lastQuarter custom"`
	StartDate      string  `yaml:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string  `yaml:"endDate" validate:"omitempty,datetime=2006-01-02"`
	TripStatus     string  `yaml:"tripStatus"`
}

// DashboardSettings tunes the aggregators and the session cache.
type DashboardSettings struct {
	TopLocations int      `yaml:"topLocations" validate:"gte=0"`
	ValidZones   []string `yaml:"validZones" validate:"dive,required"`
	CacheSize    int      `yaml:"cacheSize" validate:"gte=0"`
}

// AggregationSettings is one pivot column.
type AggregationSettings struct {
	Field string `yaml:"field" validate:"required_unless=Type count"`
	Type  string `yaml:"type" validate:"required,oneof=sum count distinct"`
	Alias string `yaml:"alias"`
}

// PivotSettings is a named pivot table definition.
type PivotSettings struct {
	Name         string                `yaml:"name" validate:"required"`
	GroupBy      []string              `yaml:"groupBy" validate:"min=1,dive,required"`
	Aggregations []AggregationSettings `yaml:"aggregations" validate:"min=1,dive"`
}

// ExportSettings controls workbook export.
type ExportSettings struct {
	Filename         string                            `yaml:"filename"`
	IncludeTimestamp *bool                             `yaml:"includeTimestamp"`
	Renames          map[string][]helpers.ColumnRename `yaml:"renames" validate:"dive,dive"`
}

// Config is the root configuration structure.
type Config struct {
	Filters   FilterSettings      `yaml:"filters"`
	Dashboard DashboardSettings   `yaml:"dashboard"`
	Headers   map[string][]string `yaml:"headers"` // canonical field → extra candidate headers
	Pivots    []PivotSettings     `yaml:"pivots" validate:"dive"`
	Export    ExportSettings      `yaml:"export"`
}

// FilterConfig converts the filter defaults to the engine form.
func (f FilterSettings) FilterConfig() engine.FilterConfig {
	return engine.FilterConfig{
		MinDuration:        f.MinDuration,
		MinDeviation:       f.MinDeviation,
		AlertThreshold:     f.AlertThreshold,
		SelectedZone:       f.Zone,
		DateRangeType:      f.DateRange,
		StartDate:          f.StartDate,
		EndDate:            f.EndDate,
		RequiredTripStatus: f.TripStatus,
	}
}

// PivotSpecs converts pivot definitions to the engine form.
func (c *Config) PivotSpecs() []engine.PivotSpec {
	specs := make([]engine.PivotSpec, 0, len(c.Pivots))
	for _, p := range c.Pivots {
		spec := engine.PivotSpec{Name: p.Name, GroupBy: append([]string(nil), p.GroupBy...)}
		for _, a := range p.Aggregations {
			spec.Aggregations = append(spec.Aggregations, engine.PivotAggregation{
				Field: a.Field,
				Type:  a.Type,
				Alias: a.Alias,
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

// Pivot returns the named pivot definition.
func (c *Config) Pivot(name string) (engine.PivotSpec, bool) {
	for _, spec := range c.PivotSpecs() {
		if spec.Name == name {
			return spec, true
		}
	}
	return engine.PivotSpec{}, false
}

// EngineOptions returns the engine options implied by the dashboard and
// pivot sections. Header overrides are applied by Normalizer.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	opts := []engine.Option{engine.WithTopLimit(c.Dashboard.TopLocations)}
	if len(c.Dashboard.ValidZones) > 0 {
		opts = append(opts, engine.WithValidZones(c.Dashboard.ValidZones...))
	}
	if specs := c.PivotSpecs(); len(specs) > 0 {
		opts = append(opts, engine.WithPivots(specs...))
	}
	return opts, nil
}

// Normalizer returns a record normalizer that resolves columns against
// the configured catalogue.
func (c *Config) Normalizer() (*telemetry.Normalizer, error) {
	cat, err := c.Catalogue()
	if err != nil {
		return nil, err
	}
	return telemetry.NewNormalizer(cat), nil
}

// ExportOptions returns the workbook layout options.
func (c *Config) ExportOptions() helpers.ExportOptions {
	return helpers.ExportOptions{Renames: c.Export.Renames}
}

// IncludeTimestampOrDefault reports whether export filenames carry the
// date. Defaults to true.
func (e ExportSettings) IncludeTimestampOrDefault() bool {
	return e.IncludeTimestamp == nil || *e.IncludeTimestamp
}
