package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/schema"
)

const sampleYAML = `
filters:
  minDuration: 15
  minDeviation: 2.5
  alertThreshold: 3
  zone: NCL
  dateRange: custom
  startDate: 2024-01-01
  endDate: 2024-01-31
dashboard:
  topLocations: 5
  validZones: [SCL, NCL, NWL]
headers:
  zone: [Region]
pivots:
  - name: byZone
    groupBy: [zone]
    aggregations:
      - type: count
        alias: alerts
      - field: durationMinutes
        type: sum
export:
  filename: fleet
  includeTimestamp: false
  renames:
    Routes:
      - from: Route Name
        to: Route
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleetlens.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fc := cfg.Filters.FilterConfig()
	if fc.MinDuration != 15 || fc.MinDeviation != 2.5 || fc.AlertThreshold != 3 {
		t.Errorf("filters = %+v", fc)
	}
	if fc.SelectedZone != "NCL" || fc.DateRangeType != engine.RangeCustom || fc.StartDate != "2024-01-01" {
		t.Errorf("filters = %+v", fc)
	}

	if cfg.Dashboard.TopLocations != 5 {
		t.Errorf("topLocations = %d", cfg.Dashboard.TopLocations)
	}
	if cfg.Dashboard.CacheSize != 32 {
		t.Errorf("cacheSize should keep its default, got %d", cfg.Dashboard.CacheSize)
	}

	spec, ok := cfg.Pivot("byZone")
	if !ok {
		t.Fatal("pivot byZone missing")
	}
	if len(spec.Aggregations) != 2 || spec.Aggregations[0].Name() != "alerts" {
		t.Errorf("pivot = %+v", spec)
	}

	if cfg.Export.IncludeTimestampOrDefault() {
		t.Error("includeTimestamp: false was ignored")
	}
	if got := cfg.ExportOptions().Renames["Routes"]; len(got) != 1 || got[0].To != "Route" {
		t.Errorf("renames = %v", got)
	}

	cat, err := cfg.Catalogue()
	if err != nil {
		t.Fatal(err)
	}
	if got := cat.Candidates(schema.FieldZone)[0]; got != "Region" {
		t.Errorf("zone override = %q, want Region first", got)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 3 {
		t.Errorf("expected 3 engine options, got %d", len(opts))
	}

	n, err := cfg.Normalizer()
	if err != nil {
		t.Fatal(err)
	}
	r := n.Normalize(map[string]string{"Region": "NWL"})
	if r.Zone != "NWL" {
		t.Errorf("normalizer zone = %q, want NWL from Region", r.Zone)
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Dashboard.TopLocations != engine.DefaultTopLimit {
		t.Errorf("topLocations = %d", cfg.Dashboard.TopLocations)
	}
	if !cfg.Export.IncludeTimestampOrDefault() {
		t.Error("includeTimestamp should default to true")
	}
	if !reflect.DeepEqual(cfg.Dashboard.ValidZones, engine.FleetZones) {
		t.Errorf("validZones = %v, want %v", cfg.Dashboard.ValidZones, engine.FleetZones)
	}
	opts, err := cfg.EngineOptions()
	if err != nil || len(opts) != 2 {
		t.Errorf("default engine options: %v, %d", err, len(opts))
	}

	cleared, err := Parse([]byte("dashboard:\n  validZones: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared.Dashboard.ValidZones) != 0 {
		t.Errorf("empty validZones should clear the defaults, got %v", cleared.Dashboard.ValidZones)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative duration", "filters:\n  minDuration: -1\n", "MinDuration"},
		{"unknown range", "filters:\n  dateRange: fortnight\n", "DateRange"},
		{"bad date", "filters:\n  startDate: 01/02/2024\n", "StartDate"},
		{"unknown key", "filter:\n  zone: NCL\n", "field filter not found"},
		{"unknown header field", "headers:\n  colour: [Colour]\n", "unknown header field"},
		{"pivot type", "pivots:\n  - name: p\n    groupBy: [zone]\n    aggregations:\n      - field: x\n        type: avg\n", "Type"},
		{"pivot field required", "pivots:\n  - name: p\n    groupBy: [zone]\n    aggregations:\n      - type: sum\n", "Field"},
		{"pivot without groups", "pivots:\n  - name: p\n    aggregations:\n      - type: count\n", "GroupBy"},
		{"duplicate pivot", "pivots:\n  - name: p\n    groupBy: [zone]\n    aggregations: [{type: count}]\n  - name: p\n    groupBy: [routeName]\n    aggregations: [{type: count}]\n", "duplicate pivot"},
		{"duplicate pivot column", "pivots:\n  - name: p\n    groupBy: [zone]\n    aggregations:\n      - {type: count, alias: n}\n      - {field: durationMinutes, type: sum, alias: n}\n", "duplicate column"},
		{"duplicate default column", "pivots:\n  - name: p\n    groupBy: [zone]\n    aggregations: [{type: count}, {type: count}]\n", "duplicate column"},
		{"rename target", "export:\n  renames:\n    Routes:\n      - from: Route Name\n", "To"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	saved := DefaultPaths
	DefaultPaths = []string{filepath.Join(t.TempDir(), "absent.yml")}
	defer func() { DefaultPaths = saved }()

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Dashboard.TopLocations != engine.DefaultTopLimit {
		t.Errorf("expected defaults, got %+v", cfg.Dashboard)
	}
}

func TestExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "fleetlens.example.yml"))
	if err != nil {
		t.Fatalf("example config: %v", err)
	}
	if len(cfg.Dashboard.ValidZones) != 6 {
		t.Errorf("validZones = %v", cfg.Dashboard.ValidZones)
	}
	if _, ok := cfg.Pivot("Monthly Deviation"); !ok {
		t.Error("Monthly Deviation pivot missing")
	}
	if !cfg.Export.IncludeTimestampOrDefault() {
		t.Error("includeTimestamp should be true")
	}
}
