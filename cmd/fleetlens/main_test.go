package main

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spektr-org/fleetlens/config"
	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/telemetry"
)

func parseFlags(t *testing.T, args ...string) (*cliFlags, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("fleetlens", flag.ContinueOnError)
	c := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c, fs
}

func testDashboard() *engine.Dashboard {
	start := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.Local)
	records := []telemetry.Record{
		{VehicleNumber: "V1", Zone: "NCL", RouteName: "R1", AlertType: telemetry.AlertStoppageViolation,
			DurationMinutes: 30, LocationName: "Depot A (1 km)", Longitude: 73.8, Latitude: 18.5, StartTime: &start},
		{VehicleNumber: "V2", Zone: "SCL", RouteName: "R2", AlertType: telemetry.AlertRouteDiversion,
			DurationMinutes: 10, RouteDeviationKm: 3.5, LocationName: telemetry.Unknown},
	}
	return engine.Execute(records, engine.FilterConfig{}, engine.WithPivots(engine.PivotSpec{
		Name:         "byZone",
		GroupBy:      []string{engine.KeyZone},
		Aggregations: []engine.PivotAggregation{{Type: engine.PivotCount, Alias: "alerts"}},
	}))
}

func TestFilterConfigOverridesOnlySetFlags(t *testing.T) {
	base := engine.FilterConfig{MinDuration: 15, SelectedZone: "NCL", DateRangeType: engine.RangeWeekly}

	c, fs := parseFlags(t, "--zone", "SCL", "--alert-threshold", "2")
	fc, err := c.filterConfig(base, fs)
	if err != nil {
		t.Fatal(err)
	}
	if fc.MinDuration != 15 || fc.DateRangeType != engine.RangeWeekly {
		t.Errorf("unset flags should keep config values: %+v", fc)
	}
	if fc.SelectedZone != "SCL" || fc.AlertThreshold != 2 {
		t.Errorf("set flags should override: %+v", fc)
	}

	c, fs = parseFlags(t, "--zone", "")
	fc, _ = c.filterConfig(base, fs)
	if fc.SelectedZone != "" {
		t.Errorf("explicit empty zone should clear it, got %q", fc.SelectedZone)
	}
}

func TestFilterConfigRejectsBadValues(t *testing.T) {
	tests := [][]string{
		{"--date-range", "fortnight"},
		{"--date-range", "custom", "--start-date", "2024/01/01"},
		{"--min-duration", "-5"},
	}
	for _, args := range tests {
		c, fs := parseFlags(t, args...)
		if _, err := c.filterConfig(engine.FilterConfig{}, fs); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		input   string
		want    rune
		wantErr bool
	}{
		{"", 0, false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{"Comma", ',', false},
		{";", ';', false},
		{"|", '|', false},
		{"::", 0, true},
		{`"`, 0, true},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseDelimiter(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestNewSessionAppliesHeaderOverrides(t *testing.T) {
	cfg, err := config.Parse([]byte("headers:\n  vehicle: [Truck No]\n  zone: [Region]\n"))
	if err != nil {
		t.Fatal(err)
	}
	sess, err := newSession(cfg, 0)
	if err != nil {
		t.Fatal(err)
	}

	ds, err := sess.Load(context.Background(), "fleet.csv",
		[]byte("Truck No,Region,Alert Duration (min)\nMH12,NCL,20\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}
	r := ds.Records[0]
	if r.VehicleNumber != "MH12" || r.Zone != "NCL" || r.DurationMinutes != 20 {
		t.Errorf("record = %+v", r)
	}
}

func TestExportPath(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	off := false

	if got := exportPath("out/fleet.XLSX", config.ExportSettings{}, now); got != "out/fleet.XLSX" {
		t.Errorf("explicit file = %q", got)
	}
	if got := exportPath("out", config.ExportSettings{}, now); got != filepath.Join("out", "DashboardExport_2024-03-05.xlsx") {
		t.Errorf("directory = %q", got)
	}
	settings := config.ExportSettings{Filename: "fleet", IncludeTimestamp: &off}
	if got := exportPath(".", settings, now); got != "fleet.xlsx" {
		t.Errorf("configured name = %q", got)
	}
}

func TestViewSheetCSV(t *testing.T) {
	d := testDashboard()

	sheet, err := viewSheet(d, viewRoutes, engine.TableQuery{}, "")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeSheetCSV(&buf, sheet); err != nil {
		t.Fatal(err)
	}
	want := "Route Name,Avg Deviation (km),Max Deviation (km),Total Alerts\n" +
		"R2,3.5,3.5,1\n" +
		"R1,0,0,1\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}

	if _, err := viewSheet(d, viewAll, engine.TableQuery{}, ""); err == nil {
		t.Error("csv of all views should fail")
	}
	if _, err := viewSheet(d, viewPivot, engine.TableQuery{}, "missing"); err == nil {
		t.Error("unknown pivot should fail")
	}

	pivot, err := viewSheet(d, viewPivot, engine.TableQuery{}, "byZone")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(pivot.Header, ",") != "Zone,alerts" || len(pivot.Rows) != 2 {
		t.Errorf("pivot sheet = %+v", pivot)
	}
}

func TestDashboardSheets(t *testing.T) {
	sheets, err := dashboardSheets(testDashboard())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	want := "Summary,Route Deviation,Top Stoppages,Zone KPIs,Alert Distribution,Timeline,Records,byZone"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("sheets = %s, want %s", got, want)
	}
	if len(sheets[0].Rows) != 1 || sheets[0].Rows[0][0] != "2" {
		t.Errorf("summary sheet = %v", sheets[0].Rows)
	}
}

func TestViewDataAndText(t *testing.T) {
	d := testDashboard()
	for _, v := range views {
		if _, err := viewData(d, v, engine.TableQuery{}, ""); err != nil {
			t.Errorf("viewData(%s): %v", v, err)
		}
	}

	text, err := viewText(d, viewTable, engine.TableQuery{PageSize: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "page 1 of 2 (2 matching records)") {
		t.Errorf("table text missing pager:\n%s", text)
	}

	if isView("map") || !isView(viewBubble) {
		t.Error("isView mismatch")
	}
}
