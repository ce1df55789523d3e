package helpers

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// PARSER TESTS
// ============================================================================

func TestParseDelimitedComma(t *testing.T) {
	data := []byte("Vehicle Number,Stoppage location,Zone\r\n" +
		"MH12,\"1.73 km from M/S Suvidha, Shahpur\",NCL\r\n" +
		"\r\n" +
		"KA01,\"Line one\nline two\",SCL\r\n")

	res, err := ParseDelimited(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Delimiter != ',' {
		t.Errorf("delimiter = %q", res.Delimiter)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records (blank line skipped), got %d", len(res.Records))
	}
	if got := res.Records[0]["Stoppage location"]; got != "1.73 km from M/S Suvidha, Shahpur" {
		t.Errorf("quoted delimiter: %q", got)
	}
	if got := res.Records[1]["Stoppage location"]; got != "Line one\nline two" {
		t.Errorf("embedded newline: %q", got)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestParseDelimitedTabDetection(t *testing.T) {
	data := []byte("Zone\tVehicle Number\tRemarks\nNCL\tV1\tsays \"\"hi\"\", ok\n")

	res, err := ParseDelimited(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delimiter != '\t' {
		t.Fatalf("delimiter = %q, want tab", res.Delimiter)
	}
	if res.Records[0]["Vehicle Number"] != "V1" {
		t.Errorf("record = %v", res.Records[0])
	}
}

func TestParseDelimitedMalformedRowsKept(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n7,8,9\n")

	res, err := ParseDelimited(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("expected all 3 rows kept, got %d", len(res.Records))
	}
	if _, ok := res.Records[0]["c"]; ok {
		t.Error("missing trailing field should be absent")
	}
	if len(res.Records[1]) != 3 {
		t.Errorf("extra field should be dropped, got %v", res.Records[1])
	}

	codes := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	if !reflect.DeepEqual(codes, []string{DiagTooFewFields, DiagTooManyFields}) {
		t.Errorf("diagnostic codes = %v", codes)
	}
	if res.Diagnostics[0].Line != 2 {
		t.Errorf("diagnostic line = %d, want 2", res.Diagnostics[0].Line)
	}
}

func TestParseDelimitedBOMAndEmpty(t *testing.T) {
	res, err := ParseDelimited(append([]byte{0xEF, 0xBB, 0xBF}, []byte("Zone\nNCL\n")...))
	if err != nil {
		t.Fatal(err)
	}
	if res.Headers[0] != "Zone" {
		t.Errorf("BOM not stripped: %q", res.Headers[0])
	}

	if _, err := ParseDelimited(nil); err == nil {
		t.Error("empty input should return an error")
	}

	res, err = ParseDelimited([]byte("Zone,Vehicle Number\n"))
	if err != nil || len(res.Records) != 0 {
		t.Errorf("header-only input: %v, %d records", err, len(res.Records))
	}
}

func TestParseDelimitedExplicitDelimiter(t *testing.T) {
	res, err := ParseDelimited([]byte("a;b\n1;2\n"), ParseOptions{Delimiter: ';'})
	if err != nil {
		t.Fatal(err)
	}
	if res.Records[0]["b"] != "2" {
		t.Errorf("record = %v", res.Records[0])
	}
}

// ============================================================================
// EXPORT TESTS
// ============================================================================

type routeRow struct {
	Route  string  `csv:"Route"`
	Avg    float64 `csv:"Avg (km)"`
	Alerts int     `csv:"Alerts"`
	Note   string  `csv:"-"`
}

func TestSheetFromRows(t *testing.T) {
	sheet, err := SheetFromRows("Routes", []routeRow{{"R1", 2.5, 3, "x"}, {"R2", 1, 1, ""}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sheet.Header, []string{"Route", "Avg (km)", "Alerts"}) {
		t.Errorf("header = %v", sheet.Header)
	}
	if !reflect.DeepEqual(sheet.Numeric, []bool{false, true, true}) {
		t.Errorf("numeric = %v", sheet.Numeric)
	}
	if len(sheet.Rows) != 2 || sheet.Rows[0][0] != "R1" || sheet.Rows[0][1] != "2.5" {
		t.Errorf("rows = %v", sheet.Rows)
	}

	empty, err := SheetFromRows("Empty", []routeRow{})
	if err != nil || len(empty.Rows) != 0 || len(empty.Header) != 3 {
		t.Errorf("empty sheet: %v %+v", err, empty)
	}

	if _, err := SheetFromRows("Bad", 42); err == nil {
		t.Error("non-slice should fail")
	}
}

func TestApplyRenames(t *testing.T) {
	s := Sheet{
		Name:    "Routes",
		Header:  []string{"Route", "Avg (km)", "Alerts"},
		Rows:    [][]string{{"R1", "2.5", "3"}},
		Numeric: []bool{false, true, true},
	}
	got := ApplyRenames(s, []ColumnRename{
		{From: "Alerts", To: "Alert Count"},
		{From: "Route", To: "Route Name"},
		{From: "Missing", To: "Blank"},
	})

	if !reflect.DeepEqual(got.Header, []string{"Alert Count", "Route Name", "Blank"}) {
		t.Errorf("header = %v", got.Header)
	}
	if !reflect.DeepEqual(got.Rows[0], []string{"3", "R1", ""}) {
		t.Errorf("row = %v", got.Rows[0])
	}
	if !reflect.DeepEqual(got.Numeric, []bool{true, false, false}) {
		t.Errorf("numeric = %v", got.Numeric)
	}
}

func TestSheetNameAndFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Routes", "Routes"},
		{"Zone/Alert [types]", "Zone_Alert _types_"},
		{"An extremely long sheet name that overflows", "An extremely long sheet name th"},
		{"  ", "Sheet"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.input); got != tt.expected {
			t.Errorf("SheetName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}

	now := time.Date(2024, time.March, 5, 23, 30, 0, 0, time.UTC)
	if got := ExportFilename("", true, now); got != "DashboardExport_2024-03-05.xlsx" {
		t.Errorf("filename = %q", got)
	}
	if got := ExportFilename("fleet.xlsx", false, now); got != "fleet.xlsx" {
		t.Errorf("filename = %q", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	routes, _ := SheetFromRows("Routes", []routeRow{{"R1", 2.5, 3, ""}})
	empty, _ := SheetFromRows("Nothing", []routeRow{})
	sheets := []Sheet{
		routes,
		empty,
		{Name: "Routes", Header: []string{"x"}, Rows: [][]string{{"dup"}}},
	}

	var buf bytes.Buffer
	err := WriteXLSX(&buf, sheets, ExportOptions{
		Renames: map[string][]ColumnRename{"Routes": {{From: "Route", To: "Route Name"}, {From: "Avg (km)", To: "Avg"}}},
	})
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Routes", "Routes (2)"}) {
		t.Errorf("sheets = %v", got)
	}
	rows, err := f.GetRows("Routes")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"Route Name", "Avg"}, {"R1", "2.5"}}) {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteXLSXNothingToExport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, []Sheet{{Name: "Empty", Header: []string{"a"}}}, ExportOptions{})
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
}
