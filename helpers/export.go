package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
)

// ============================================================================
// EXPORT HELPER — Flattens dashboard views into spreadsheet sheets
// ============================================================================
// SheetFromRows turns any slice of csv-tagged structs into header + cells
// through csvutil. BuildWorkbook lays sheets out with excelize, one
// worksheet per non-empty sheet, in the order given.
// ============================================================================

// DefaultExportName is the workbook base name when none is configured.
const DefaultExportName = "DashboardExport"

// maxSheetName is the longest worksheet name spreadsheet apps accept.
const maxSheetName = 31

// ErrNothingToExport is returned when every sheet is empty.
var ErrNothingToExport = errors.New("no rows to export")

// Sheet is one named table of string cells.
type Sheet struct {
	Name    string
	Header  []string
	Rows    [][]string
	Numeric []bool // per column; numeric cells are written as numbers
}

// ColumnRename maps a source column to an output column name.
type ColumnRename struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
}

// ExportOptions controls workbook layout.
type ExportOptions struct {
	// Renames per sheet name. A sheet with renames keeps only the renamed
	// columns, in the order listed.
	Renames map[string][]ColumnRename
}

// SheetFromRows flattens a slice of csv-tagged structs into a Sheet.
// Numeric struct fields become numeric columns.
func SheetFromRows(name string, rows interface{}) (Sheet, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return Sheet{}, fmt.Errorf("sheet %q: expected a slice, got %T", name, rows)
	}

	elem := reflect.New(v.Type().Elem()).Elem().Interface()
	header, err := csvutil.Header(elem, "csv")
	if err != nil {
		return Sheet{}, fmt.Errorf("sheet %q: failed to read header: %w", name, err)
	}
	sheet := Sheet{Name: name, Header: header, Rows: [][]string{}, Numeric: numericColumns(v.Type().Elem(), header)}
	if v.Len() == 0 {
		return sheet, nil
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return Sheet{}, fmt.Errorf("sheet %q: failed to encode rows: %w", name, err)
	}
	cells, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("sheet %q: failed to decode rows: %w", name, err)
	}
	if len(cells) > 0 {
		sheet.Rows = cells[1:]
	}
	return sheet, nil
}

// numericColumns reports, per header, whether the struct field behind it
// is a number.
func numericColumns(t reflect.Type, header []string) []bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	kinds := make(map[string]bool)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := strings.Split(f.Tag.Get("csv"), ",")[0]
			if tag == "-" {
				continue
			}
			if tag == "" {
				tag = f.Name
			}
			switch f.Type.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Float32, reflect.Float64:
				kinds[tag] = true
			}
		}
	}

	out := make([]bool, len(header))
	for i, h := range header {
		out[i] = kinds[h]
	}
	return out
}

// ApplyRenames keeps only the renamed columns, in rename order. A source
// column missing from the sheet yields empty cells.
func ApplyRenames(s Sheet, renames []ColumnRename) Sheet {
	if len(renames) == 0 {
		return s
	}

	index := make(map[string]int, len(s.Header))
	for i, h := range s.Header {
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	out := Sheet{
		Name:    s.Name,
		Header:  make([]string, len(renames)),
		Rows:    make([][]string, len(s.Rows)),
		Numeric: make([]bool, len(renames)),
	}
	for c, r := range renames {
		out.Header[c] = r.To
		if i, ok := index[r.From]; ok && i < len(s.Numeric) {
			out.Numeric[c] = s.Numeric[i]
		}
	}
	for r, row := range s.Rows {
		cells := make([]string, len(renames))
		for c, rn := range renames {
			if i, ok := index[rn.From]; ok && i < len(row) {
				cells[c] = row[i]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

// SheetName makes a valid, at most 31-character worksheet name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

// ExportFilename returns "<base>[_YYYY-MM-DD].xlsx". The date is taken
// from now in UTC.
func ExportFilename(base string, includeTimestamp bool, now time.Time) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), ".xlsx")
	if base == "" {
		base = DefaultExportName
	}
	if includeTimestamp {
		base += "_" + now.UTC().Format("2006-01-02")
	}
	return base + ".xlsx"
}

// BuildWorkbook lays out every non-empty sheet. The caller must Close the
// returned file.
func BuildWorkbook(sheets []Sheet, opts ExportOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	written := 0
	for _, s := range sheets {
		if len(s.Rows) == 0 {
			continue
		}
		s = ApplyRenames(s, opts.Renames[s.Name])

		name := uniqueSheetName(SheetName(s.Name), used)
		used[strings.ToLower(name)] = true

		if written == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s, header); err != nil {
			f.Close()
			return nil, err
		}
		written++
	}

	if written == 0 {
		f.Close()
		return nil, ErrNothingToExport
	}
	f.SetActiveSheet(0)
	return f, nil
}

func uniqueSheetName(name string, used map[string]bool) string {
	if !used[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate := string(base) + suffix
		if !used[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func writeSheet(f *excelize.File, name string, s Sheet, headerStyle int) error {
	hdr := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &hdr); err != nil {
		return fmt.Errorf("sheet %q: failed to write header: %w", name, err)
	}
	if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("sheet %q: failed to style header: %w", name, err)
	}

	for r, row := range s.Rows {
		cells := make([]interface{}, len(row))
		for c, val := range row {
			cells[c] = val
			if c < len(s.Numeric) && s.Numeric[c] {
				if n, err := strconv.ParseFloat(val, 64); err == nil {
					cells[c] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("sheet %q: failed to write row %d: %w", name, r+1, err)
		}
	}
	return nil
}

// WriteXLSX builds the workbook and writes it to w.
func WriteXLSX(w io.Writer, sheets []Sheet, opts ExportOptions) error {
	f, err := BuildWorkbook(sheets, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	log.Printf("📦 FleetLens: exported %d sheets", len(f.GetSheetList()))
	return nil
}
