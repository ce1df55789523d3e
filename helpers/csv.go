package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// CSV HELPER — Parses delimited text into raw alert rows
// ============================================================================
// Consumer reads the file from wherever it lives (disk, upload, S3).
// This helper turns the bytes into header-keyed rows. It never fails on a
// bad row: problems are reported as Diagnostics and parsing continues.
// ============================================================================

// Diagnostic codes.
const (
	DiagMalformed     = "Malformed"     // the CSV reader rejected the row
	DiagTooFewFields  = "TooFewFields"  // row kept, trailing columns absent
	DiagTooManyFields = "TooManyFields" // row kept, extra cells dropped
	DiagDuplicateName = "DuplicateHeader"
)

// Diagnostic describes one non-fatal parse problem.
type Diagnostic struct {
	Line    int    `json:"line"` // 1-based line in the input, 0 if unknown
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", d.Line, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// ParseOptions controls ParseDelimited. The zero value auto-detects.
type ParseOptions struct {
	// Delimiter overrides detection when non-zero.
	Delimiter rune
}

// ParseResult holds the rows parsed from one file.
type ParseResult struct {
	Headers     []string              `json:"headers"`
	Records     []telemetry.RawRecord `json:"records"`
	Diagnostics []Diagnostic          `json:"diagnostics,omitempty"`
	Delimiter   rune                  `json:"delimiter"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectDelimiter returns tab if any line contains a tab, else comma.
func DetectDelimiter(data []byte) rune {
	if bytes.IndexByte(data, '\t') >= 0 {
		return '\t'
	}
	return ','
}

// ParseDelimited parses CSV or TSV bytes. The first non-empty line is the
// header; each later non-empty line becomes one RawRecord keyed by header
// position. Quoted fields may contain the delimiter or newlines, with ""
// as an escaped quote.
//
// Only an empty input or an unreadable header line returns an error.
func ParseDelimited(data []byte, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	delim := opt.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header line: %w", err)
	}

	result := &ParseResult{
		Headers:   headers,
		Records:   []telemetry.RawRecord{},
		Delimiter: delim,
	}

	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h] {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:    1,
				Code:    DiagDuplicateName,
				Message: fmt.Sprintf("header %q repeated, first column wins", h),
			})
		}
		seen[h] = true
	}

	// Read rows
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			diag := Diagnostic{Code: DiagMalformed, Message: err.Error()}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				diag.Line = pe.StartLine
			}
			result.Diagnostics = append(result.Diagnostics, diag)
			if row == nil {
				continue
			}
		}
		var line int
		if len(row) > 0 && err == nil {
			line, _ = reader.FieldPos(0)
		}

		switch {
		case len(row) < len(headers):
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:    line,
				Code:    DiagTooFewFields,
				Message: fmt.Sprintf("expected %d fields, got %d", len(headers), len(row)),
			})
		case len(row) > len(headers):
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:    line,
				Code:    DiagTooManyFields,
				Message: fmt.Sprintf("expected %d fields, got %d", len(headers), len(row)),
			})
		}

		rec := make(telemetry.RawRecord, len(headers))
		for i, val := range row {
			if i >= len(headers) {
				break
			}
			if _, dup := rec[headers[i]]; dup {
				continue
			}
			rec[headers[i]] = val
		}
		result.Records = append(result.Records, rec)
	}

	if n := len(result.Diagnostics); n > 0 {
		log.Printf("⚠️  FleetLens: parsed %d rows with %d diagnostics", len(result.Records), n)
	}
	return result, nil
}
