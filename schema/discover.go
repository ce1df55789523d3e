package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// DISCOVERY — Header report for a loaded export
// ============================================================================
// Answers two questions before anyone builds a dashboard:
//   1. Which canonical fields did the headers satisfy, and through which header?
//   2. What else is in the file that a pivot could group by or sum?
//
// Classification pipeline per unclaimed column:
//   1. Collect non-null values
//   2. Numeric share ≥ 80% → measure
//   3. Unique per row (and > 10 rows) → skipped
//   4. Otherwise → dimension, with cardinality hint
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	Name       string // Dataset name shown in the report
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Discover builds a Report from an ordered header list and parsed rows.
func Discover(headers []string, rows []map[string]string, cat Catalogue, opts ...DiscoverOptions) *Report {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if cat == nil {
		cat = DefaultCatalogue()
	}

	sample := rows
	if opt.SampleSize > 0 && len(sample) > opt.SampleSize {
		sample = sample[:opt.SampleSize]
	}

	report := &Report{
		Name:         opt.Name,
		Rows:         len(rows),
		DiscoveredAt: time.Now().Format(time.RFC3339),
	}
	if report.Name == "" {
		report.Name = "Alert export"
	}

	// 1. Canonical fields
	index := IndexHeaderList(headers)
	claimed := make(map[string]bool)
	for _, f := range AllFields {
		key, ok := index.Match(cat.Candidates(f)...)
		if !ok {
			report.Missing = append(report.Missing, f)
			continue
		}
		claimed[key] = true
		report.Resolved = append(report.Resolved, ResolvedField{Field: f, Header: NormalizeHeader(key)})
	}

	// 2. Everything else
	for _, h := range headers {
		if claimed[h] || NormalizeHeader(h) == "" {
			continue
		}
		col := analyzeColumn(h, sample)
		switch col.role {
		case roleMeasure:
			report.Measures = append(report.Measures, col.meta())
		case roleDimension:
			report.Dimensions = append(report.Dimensions, col.meta())
		default:
			report.Skipped = append(report.Skipped, SkippedColumn{Column: NormalizeHeader(h), Reason: col.skipReason})
		}
	}

	return report
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnAnalysis struct {
	header     string
	role       columnRole
	skipReason string

	uniqueCount     int
	sampleVals      []string
	cardinalityHint string
}

// analyzeColumn classifies one unclaimed column from its non-null values.
func analyzeColumn(header string, rows []map[string]string) columnAnalysis {
	col := columnAnalysis{header: header}

	distinct := make(map[string]bool)
	present, numeric := 0, 0
	for _, row := range rows {
		val := strings.TrimSpace(row[header])
		if isPlaceholder(val) {
			continue
		}
		present++
		distinct[val] = true
		if looksNumeric(val) {
			numeric++
		}
	}
	col.uniqueCount = len(distinct)

	if present == 0 {
		col.role = roleSkipped
		col.skipReason = "no values"
		return col
	}
	col.sampleVals = sortedSample(distinct, 10)
	col.cardinalityHint = cardinality(col.uniqueCount)

	switch {
	case numeric*5 >= present*4:
		col.role = roleMeasure
	case col.uniqueCount == len(rows) && len(rows) > 10:
		col.role = roleSkipped
		col.skipReason = "distinct on every row, likely an identifier"
	default:
		col.role = roleDimension
	}
	return col
}

func cardinality(unique int) string {
	switch {
	case unique <= 10:
		return "low"
	case unique <= 100:
		return "medium"
	}
	return "high"
}

func (col columnAnalysis) meta() ColumnMeta {
	header := NormalizeHeader(col.header)
	return ColumnMeta{
		Header:          header,
		DisplayName:     toDisplayName(header),
		SampleValues:    col.sampleVals,
		UniqueCount:     col.uniqueCount,
		CardinalityHint: col.cardinalityHint,
	}
}

// isPlaceholder matches the blanks fleet exports use for "no value".
func isPlaceholder(s string) bool {
	switch strings.ToLower(s) {
	case "", "-", "--", "na", "n/a", "null", "none", "undefined":
		return true
	}
	return false
}

// looksNumeric accepts plain numbers and thousands separators ("1,234.5").
func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

// toDisplayName turns snake, kebab or camel case headers into words.
// Headers that already contain spaces are kept as they are.
// "trip_status" → "Trip Status", "routeNo" → "Route No"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return s
	}

	var b strings.Builder
	var prev rune
	for _, r := range s {
		switch {
		case r == '_' || r == '-':
			r = ' '
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// sortedSample returns up to n distinct values in sorted order.
func sortedSample(distinct map[string]bool, n int) []string {
	out := make([]string, 0, len(distinct))
	for v := range distinct {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// String renders a one-line description for logging.
func (r Report) String() string {
	return fmt.Sprintf("%s: %d rows, %d/%d fields resolved, %d dims, %d measures, %d skipped",
		r.Name, r.Rows, len(r.Resolved), len(AllFields), len(r.Dimensions), len(r.Measures), len(r.Skipped))
}

// Describe renders the full report as text.
func (r Report) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %s\n", r.String())

	if len(r.Resolved) > 0 {
		b.WriteString("\nResolved fields:\n")
		for _, f := range r.Resolved {
			fmt.Fprintf(&b, "  %-18s ← %s\n", f.Field, f.Header)
		}
	}
	if len(r.Missing) > 0 {
		names := make([]string, len(r.Missing))
		for i, f := range r.Missing {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "\nMissing (defaults apply): %s\n", strings.Join(names, ", "))
	}
	if len(r.Dimensions) > 0 {
		b.WriteString("\nPivot dimensions:\n")
		for _, c := range r.Dimensions {
			fmt.Fprintf(&b, "  %-24s %d values (%s)\n", c.Header, c.UniqueCount, c.CardinalityHint)
		}
	}
	if len(r.Measures) > 0 {
		b.WriteString("\nPivot measures:\n")
		for _, c := range r.Measures {
			fmt.Fprintf(&b, "  %s\n", c.Header)
		}
	}
	for _, c := range r.Skipped {
		fmt.Fprintf(&b, "  skipped %s: %s\n", c.Column, c.Reason)
	}
	return b.String()
}
