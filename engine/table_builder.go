package engine

import (
	"sort"
	"strings"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// TABLE BUILDER — Searchable, sortable, paginated record table
// ============================================================================
// Pipeline: search → sort → paginate. Search and sort produce SubViews
// (index lists into the bound records), so no record is copied until the
// visible page is rendered.
// ============================================================================

// DefaultPageSize is the record table page size when none is given.
const DefaultPageSize = 10

// TableQuery controls the record table.
type TableQuery struct {
	Search   string `json:"search,omitempty"`
	SortBy   string `json:"sortBy,omitempty"` // any column key; empty keeps input order
	Desc     bool   `json:"desc,omitempty"`
	Page     int    `json:"page"` // zero-based
	PageSize int    `json:"pageSize"`
}

// searchKeys are the fields matched by the global search box.
var searchKeys = []string{KeyZone, KeyRoute, KeyLocation, KeyVehicle, KeyTripName}

// recordColumns lists the table columns in display order.
var recordColumns = []Column{
	{Key: KeyVehicle, Label: "Vehicle Number", Type: "text", Align: "left"},
	{Key: KeyZone, Label: "Zone", Type: "text", Align: "left"},
	{Key: KeyRoute, Label: "Route", Type: "text", Align: "left"},
	{Key: KeyTripName, Label: "Trip Name", Type: "text", Align: "left"},
	{Key: KeyAlertType, Label: "Alert Type", Type: "text", Align: "left"},
	{Key: KeyLocation, Label: "Location", Type: "text", Align: "left"},
	{Key: KeyStartTime, Label: "Start Time", Type: "time", Align: "left"},
	{Key: KeyDuration, Label: "Duration (min)", Type: "number", Align: "right"},
	{Key: KeyDeviation, Label: "Deviation (km)", Type: "number", Align: "right"},
}

// BuildRecordTable renders one page of the working set.
// Pages past the end yield no rows; TotalRows and PageCount still describe
// the full match set.
func BuildRecordTable(records []telemetry.Record, q TableQuery) *TableData {
	view := RecordsView(records)
	matched := SearchView(view, q.Search)
	sorted := SortView(matched, q.SortBy, q.Desc)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}
	total := sorted.Len()
	pageCount := total / size
	if total%size != 0 {
		pageCount++
	}

	table := &TableData{
		Title:     "Alert Records",
		Columns:   recordColumns,
		Rows:      [][]string{},
		TotalRows: total,
		Page:      page,
		PageSize:  size,
		PageCount: pageCount,
	}

	// page*size can overflow for out-of-range pages; bound page first.
	start, end := 0, 0
	if page < pageCount {
		start = page * size
		end = total
		if total-start > size {
			end = start + size
		}
	}

	var duration float64
	for i := start; i < end; i++ {
		row := make([]string, 0, len(recordColumns))
		for _, c := range recordColumns {
			if c.Type == "number" {
				row = append(row, FormatFloat(sorted.Measure(i, c.Key)))
				continue
			}
			row = append(row, sorted.Dimension(i, c.Key))
		}
		table.Rows = append(table.Rows, row)
		duration += sorted.Measure(i, KeyDuration)
	}

	table.Summary = &Summary{
		Label: "Page total",
		Values: map[string]string{
			KeyDuration: FormatFloat(duration),
			"matched":   FormatInt(total),
		},
	}
	return table
}

// SearchView keeps rows where any search field contains text, ignoring case.
// Empty text returns the view unchanged.
func SearchView(view RecordView, text string) RecordView {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return view
	}

	indices := make([]int, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		for _, key := range searchKeys {
			if strings.Contains(strings.ToLower(view.Dimension(i, key)), text) {
				indices = append(indices, i)
				break
			}
		}
	}
	return newSubView(view, indices)
}

// SortView orders a view by one column. Measure keys sort numerically,
// everything else as case-insensitive text. The sort is stable.
func SortView(view RecordView, key string, desc bool) RecordView {
	if key == "" {
		return view
	}

	indices := make([]int, view.Len())
	for i := range indices {
		indices[i] = i
	}

	numeric := false
	for _, k := range view.MeasureKeys() {
		if k == key {
			numeric = true
			break
		}
	}

	less := func(a, b int) bool {
		if numeric {
			return view.Measure(a, key) < view.Measure(b, key)
		}
		return strings.ToLower(view.Dimension(a, key)) < strings.ToLower(view.Dimension(b, key))
	}
	sort.SliceStable(indices, func(i, j int) bool {
		if desc {
			return less(indices[j], indices[i])
		}
		return less(indices[i], indices[j])
	})
	return newSubView(view, indices)
}
