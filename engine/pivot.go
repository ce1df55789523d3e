package engine

import (
	"fmt"
	"strings"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// PIVOT — Caller-defined group-and-aggregate tables
// ============================================================================
// Groups are keyed by the tuple of grouping values, held as a trie of maps
// (one level per grouping field). Values are never joined into one string,
// so ("a_b", "c") and ("a", "b_c") stay separate groups.
// ============================================================================

// Pivot aggregation types.
const (
	PivotSum      = "sum"
	PivotCount    = "count"
	PivotDistinct = "distinct"
)

// PivotAggregation is one computed column.
type PivotAggregation struct {
	Field string `json:"field" yaml:"field"`
	Type  string `json:"type" yaml:"type"` // "sum", "count", "distinct"
	Alias string `json:"alias" yaml:"alias"`
}

// Name returns the alias, or "<type>_<field>" when none is set.
func (a PivotAggregation) Name() string {
	if a.Alias != "" {
		return a.Alias
	}
	if a.Field == "" {
		return a.Type
	}
	return a.Type + "_" + a.Field
}

// PivotSpec defines a named pivot table.
type PivotSpec struct {
	Name         string             `json:"name" yaml:"name"`
	GroupBy      []string           `json:"groupBy" yaml:"groupBy"`
	Aggregations []PivotAggregation `json:"aggregations" yaml:"aggregations"`
}

// PivotRow is one group: its grouping values plus one value per aggregation.
type PivotRow struct {
	Group  []string           `json:"group"`
	Values map[string]float64 `json:"values"`
}

// PivotTable is the result of one PivotSpec.
type PivotTable struct {
	Name    string     `json:"name"`
	GroupBy []string   `json:"groupBy"`
	Columns []string   `json:"columns"`
	Rows    []PivotRow `json:"rows"`
}

// Header returns grouping fields followed by aggregation names.
func (t PivotTable) Header() []string {
	out := make([]string, 0, len(t.GroupBy)+len(t.Columns))
	out = append(out, t.GroupBy...)
	return append(out, t.Columns...)
}

// Labels is Header with grouping fields turned into display labels.
// Aggregation names are kept as written since they are usually aliases.
func (t PivotTable) Labels() []string {
	out := make([]string, 0, len(t.GroupBy)+len(t.Columns))
	for _, g := range t.GroupBy {
		out = append(out, LabelForDimension(g))
	}
	return append(out, t.Columns...)
}

// Cells renders each row as strings in Header order.
func (t PivotTable) Cells() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, 0, len(r.Group)+len(t.Columns))
		row = append(row, r.Group...)
		for _, c := range t.Columns {
			row = append(row, formatPivotValue(r.Values[c]))
		}
		out = append(out, row)
	}
	return out
}

// Records renders each row as a field-keyed map.
func (t PivotTable) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]interface{}, len(r.Group)+len(r.Values))
		for i, f := range t.GroupBy {
			m[f] = r.Group[i]
		}
		for k, v := range r.Values {
			m[k] = v
		}
		out = append(out, m)
	}
	return out
}

type pivotNode struct {
	children map[string]*pivotNode
	row      int // index into rows, -1 for inner nodes
}

type pivotAcc struct {
	values   []float64
	distinct []map[string]bool
}

// Pivot groups the working set by spec.GroupBy and computes each aggregation.
// Rows are in first-seen order of their grouping tuple. Missing or
// non-numeric values sum as 0; an unknown type yields 0.
// Values are keyed by PivotAggregation.Name, so names must be unique
// within a spec; a repeated name keeps the value of the last aggregation.
func Pivot(records []telemetry.Record, spec PivotSpec) PivotTable {
	view := RecordsView(records)

	table := PivotTable{
		Name:    spec.Name,
		GroupBy: append([]string(nil), spec.GroupBy...),
		Columns: make([]string, len(spec.Aggregations)),
		Rows:    []PivotRow{},
	}
	for i, a := range spec.Aggregations {
		table.Columns[i] = a.Name()
	}

	root := &pivotNode{children: map[string]*pivotNode{}, row: -1}
	var accs []pivotAcc

	for i := 0; i < view.Len(); i++ {
		node := root
		group := make([]string, len(spec.GroupBy))
		for d, field := range spec.GroupBy {
			val := getDimensionValue(view, i, field)
			group[d] = val
			child, ok := node.children[val]
			if !ok {
				child = &pivotNode{children: map[string]*pivotNode{}, row: -1}
				node.children[val] = child
			}
			node = child
		}

		if node.row < 0 {
			node.row = len(table.Rows)
			table.Rows = append(table.Rows, PivotRow{Group: group})
			accs = append(accs, pivotAcc{
				values:   make([]float64, len(spec.Aggregations)),
				distinct: make([]map[string]bool, len(spec.Aggregations)),
			})
		}

		acc := &accs[node.row]
		for a, agg := range spec.Aggregations {
			switch strings.ToLower(agg.Type) {
			case PivotSum:
				acc.values[a] += view.Measure(i, agg.Field)
			case PivotCount:
				acc.values[a]++
			case PivotDistinct:
				if acc.distinct[a] == nil {
					acc.distinct[a] = make(map[string]bool)
				}
				if v := getDimensionValue(view, i, agg.Field); v != "" {
					acc.distinct[a][v] = true
				}
				acc.values[a] = float64(len(acc.distinct[a]))
			}
		}
	}

	for r := range table.Rows {
		values := make(map[string]float64, len(table.Columns))
		for a, name := range table.Columns {
			values[name] = accs[r].values[a]
		}
		table.Rows[r].Values = values
	}
	return table
}

// IsPivotType reports whether t names a supported aggregation type.
func IsPivotType(t string) bool {
	switch strings.ToLower(t) {
	case PivotSum, PivotCount, PivotDistinct:
		return true
	}
	return false
}

func formatPivotValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
