package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/helpers"
)

// ============================================================================
// VIEWS — Per-view JSON payloads, sheets and text
// ============================================================================

const (
	viewAll       = "all"
	viewSummary   = "summary"
	viewRoutes    = "routes"
	viewStoppages = "stoppages"
	viewBubble    = "bubble"
	viewZones     = "zones"
	viewAlerts    = "alerts"
	viewTimeline  = "timeline"
	viewPivot     = "pivot"
	viewTable     = "table"
)

var views = []string{
	viewAll, viewSummary, viewRoutes, viewStoppages, viewBubble,
	viewZones, viewAlerts, viewTimeline, viewPivot, viewTable,
}

func isView(v string) bool {
	for _, known := range views {
		if v == known {
			return true
		}
	}
	return false
}

// dashboardOutput is the JSON shape of --view all.
type dashboardOutput struct {
	*engine.Dashboard
	Charts map[string]*engine.ChartConfig `json:"charts"`
	Heat   []engine.HeatBand              `json:"deviationHeat"`
	Table  *engine.TableData              `json:"table"`
	Text   string                         `json:"text"`
}

type rowsWithChart struct {
	Rows  interface{}         `json:"rows"`
	Chart *engine.ChartConfig `json:"chart,omitempty"`
}

// viewData returns the JSON payload for one view.
func viewData(d *engine.Dashboard, view string, q engine.TableQuery, pivot string) (interface{}, error) {
	switch view {
	case viewAll:
		return dashboardOutput{
			Dashboard: d,
			Charts: map[string]*engine.ChartConfig{
				"alertDistribution": engine.BuildAlertDistributionChart(d.AlertDistribution),
				"topStoppages":      engine.BuildTopStoppagesChart(d.TopStoppages),
				"bubble":            engine.BuildBubbleChart(d.Bubble),
			},
			Heat:  engine.BuildDeviationHeat(d.RouteDeviation),
			Table: engine.BuildRecordTable(d.WorkingSet, q),
			Text:  engine.DescribeSummary(d.Summary),
		}, nil
	case viewSummary:
		return struct {
			engine.SummaryKPIs
			Text string `json:"text"`
		}{d.Summary, engine.DescribeSummary(d.Summary)}, nil
	case viewRoutes:
		return struct {
			Rows []engine.RouteDeviationRow `json:"rows"`
			Heat []engine.HeatBand          `json:"heat"`
		}{d.RouteDeviation, engine.BuildDeviationHeat(d.RouteDeviation)}, nil
	case viewStoppages:
		return rowsWithChart{d.TopStoppages, engine.BuildTopStoppagesChart(d.TopStoppages)}, nil
	case viewBubble:
		return rowsWithChart{engine.NewRecordRows(d.Bubble), engine.BuildBubbleChart(d.Bubble)}, nil
	case viewZones:
		return d.ZoneKPIs, nil
	case viewAlerts:
		return rowsWithChart{d.AlertDistribution, engine.BuildAlertDistributionChart(d.AlertDistribution)}, nil
	case viewTimeline:
		return engine.NewRecordRows(d.Timeline), nil
	case viewPivot:
		return selectPivots(d, pivot)
	case viewTable:
		return engine.BuildRecordTable(d.WorkingSet, q), nil
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

func selectPivots(d *engine.Dashboard, name string) ([]engine.PivotTable, error) {
	if name == "" {
		if len(d.Pivots) == 0 {
			return nil, fmt.Errorf("no pivots configured")
		}
		return d.Pivots, nil
	}
	for _, p := range d.Pivots {
		if p.Name == name {
			return []engine.PivotTable{p}, nil
		}
	}
	return nil, fmt.Errorf("pivot %q is not configured", name)
}

// viewSheet flattens one view for CSV output.
func viewSheet(d *engine.Dashboard, view string, q engine.TableQuery, pivot string) (helpers.Sheet, error) {
	switch view {
	case viewAll:
		return helpers.Sheet{}, fmt.Errorf("csv output needs a single --view")
	case viewPivot:
		tables, err := selectPivots(d, pivot)
		if err != nil {
			return helpers.Sheet{}, err
		}
		if len(tables) > 1 {
			return helpers.Sheet{}, fmt.Errorf("csv output needs --pivot NAME")
		}
		return pivotSheet(tables[0]), nil
	case viewTable:
		return tableSheet(engine.BuildRecordTable(d.WorkingSet, q)), nil
	}

	name, rows, ok := viewRows(d, view)
	if !ok {
		return helpers.Sheet{}, fmt.Errorf("unknown view %q", view)
	}
	return helpers.SheetFromRows(name, rows)
}

// viewRows returns the sheet name and typed rows of a tabular view.
func viewRows(d *engine.Dashboard, view string) (string, interface{}, bool) {
	switch view {
	case viewSummary:
		return "Summary", []engine.SummaryKPIs{d.Summary}, true
	case viewRoutes:
		return "Route Deviation", d.RouteDeviation, true
	case viewStoppages:
		return "Top Stoppages", d.TopStoppages, true
	case viewBubble:
		return "Stoppage Points", engine.NewRecordRows(d.Bubble), true
	case viewZones:
		return "Zone KPIs", d.ZoneKPIs, true
	case viewAlerts:
		return "Alert Distribution", d.AlertDistribution, true
	case viewTimeline:
		return "Timeline", engine.NewRecordRows(d.Timeline), true
	}
	return "", nil, false
}

// dashboardSheets flattens every view, in workbook order, for export.
func dashboardSheets(d *engine.Dashboard) ([]helpers.Sheet, error) {
	var sheets []helpers.Sheet
	for _, view := range []string{viewSummary, viewRoutes, viewStoppages, viewZones, viewAlerts, viewTimeline} {
		name, rows, _ := viewRows(d, view)
		s, err := helpers.SheetFromRows(name, rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}

	records, err := helpers.SheetFromRows("Records", engine.NewRecordRows(d.WorkingSet))
	if err != nil {
		return nil, err
	}
	sheets = append(sheets, records)

	for _, p := range d.Pivots {
		sheets = append(sheets, pivotSheet(p))
	}
	return sheets, nil
}

func pivotSheet(t engine.PivotTable) helpers.Sheet {
	numeric := make([]bool, len(t.GroupBy)+len(t.Columns))
	for i := len(t.GroupBy); i < len(numeric); i++ {
		numeric[i] = true
	}
	return helpers.Sheet{Name: t.Name, Header: t.Labels(), Rows: t.Cells(), Numeric: numeric}
}

func tableSheet(t *engine.TableData) helpers.Sheet {
	s := helpers.Sheet{Name: t.Title, Rows: t.Rows}
	for _, c := range t.Columns {
		s.Header = append(s.Header, c.Label)
		s.Numeric = append(s.Numeric, c.Type == "number")
	}
	return s
}

// ============================================================================
// CSV & TEXT OUTPUT
// ============================================================================

func writeSheetCSV(w io.Writer, s helpers.Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// viewText renders a view for terminals. The all and summary views use
// the dashboard report; others print their sheet as aligned columns.
func viewText(d *engine.Dashboard, view string, q engine.TableQuery, pivot string) (string, error) {
	switch view {
	case viewAll:
		return engine.DescribeDashboard(d), nil
	case viewSummary:
		return engine.DescribeSummary(d.Summary) + "\n", nil
	}

	sheet, err := viewSheet(d, view, q, pivot)
	if err != nil {
		return "", err
	}
	if len(sheet.Rows) == 0 {
		return "No data available for the selected filters.\n", nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(sheet.Header, "\t"))
	for _, row := range sheet.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	if view == viewTable {
		t := engine.BuildRecordTable(d.WorkingSet, q)
		fmt.Fprintf(&b, "page %d of %d (%d matching records)\n", t.Page+1, t.PageCount, t.TotalRows)
	}
	return b.String(), nil
}
