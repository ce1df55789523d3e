package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spektr-org/fleetlens/config"
	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/helpers"
	"github.com/spektr-org/fleetlens/internal/tracing"
	"github.com/spektr-org/fleetlens/schema"
	"github.com/spektr-org/fleetlens/session"
)

// ============================================================================
// FLEETLENS CLI — Fleet alert dashboards from a CSV/TSV export
// ============================================================================

const version = "0.3.0"

func main() {
	flags := registerFlags(flag.CommandLine)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `FleetLens — Fleet alert dashboards from CSV/TSV exports

Usage:
  fleetlens --file alerts.csv --format pretty
  fleetlens --file alerts.tsv --view routes --format csv --out routes.csv
  fleetlens --file alerts.csv --date-range last7days --zone NCL --view zones --format text
  fleetlens --file alerts.csv --export dashboard.xlsx
  fleetlens --file alerts.csv --discover --format pretty

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Views:
  all        Every view (default)
  summary    Headline KPIs
  routes     Route deviation with heat bands
  stoppages  Top stoppage locations
  bubble     Stoppage points with coordinates
  zones      Per-zone KPIs
  alerts     Alert-type distribution per zone
  timeline   Violations ordered by vehicle and start time
  pivot      Configured pivot tables (--pivot NAME for one)
  table      Searchable, sortable, paginated record table

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable report
  csv       One view as CSV (ready for Sheets/Excel)

Environment:
  OTEL_EXPORTER_OTLP_ENDPOINT    Trace collector used with --trace
`)
	}

	flag.Parse()

	if *flags.showVersion {
		fmt.Printf("fleetlens %s\n", version)
		os.Exit(0)
	}

	if *flags.filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		flag.Usage()
		os.Exit(1)
	}
	if !isView(*flags.view) {
		fatalf("Unknown view %q", *flags.view)
	}

	ctx := context.Background()

	// ── Tracing ───────────────────────────────────────────────────────────
	if *flags.trace {
		endpoint := tracing.EndpointFromEnv()
		if endpoint == "" {
			endpoint = "http://localhost:4318"
		}
		shutdown, err := tracing.InitTracing(ctx, endpoint)
		if err != nil {
			fatalf("Failed to initialize tracing: %v", err)
		}
		defer shutdown()
	}

	// ── Configuration ─────────────────────────────────────────────────────
	var cfg *config.Config
	var err error
	if *flags.configPath != "" {
		cfg, err = config.Load(*flags.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}

	filters, err := flags.filterConfig(cfg.Filters.FilterConfig(), flag.CommandLine)
	if err != nil {
		fatalf("%v", err)
	}

	cat, err := cfg.Catalogue()
	if err != nil {
		fatalf("Invalid header overrides: %v", err)
	}

	// ── Output writer ─────────────────────────────────────────────────────
	var writer io.Writer = os.Stdout
	if *flags.outFile != "" {
		f, err := os.Create(*flags.outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	// ── Read data ─────────────────────────────────────────────────────────
	data, err := os.ReadFile(*flags.filePath)
	if err != nil {
		fatalf("Failed to read file: %v", err)
	}

	delim, err := parseDelimiter(*flags.delimiter)
	if err != nil {
		fatalf("%v", err)
	}

	sess, err := newSession(cfg, delim)
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	ds, err := sess.Load(ctx, filepath.Base(*flags.filePath), data)
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("📊 Parsed %d records (%d diagnostics)", len(ds.Records), len(ds.Diagnostics))
	for i, d := range ds.Diagnostics {
		if i == 5 {
			log.Printf("   … %d more", len(ds.Diagnostics)-i)
			break
		}
		log.Printf("   %s", d)
	}

	// ── Discover mode ─────────────────────────────────────────────────────
	if *flags.discover {
		rows := make([]map[string]string, len(ds.Raw))
		for i, r := range ds.Raw {
			rows[i] = r
		}
		report := schema.Discover(ds.Headers, rows, cat)
		report.Name = ds.Name
		if *flags.format == "text" {
			fmt.Fprint(writer, report.Describe())
			return
		}
		writeJSON(writer, report, *flags.format)
		return
	}

	// ── Dashboard ─────────────────────────────────────────────────────────
	dash, err := sess.Dashboard(ctx, filters)
	if err != nil {
		fatalf("%v", err)
	}

	if *flags.exportPath != "" {
		path := exportPath(*flags.exportPath, cfg.Export, time.Now())
		if err := exportWorkbook(path, dash, cfg.ExportOptions()); err != nil {
			fatalf("Export failed: %v", err)
		}
		log.Printf("📦 Workbook written to %s", path)
	}

	// ── Render output ─────────────────────────────────────────────────────
	q := flags.tableQuery()
	switch *flags.format {
	case "csv":
		sheet, err := viewSheet(dash, *flags.view, q, *flags.pivot)
		if err != nil {
			fatalf("%v", err)
		}
		if err := writeSheetCSV(writer, sheet); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	case "text":
		text, err := viewText(dash, *flags.view, q, *flags.pivot)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Fprint(writer, text)
	default:
		out, err := viewData(dash, *flags.view, q, *flags.pivot)
		if err != nil {
			fatalf("%v", err)
		}
		writeJSON(writer, out, *flags.format)
	}
	if *flags.outFile != "" {
		log.Printf("📄 Output written to %s", *flags.outFile)
	}
}

// ============================================================================
// FLAGS
// ============================================================================

type cliFlags struct {
	filePath    *string
	configPath  *string
	view        *string
	format      *string
	outFile     *string
	exportPath  *string
	delimiter   *string
	discover    *bool
	trace       *bool
	showVersion *bool

	minDuration    *float64
	minDeviation   *float64
	alertThreshold *int
	zone           *string
	dateRange      *string
	startDate      *string
	endDate        *string
	tripStatus     *string

	pivot    *string
	search   *string
	sortBy   *string
	desc     *bool
	page     *int
	pageSize *int
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	return &cliFlags{
		filePath:    fs.String("file", "", "Path to CSV/TSV alert export (required)"),
		configPath:  fs.String("config", "", "Path to fleetlens.yml (default: fleetlens.yml or config/fleetlens.yml if present)"),
		view:        fs.String("view", viewAll, "View to output: all, summary, routes, stoppages, bubble, zones, alerts, timeline, pivot, table"),
		format:      fs.String("format", "json", "Output format: json, pretty, text, csv"),
		outFile:     fs.String("out", "", "Write output to file instead of stdout"),
		exportPath:  fs.String("export", "", "Write every view to an .xlsx workbook (a directory uses the configured filename)"),
		delimiter:   fs.String("delimiter", "", "Field delimiter: tab, comma, or one character (default: tab if the file contains one, else comma)"),
		discover:    fs.Bool("discover", false, "Print header discovery report and exit"),
		trace:       fs.Bool("trace", false, "Export OpenTelemetry traces over OTLP/HTTP"),
		showVersion: fs.Bool("version", false, "Print version and exit"),

		minDuration:    fs.Float64("min-duration", 0, "Minimum alert duration in minutes"),
		minDeviation:   fs.Float64("min-deviation", 0, "Minimum route deviation in km (stoppage violations exempt)"),
		alertThreshold: fs.Int("alert-threshold", 0, "Keep vehicles with more than N alerts (0 disables)"),
		zone:           fs.String("zone", "", "Keep one zone only"),
		dateRange:      fs.String("date-range", "", "daily, weekly, monthly, yearly, last7days, last30days, lastQuarter, custom"),
		startDate:      fs.String("start-date", "", "Custom range start (YYYY-MM-DD)"),
		endDate:        fs.String("end-date", "", "Custom range end (YYYY-MM-DD)"),
		tripStatus:     fs.String("trip-status", "", "Require this trip status (case-insensitive)"),

		pivot:    fs.String("pivot", "", "Pivot name for --view pivot"),
		search:   fs.String("search", "", "Record table search text"),
		sortBy:   fs.String("sort", "", "Record table sort column key"),
		desc:     fs.Bool("desc", false, "Sort the record table descending"),
		page:     fs.Int("page", 0, "Record table page (zero-based)"),
		pageSize: fs.Int("page-size", engine.DefaultPageSize, "Record table page size"),
	}
}

// filterConfig overlays explicitly set filter flags on base.
func (c *cliFlags) filterConfig(base engine.FilterConfig, fs *flag.FlagSet) (engine.FilterConfig, error) {
	fc := base
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-duration":
			fc.MinDuration = *c.minDuration
		case "min-deviation":
			fc.MinDeviation = *c.minDeviation
		case "alert-threshold":
			fc.AlertThreshold = *c.alertThreshold
		case "zone":
			fc.SelectedZone = *c.zone
		case "date-range":
			fc.DateRangeType = *c.dateRange
		case "start-date":
			fc.StartDate = *c.startDate
		case "end-date":
			fc.EndDate = *c.endDate
		case "trip-status":
			fc.RequiredTripStatus = *c.tripStatus
		}
	})

	if fc.MinDuration < 0 || fc.MinDeviation < 0 || fc.AlertThreshold < 0 {
		err = fmt.Errorf("thresholds must not be negative")
	}
	if fc.DateRangeType != "" && !engine.IsDateRangeType(fc.DateRangeType) {
		err = fmt.Errorf("unknown date range %q (want one of %s)",
			fc.DateRangeType, strings.Join(engine.DateRangeTypes, ", "))
	}
	for _, d := range []string{fc.StartDate, fc.EndDate} {
		if d == "" {
			continue
		}
		if _, perr := time.Parse("2006-01-02", d); perr != nil {
			err = fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}
	return fc, err
}

func (c *cliFlags) tableQuery() engine.TableQuery {
	return engine.TableQuery{
		Search:   *c.search,
		SortBy:   *c.sortBy,
		Desc:     *c.desc,
		Page:     *c.page,
		PageSize: *c.pageSize,
	}
}

// parseDelimiter maps the --delimiter value to a rune. Empty means detect.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}

// newSession builds the dataset session from cfg. Header overrides reach
// the normalizer; pivots, zones and the top limit reach the engine.
func newSession(cfg *config.Config, delim rune) (*session.Session, error) {
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	normalizer, err := cfg.Normalizer()
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		CacheSize:  cfg.Dashboard.CacheSize,
		Parse:      helpers.ParseOptions{Delimiter: delim},
		Normalizer: normalizer,
		Engine:     engineOpts,
	}), nil
}

// ============================================================================
// EXPORT
// ============================================================================

// exportPath uses target as is when it names an .xlsx file, otherwise
// treats it as a directory for the configured filename.
func exportPath(target string, settings config.ExportSettings, now time.Time) string {
	if strings.HasSuffix(strings.ToLower(target), ".xlsx") {
		return target
	}
	name := helpers.ExportFilename(settings.Filename, settings.IncludeTimestampOrDefault(), now)
	return filepath.Join(target, name)
}

func exportWorkbook(path string, d *engine.Dashboard, opts helpers.ExportOptions) error {
	sheets, err := dashboardSheets(d)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := helpers.WriteXLSX(f, sheets, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

// ============================================================================
// HELPERS
// ============================================================================

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
