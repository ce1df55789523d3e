// Package session keeps one loaded dataset in memory and memoizes the
// dashboards computed from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/helpers"
	"github.com/spektr-org/fleetlens/internal/tracing"
	"github.com/spektr-org/fleetlens/telemetry"
)

// DefaultCacheSize is the number of dashboards kept when Options leaves it unset.
const DefaultCacheSize = 32

// ErrNoDataset is returned by Dashboard before any dataset is loaded.
var ErrNoDataset = errors.New("no dataset loaded")

// Options configures a Session.
type Options struct {
	CacheSize  int                   // dashboards kept in the LRU; 0 uses DefaultCacheSize
	Parse      helpers.ParseOptions  // delimiter override
	Normalizer *telemetry.Normalizer // nil uses the default catalogue
	Engine     []engine.Option       // passed to every aggregation
	Now        func() time.Time      // clock for relative date ranges; nil uses time.Now
}

// Dataset is one loaded file. It is never modified after Load returns.
type Dataset struct {
	ID          uuid.UUID
	Name        string
	LoadedAt    time.Time
	Headers     []string
	Raw         []telemetry.RawRecord
	Records     []telemetry.Record
	Diagnostics []helpers.Diagnostic
}

// Session holds the current dataset and an LRU of dashboards keyed by
// dataset ID and filter configuration.
type Session struct {
	mu         sync.RWMutex
	dataset    *Dataset
	cache      gcache.Cache
	normalizer *telemetry.Normalizer
	engineOpts []engine.Option
	parseOpts  helpers.ParseOptions
	now        func() time.Time
	tracer     trace.Tracer
}

// New creates an empty session.
func New(opts Options) *Session {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	s := &Session{
		cache:      gcache.New(size).LRU().Build(),
		normalizer: opts.Normalizer,
		engineOpts: append([]engine.Option(nil), opts.Engine...),
		parseOpts:  opts.Parse,
		now:        opts.Now,
		tracer:     tracing.Tracer("fleetlens/session"),
	}
	if s.normalizer == nil {
		s.normalizer = telemetry.NewNormalizer(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Load parses delimited bytes, normalizes every row and makes the result
// the current dataset. Dashboards computed for an earlier dataset are
// dropped.
func (s *Session) Load(ctx context.Context, name string, data []byte) (*Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "session.load", trace.WithAttributes(
		attribute.String("dataset.name", name),
		attribute.Int("dataset.bytes", len(data)),
	))
	defer span.End()

	_, parseSpan := s.tracer.Start(ctx, "session.parse")
	parsed, err := helpers.ParseDelimited(data, s.parseOpts)
	if err != nil {
		tracing.RecordError(parseSpan, err, "parse")
		parseSpan.End()
		tracing.RecordError(span, err, "parse")
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	parseSpan.SetAttributes(
		attribute.Int("rows", len(parsed.Records)),
		attribute.Int("diagnostics", len(parsed.Diagnostics)),
	)
	parseSpan.End()

	ds := s.install(ctx, name, parsed.Headers, parsed.Records)
	ds.Diagnostics = parsed.Diagnostics
	span.SetAttributes(attribute.String("dataset.id", ds.ID.String()))
	return ds, nil
}

// LoadRaw makes already parsed rows the current dataset.
func (s *Session) LoadRaw(ctx context.Context, name string, headers []string, raws []telemetry.RawRecord) *Dataset {
	ctx, span := s.tracer.Start(ctx, "session.load", trace.WithAttributes(
		attribute.String("dataset.name", name),
	))
	defer span.End()
	return s.install(ctx, name, headers, raws)
}

func (s *Session) install(ctx context.Context, name string, headers []string, raws []telemetry.RawRecord) *Dataset {
	_, span := s.tracer.Start(ctx, "session.normalize")
	records := s.normalizer.NormalizeAll(raws)
	span.SetAttributes(attribute.Int("records", len(records)))
	span.End()

	ds := &Dataset{
		ID:       uuid.New(),
		Name:     name,
		LoadedAt: s.now(),
		Headers:  headers,
		Raw:      raws,
		Records:  records,
	}

	s.mu.Lock()
	s.dataset = ds
	s.cache.Purge()
	s.mu.Unlock()

	log.Printf("📂 FleetLens: loaded %s (%d records, id=%s)", name, len(records), ds.ID)
	return ds
}

// Dataset returns the current dataset, or nil before the first Load.
func (s *Session) Dataset() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Dashboard returns the dashboard for filters over the current dataset.
// Results are memoized per dataset and filter configuration, except for
// relative date ranges without a reference date, which depend on the clock.
func (s *Session) Dashboard(ctx context.Context, filters engine.FilterConfig) (*engine.Dashboard, error) {
	s.mu.RLock()
	ds := s.dataset
	s.mu.RUnlock()
	if ds == nil {
		return nil, ErrNoDataset
	}

	ctx, span := s.tracer.Start(ctx, "session.dashboard", trace.WithAttributes(
		attribute.String("dataset.id", ds.ID.String()),
	))
	defer span.End()

	memoize := !filters.DependsOnClock()
	key := cacheKey(ds.ID, filters)
	if memoize {
		if v, err := s.cache.Get(key); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v.(*engine.Dashboard), nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if filters.DependsOnClock() {
		ref := s.now()
		filters.ReferenceDate = &ref
	}

	_, filterSpan := s.tracer.Start(ctx, "session.filter")
	working := engine.ApplyFilters(ds.Records, filters)
	filterSpan.SetAttributes(
		attribute.Int("records.in", len(ds.Records)),
		attribute.Int("records.out", len(working)),
	)
	filterSpan.End()

	_, aggSpan := s.tracer.Start(ctx, "session.aggregate")
	d := engine.Aggregate(ds.Records, working, filters, s.engineOpts...)
	aggSpan.End()

	if memoize {
		s.mu.RLock()
		current := s.dataset == ds
		s.mu.RUnlock()
		if current {
			if err := s.cache.Set(key, d); err != nil {
				log.Printf("⚠️  FleetLens: failed to cache dashboard: %v", err)
			}
		}
	}
	return d, nil
}

// CacheStats reports dashboard cache hits and misses.
func (s *Session) CacheStats() (hits, misses uint64) {
	return s.cache.HitCount(), s.cache.MissCount()
}

func cacheKey(id uuid.UUID, f engine.FilterConfig) string {
	return id.String() + "|" + f.Key()
}
