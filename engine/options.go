package engine

import (
	"time"

	"github.com/spektr-org/fleetlens/telemetry"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Now        func() time.Time      // reference instant when FilterConfig has none
	ValidZones []string              // allowlist for AlertTypeDistribution
	TopLimit   int                   // number of stoppage locations
	Pivots     []PivotSpec           // pivot tables to compute
	Normalizer *telemetry.Normalizer // used by Run
}

// WithReferenceTime fixes the instant relative date ranges are computed
// from when the filter configuration carries no ReferenceDate.
func WithReferenceTime(t time.Time) Option {
	return func(c *config) {
		c.Now = func() time.Time { return t }
	}
}

// WithValidZones restricts the alert-type distribution to the given zones.
func WithValidZones(zones ...string) Option {
	return func(c *config) {
		c.ValidZones = append([]string(nil), zones...)
	}
}

// WithTopLimit sets how many stoppage locations are reported.
// 0 or less reports every location.
func WithTopLimit(n int) Option {
	return func(c *config) {
		c.TopLimit = n
	}
}

// WithPivots adds pivot tables to the dashboard.
func WithPivots(specs ...PivotSpec) Option {
	return func(c *config) {
		c.Pivots = append(c.Pivots, specs...)
	}
}

// WithNormalizer sets the normalizer Run uses for raw rows.
func WithNormalizer(n *telemetry.Normalizer) Option {
	return func(c *config) {
		c.Normalizer = n
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Now:      time.Now,
		TopLimit: DefaultTopLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = telemetry.NewNormalizer(nil)
	}
	return cfg
}
