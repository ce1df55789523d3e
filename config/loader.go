package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/fleetlens/engine"
	"github.com/spektr-org/fleetlens/schema"
)

// DefaultPaths are searched in order by LoadDefault.
var DefaultPaths = []string{"fleetlens.yml", "config/fleetlens.yml"}

// Default returns the built-in configuration. The alert distribution is
// restricted to engine.FleetZones; set dashboard.validZones to an empty
// list to report every known zone.
func Default() *Config {
	return &Config{
		Dashboard: DashboardSettings{
			TopLocations: engine.DefaultTopLimit,
			ValidZones:   append([]string(nil), engine.FleetZones...),
			CacheSize:    32,
		},
	}
}

// Load reads, decodes and validates the configuration at path.
// Keys absent from the file keep their Default values; unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the first file in DefaultPaths that exists, or returns
// Default when none does.
func LoadDefault() (*Config, error) {
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		log.Printf("⚙️  FleetLens: using config %s", p)
		return Load(p)
	}
	return Default(), nil
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints, header override field names and the
// uniqueness of pivot names and of column names within a pivot.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Pivots))
	for _, p := range c.Pivots {
		if seen[p.Name] {
			return fmt.Errorf("invalid config: duplicate pivot name %q", p.Name)
		}
		seen[p.Name] = true
	}
	for _, spec := range c.PivotSpecs() {
		columns := make(map[string]bool, len(spec.Aggregations))
		for _, a := range spec.Aggregations {
			if columns[a.Name()] {
				return fmt.Errorf("invalid config: pivot %q has duplicate column %q", spec.Name, a.Name())
			}
			columns[a.Name()] = true
		}
	}

	if _, err := c.Catalogue(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Catalogue returns the default header catalogue with the configured
// overrides placed ahead of the built-in candidates.
func (c *Config) Catalogue() (schema.Catalogue, error) {
	return schema.DefaultCatalogue().With(c.Headers)
}
