// Package config loads and validates FleetLens configuration.
//
// Configuration is read from fleetlens.yml and validated using struct tags.
// It supplies default filters, dashboard limits, header overrides, named
// pivot tables and export layout.
package config
