// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all configuration of an analysis run.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//  4. Command-line flags: applied by cmd/vodcache on top of the loaded Config
//
// Configuration Categories:
//
//  1. Inputs:
//     - Input: session log folder, local time zone, corrupt-session bound
//     - Catalog: asset metadata service and fetch politeness
//
//  2. Analysis:
//     - Simulate: keep-alive sweep, synthetic download bitrate, bucket widths
//     - Capacity: cache sizes for the bounded LRU replay
//
//  3. Outputs:
//     - Snapshot: persisted intermediate results
//     - Output: report folder
//     - Database: optional DuckDB export
//     - Metrics: optional Prometheus textfile
//     - Logging: log level and format
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Input    InputConfig    `koanf:"input"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Simulate SimulateConfig `koanf:"simulate"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Output   OutputConfig   `koanf:"output"`
	Capacity CapacityConfig `koanf:"capacity"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// InputConfig describes where session logs are read from.
//
// Environment Variables:
//   - VODUSAGE_DIR: folder holding VODUsage*.xml files (required)
//   - INPUT_TIMEZONE: IANA zone used for calendar days and report times (default: empty = local zone)
//   - MAX_SESSION_DURATION: longer sessions are dropped as corrupt (default: 6h)
type InputConfig struct {
	Dir                string        `koanf:"dir" validate:"required"`
	Timezone           string        `koanf:"timezone" validate:"omitempty,timezone"`
	MaxSessionDuration time.Duration `koanf:"max_session_duration" validate:"gt=0"`
}

// Location returns the configured time zone, time.Local when unset.
func (c InputConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CatalogConfig holds asset metadata service settings.
//
// Environment Variables:
//   - TRAXIS_URL: base URL of the metadata service; empty runs offline from the asset snapshot
//   - CATALOG_WORKERS: concurrent fetches (default: 8, range 1-64)
//   - CATALOG_RATE_PER_SECOND: client-side request rate, 0 = unlimited (default: 20)
//   - CATALOG_BURST: rate limiter burst (default: 8)
//   - CATALOG_TIMEOUT: per-request timeout (default: 30s)
//   - CATALOG_CIRCUIT_BREAKER: stop fetching while the service keeps failing (default: true)
type CatalogConfig struct {
	TraxisURL      string        `koanf:"traxis_url"`
	Workers        int           `koanf:"workers" validate:"min=1,max=64"`
	RatePerSecond  float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst          int           `koanf:"burst" validate:"min=1"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
}

// SimulateConfig holds download simulator settings.
//
// Environment Variables:
//   - SIMULATE_WINDOW: trailing span of session starts walked per run, 0 = all (default: 72h)
//   - KEEP_ALIVE_FROM, KEEP_ALIVE_TO, KEEP_ALIVE_STEP: keep-alive sweep (default: 0h to 36h step 3h)
//   - DOWNLOAD_BITRATE: synthetic cache-fill bitrate in bits/s (default: 20000000)
//   - BUCKET_WIDTHS: comma-separated peak bucket widths (default: 1m,1h)
//   - SIMULATE_END_INSTANTS: also walk grown session ends, so re-entries are downloaded again (default: false)
type SimulateConfig struct {
	Window          time.Duration   `koanf:"window" validate:"gte=0"`
	KeepAliveFrom   time.Duration   `koanf:"keep_alive_from" validate:"gte=0,whole_minutes"`
	KeepAliveTo     time.Duration   `koanf:"keep_alive_to" validate:"gte=0,whole_minutes"`
	KeepAliveStep   time.Duration   `koanf:"keep_alive_step" validate:"gt=0,whole_minutes"`
	DownloadBitrate int64           `koanf:"download_bitrate" validate:"gt=0"`
	BucketWidths    []time.Duration `koanf:"bucket_widths" validate:"min=1,dive,gt=0"`
	EndInstants     bool            `koanf:"end_instants"`
}

// KeepAlives returns the keep-alive values of the sweep in ascending order.
func (c SimulateConfig) KeepAlives() []time.Duration {
	if c.KeepAliveStep <= 0 {
		return []time.Duration{c.KeepAliveFrom}
	}
	var out []time.Duration
	for ka := c.KeepAliveFrom; ka <= c.KeepAliveTo; ka += c.KeepAliveStep {
		out = append(out, ka)
	}
	return out
}

// SnapshotConfig controls persisted intermediate results.
//
// Environment Variables:
//   - SNAPSHOT_BACKEND: file, badger or none (default: file)
//   - SNAPSHOT_DIR: storage location (default: <output dir>/cache)
//   - SNAPSHOT_VERIFY_INPUT: discard download snapshots computed from other input (default: false)
type SnapshotConfig struct {
	Backend     string `koanf:"backend" validate:"oneof=file badger none"`
	Dir         string `koanf:"dir"`
	VerifyInput bool   `koanf:"verify_input"`
}

// OutputConfig controls where reports are written.
//
// Environment Variables:
//   - OUTPUT_DIR: report folder (default: <input dir>/Analysis)
type OutputConfig struct {
	Dir string `koanf:"dir"`
}

// CapacityConfig holds the cache sizes for the bounded LRU replay.
//
// Environment Variables:
//   - CAPACITY_SIZES_GB: comma-separated sizes in GB; empty disables the replay (default: 500,1000,2000)
type CapacityConfig struct {
	SizesGB []int64 `koanf:"sizes_gb" validate:"dive,gt=0"`
}

// DatabaseConfig holds the optional DuckDB export.
//
// Environment Variables:
//   - DUCKDB_PATH: database file; empty disables the export
//   - DUCKDB_THREADS: worker threads, 0 for one per CPU (default: 0)
//   - DUCKDB_MAX_MEMORY: memory limit, e.g. 2GB (default: 1GB)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
	MaxMemory string `koanf:"max_memory" validate:"required"`
}

// MetricsConfig holds the optional Prometheus textfile output.
//
// Environment Variables:
//   - METRICS_TEXTFILE: path of the .prom file written at the end of a run
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Console is human-readable for interactive runs.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// OutputDir returns the report folder, defaulting to <input dir>/Analysis.
func (c *Config) OutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return filepath.Join(c.Input.Dir, "Analysis")
}

// SnapshotDir returns the snapshot location, defaulting to <output dir>/cache.
func (c *Config) SnapshotDir() string {
	if c.Snapshot.Dir != "" {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.OutputDir(), "cache")
}

// Load reads configuration from all sources with the following precedence
// (highest to lowest):
//  1. Environment variables
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Built-in defaults
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
