// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vodcache/config.yaml",
	"/etc/vodcache/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Dir:                "",
			Timezone:           "",
			MaxSessionDuration: 6 * time.Hour,
		},
		Catalog: CatalogConfig{
			TraxisURL:      "",
			Workers:        8,
			RatePerSecond:  20,
			Burst:          8,
			Timeout:        30 * time.Second,
			CircuitBreaker: true,
		},
		Simulate: SimulateConfig{
			Window:          72 * time.Hour, // Only the last 3 days of starts are walked
			KeepAliveFrom:   0,
			KeepAliveTo:     36 * time.Hour,
			KeepAliveStep:   3 * time.Hour,
			DownloadBitrate: 20_000_000,
			BucketWidths:    []time.Duration{time.Minute, time.Hour},
		},
		Snapshot: SnapshotConfig{
			Backend:     "file",
			Dir:         "",
			VerifyInput: false,
		},
		Output: OutputConfig{
			Dir: "",
		},
		Capacity: CapacityConfig{
			SizesGB: []int64{500, 1000, 2000},
		},
		Database: DatabaseConfig{
			Path:      "", // Export disabled
			Threads:   0,
			MaxMemory: "1GB",
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadOptions adjusts LoadWithOptions.
type LoadOptions struct {
	// Path is the config file to load. Empty falls back to CONFIG_PATH and
	// the default search paths.
	Path string

	// Overrides are applied last, keyed by koanf path (e.g. "input.dir").
	// Command-line flags use this layer.
	Overrides map[string]any

	// SkipValidation returns the merged configuration unvalidated, for
	// commands that use a single section and validate it themselves.
	SkipValidation bool
}

// LoadWithOptions is LoadWithKoanf with an explicit config file and a
// final override layer above the environment.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := opts.Path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// VODUSAGE_DIR -> input.dir
	// KEEP_ALIVE_STEP -> simulate.keep_alive_step
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Layer 4: Explicit overrides
	for key, val := range opts.Overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if opts.SkipValidation {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"simulate.bucket_widths",
	"capacity.sizes_gb",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			continue // Already a slice (defaults or YAML)
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		// An empty value clears the list (e.g. CAPACITY_SIZES_GB= disables the replay)
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Input
	"vodusage_dir":         "input.dir",
	"input_timezone":       "input.timezone",
	"max_session_duration": "input.max_session_duration",

	// Catalog
	"traxis_url":              "catalog.traxis_url",
	"catalog_workers":         "catalog.workers",
	"catalog_rate_per_second": "catalog.rate_per_second",
	"catalog_burst":           "catalog.burst",
	"catalog_timeout":         "catalog.timeout",
	"catalog_circuit_breaker": "catalog.circuit_breaker",

	// Simulator
	"simulate_window":  "simulate.window",
	"keep_alive_from":  "simulate.keep_alive_from",
	"keep_alive_to":    "simulate.keep_alive_to",
	"keep_alive_step":  "simulate.keep_alive_step",
	"download_bitrate": "simulate.download_bitrate",
	"bucket_widths":    "simulate.bucket_widths",

	"simulate_end_instants": "simulate.end_instants",

	// Snapshot
	"snapshot_backend":      "snapshot.backend",
	"snapshot_dir":          "snapshot.dir",
	"snapshot_verify_input": "snapshot.verify_input",

	// Outputs
	"output_dir":        "output.dir",
	"capacity_sizes_gb": "capacity.sizes_gb",
	"duckdb_path":       "database.path",
	"duckdb_threads":    "database.threads",
	"duckdb_max_memory": "database.max_memory",
	"metrics_textfile":  "metrics.textfile",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - VODUSAGE_DIR -> input.dir
//   - TRAXIS_URL -> catalog.traxis_url
//   - KEEP_ALIVE_TO -> simulate.keep_alive_to
//   - DUCKDB_PATH -> database.path
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
