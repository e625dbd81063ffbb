// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package config provides centralized configuration management for VODCache.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file, then mapped environment variables. The result is validated with
go-playground/validator tags plus a few cross-field checks before use.

# Configuration File

The first existing file among CONFIG_PATH, config.yaml, config.yml,
/etc/vodcache/config.yaml and /etc/vodcache/config.yml is loaded:

	input:
	  dir: /data/StarmanVodUsage20130828_20130905
	  timezone: Europe/Tallinn
	catalog:
	  traxis_url: http://traxis.example.com
	  workers: 8
	simulate:
	  keep_alive_from: 0h
	  keep_alive_to: 36h
	  keep_alive_step: 3h
	  bucket_widths: [1m, 1h]
	snapshot:
	  backend: file
	capacity:
	  sizes_gb: [500, 1000, 2000]

# Environment Variables

Input:
  - VODUSAGE_DIR: session log folder (required)
  - INPUT_TIMEZONE: IANA zone for calendar days (default: local zone)
  - MAX_SESSION_DURATION: corrupt-session bound (default: 6h)

Catalog:
  - TRAXIS_URL: metadata service base URL (empty: offline)
  - CATALOG_WORKERS, CATALOG_RATE_PER_SECOND, CATALOG_BURST, CATALOG_TIMEOUT
  - CATALOG_CIRCUIT_BREAKER

Simulator:
  - SIMULATE_WINDOW, KEEP_ALIVE_FROM, KEEP_ALIVE_TO, KEEP_ALIVE_STEP
  - DOWNLOAD_BITRATE, BUCKET_WIDTHS (comma-separated), SIMULATE_END_INSTANTS

Outputs:
  - SNAPSHOT_BACKEND, SNAPSHOT_DIR, SNAPSHOT_VERIFY_INPUT
  - OUTPUT_DIR, CAPACITY_SIZES_GB, DUCKDB_PATH, METRICS_TEXTFILE
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Unmapped environment variables are ignored.
*/
package config
