// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package main is the vodcache command-line tool.
//
// vodcache reads the VOD usage logs of a video delivery platform, resolves
// the size of every requested asset from the Traxis metadata service, and
// writes reports estimating how much cache memory the delivery nodes need:
//
//  1. Sessions: VODUsage*.xml files are parsed into finished sessions
//  2. Catalog: asset bitrate and duration are fetched (rate limited, circuit breaker)
//  3. Analyses: concurrency over the full period, per full day, per asset
//  4. Simulation: cache downloads and memory in use for every keep-alive value
//  5. Capacity: session starts replayed against fixed-size LRU caches
//  6. Export (optional): sessions, assets and downloads written to DuckDB
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Command-line flags
//   - Environment variables (VODUSAGE_DIR, TRAXIS_URL, KEEP_ALIVE_TO, DUCKDB_PATH, ...)
//   - Config file (--config, CONFIG_PATH, or config.yaml in the working directory or /etc/vodcache)
//   - Built-in defaults
//
// # Example Usage
//
//	vodcache analyze --input /data/vodusage --traxis-url http://traxis:8080
//	vodcache analyze --input /data/vodusage --keep-alive-to 12h --duckdb runs.duckdb
//	vodcache assets --input /data/vodusage
//
// Snapshots of parsed sessions, asset metadata and simulation results are
// kept below the output folder, so a second run over the same logs skips
// the expensive phases.
package main
