// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package metrics provides Prometheus instrumentation for analysis runs.

VODCache is a batch tool, so nothing is scraped while it runs. Collectors are
registered with promauto on the default registry and, when configured, the
whole registry is written once at the end of the run with WriteTextfile. The
resulting file is meant for a node-exporter textfile collector:

	metrics:
	  textfile: /var/lib/node_exporter/textfile/vodcache.prom

# Available Metrics

Ingestion:
  - vodcache_sessions_read_total{result}: accepted and corrupt sessions
  - vodcache_usage_files_read_total: parsed usage log files

Catalog:
  - vodcache_catalog_fetches_total{result}: remote metadata fetches
  - vodcache_catalog_fetch_duration_seconds: fetch latency (histogram)
  - vodcache_catalog_assets: assets held after population
  - vodcache_catalog_average_filesize_bytes: fallback size for unknown assets
  - vodcache_circuit_breaker_*: breaker state, requests and transitions

Snapshots:
  - vodcache_snapshot_lookups_total{kind,result}: hit, miss, error, stale
  - vodcache_snapshot_writes_total{kind,result}

Simulation:
  - vodcache_download_moments{keep_alive_minutes}
  - vodcache_peak_memory_bytes{keep_alive_minutes}
  - vodcache_phase_duration_seconds{phase}
*/
package metrics
