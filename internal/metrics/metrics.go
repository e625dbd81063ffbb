// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for a batch analysis run:
// - Session log ingestion
// - Asset catalog population (remote fetches, circuit breaker)
// - Snapshot cache efficiency
// - Simulator output per keep-alive value

var (
	// Session Ingestion Metrics
	SessionsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_sessions_read_total",
			Help: "Total number of sessions read from usage logs",
		},
		[]string{"result"}, // "accepted", "corrupt"
	)

	UsageFilesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodcache_usage_files_read_total",
			Help: "Total number of usage log files parsed",
		},
	)

	// Asset Catalog Metrics
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_catalog_fetches_total",
			Help: "Total number of asset metadata fetches",
		},
		[]string{"result"}, // "success", "failure"
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vodcache_catalog_fetch_duration_seconds",
			Help:    "Duration of asset metadata fetches in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CatalogAssets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodcache_catalog_assets",
			Help: "Number of assets held by the catalog",
		},
	)

	CatalogAverageFilesize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodcache_catalog_average_filesize_bytes",
			Help: "Mean filesize over assets with known bitrate and duration",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vodcache_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Snapshot Cache Metrics
	SnapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_snapshot_lookups_total",
			Help: "Total number of persisted snapshot lookups",
		},
		[]string{"kind", "result"}, // result: "hit", "miss", "error", "stale"
	)

	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodcache_snapshot_writes_total",
			Help: "Total number of persisted snapshot writes",
		},
		[]string{"kind", "result"}, // result: "success", "failure"
	)

	// Simulator Metrics
	DownloadMoments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vodcache_download_moments",
			Help: "Number of simulated cache fills for a keep-alive value",
		},
		[]string{"keep_alive_minutes"},
	)

	PeakMemoryBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vodcache_peak_memory_bytes",
			Help: "Peak simulated cache occupancy for a keep-alive value",
		},
		[]string{"keep_alive_minutes"},
	)

	PhaseDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vodcache_phase_duration_seconds",
			Help: "Wall-clock duration of a pipeline phase",
		},
		[]string{"phase"},
	)
)

// RecordUsageFile records one parsed usage log file and its session counts.
func RecordUsageFile(accepted, corrupt int) {
	UsageFilesRead.Inc()
	SessionsRead.WithLabelValues("accepted").Add(float64(accepted))
	SessionsRead.WithLabelValues("corrupt").Add(float64(corrupt))
}

// RecordFetch records one asset metadata fetch.
func RecordFetch(duration time.Duration, err error) {
	CatalogFetchDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogFetches.WithLabelValues("failure").Inc()
		return
	}
	CatalogFetches.WithLabelValues("success").Inc()
}

// RecordSnapshotLookup records a snapshot cache lookup outcome.
func RecordSnapshotLookup(kind, result string) {
	SnapshotLookups.WithLabelValues(kind, result).Inc()
}

// RecordSnapshotWrite records a snapshot write outcome.
func RecordSnapshotWrite(kind string, err error) {
	if err != nil {
		SnapshotWrites.WithLabelValues(kind, "failure").Inc()
		return
	}
	SnapshotWrites.WithLabelValues(kind, "success").Inc()
}

// RecordSimulation records the output size and peak occupancy of one
// simulator run.
func RecordSimulation(keepAlive time.Duration, moments int, peakMemory int64) {
	label := strconv.Itoa(int(keepAlive.Minutes()))
	DownloadMoments.WithLabelValues(label).Set(float64(moments))
	PeakMemoryBytes.WithLabelValues(label).Set(float64(peakMemory))
}

// RecordPhase records how long a pipeline phase took.
func RecordPhase(phase string, duration time.Duration) {
	PhaseDuration.WithLabelValues(phase).Set(duration.Seconds())
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for pickup by a node-exporter textfile collector.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(path, prometheus.DefaultGatherer)
}

// WriteTextfileFrom writes the metrics gathered by g to path.
func WriteTextfileFrom(path string, g prometheus.Gatherer) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create metrics directory %s: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
