// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vodcache/internal/catalog"
	"github.com/tomtom215/vodcache/internal/config"
	"github.com/tomtom215/vodcache/internal/database"
	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/report"
	"github.com/tomtom215/vodcache/internal/vodusage"
)

const usageDoc = `<?xml version="1.0" encoding="utf-8"?>
<VODUsage xmlns="urn:eventis:vodusage:2.0">
  <FinishedSessions>
%s  </FinishedSessions>
</VODUsage>
`

// writeUsage writes one usage file covering 28-30 August 2013 (UTC), so
// that the 29th is the only full day.
func writeUsage(t *testing.T, dir string) {
	t.Helper()
	rows := []struct{ asset, start, end string }{
		{"movie-1", "2013-08-28T20:00:00Z", "2013-08-28T21:30:00Z"},
		{"movie-1", "2013-08-29T10:00:00Z", "2013-08-29T11:30:00Z"},
		{"movie-2", "2013-08-29T10:15:00Z", "2013-08-29T10:45:00Z"},
		{"series/1", "2013-08-29T18:00:00Z", "2013-08-29T18:40:00Z"},
		{"movie-2", "2013-08-30T08:00:00Z", "2013-08-30T08:30:00Z"},
		// Longer than the plausible maximum.
		{"movie-1", "2013-08-29T01:00:00Z", "2013-08-29T09:00:00Z"},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "    <FinishedSession><AssetId>%s</AssetId><SessionPeriod startDate=%q endDate=%q/></FinishedSession>\n",
			r.asset, r.start, r.end)
	}
	path := filepath.Join(dir, "VODUsage_20130830.xml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(usageDoc, b.String())), 0o600); err != nil {
		t.Fatalf("write usage file: %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "usage")
	if err := os.MkdirAll(input, 0o750); err != nil {
		t.Fatal(err)
	}

	return &config.Config{
		Input: config.InputConfig{
			Dir:                input,
			Timezone:           "UTC",
			MaxSessionDuration: 6 * time.Hour,
		},
		Catalog: config.CatalogConfig{Workers: 2, Burst: 1, Timeout: time.Second},
		Simulate: config.SimulateConfig{
			Window:          72 * time.Hour,
			KeepAliveFrom:   0,
			KeepAliveTo:     3 * time.Hour,
			KeepAliveStep:   3 * time.Hour,
			DownloadBitrate: 20_000_000,
			BucketWidths:    []time.Duration{time.Minute, time.Hour},
		},
		Snapshot: config.SnapshotConfig{Backend: "file"},
		Output:   config.OutputConfig{Dir: filepath.Join(root, "out")},
		Capacity: config.CapacityConfig{SizesGB: []int64{1, 10}},
		Database: config.DatabaseConfig{MaxMemory: "512MB"},
		Metrics:  config.MetricsConfig{Textfile: filepath.Join(root, "metrics.prom")},
		Logging:  config.LoggingConfig{Level: "info"},
	}
}

// countingFetcher serves fixed metadata and counts fetches.
func countingFetcher(calls *atomic.Int32) catalog.Fetcher {
	assets := map[string]models.Asset{
		"movie-1":  {Bitrate: 8_000_000, Duration: 5400},
		"movie-2":  {Bitrate: 4_000_000, Duration: 1800},
		"series/1": {Bitrate: 4_000_000, Duration: 2400},
	}
	return catalog.FetcherFunc(func(_ context.Context, id string) (models.Asset, error) {
		calls.Add(1)
		a, ok := assets[id]
		if !ok {
			return models.Asset{}, catalog.ErrNotFound
		}
		return a, nil
	})
}

func fileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected %s: %v", path, err)
		return
	}
	if !info.IsDir() && info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "vodcache.duckdb")
	writeUsage(t, cfg.Input.Dir)

	var calls atomic.Int32
	p, err := New(cfg, WithFetcher(countingFetcher(&calls)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := (vodusage.Stats{Files: 1, Accepted: 5, Corrupt: 1}); res.Usage != want {
		t.Errorf("Usage = %+v, want %+v", res.Usage, want)
	}
	if res.Assets != 3 {
		t.Errorf("Assets = %d, want 3", res.Assets)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}
	if res.Days != 1 {
		t.Errorf("Days = %d, want 1", res.Days)
	}
	if len(res.Sweep) != 2 {
		t.Errorf("Sweep has %d keep-alives, want 2", len(res.Sweep))
	}
	if len(res.Capacity) != 2 {
		t.Errorf("Capacity has %d sizes, want 2", len(res.Capacity))
	}
	if !res.Exported {
		t.Error("Exported = false, want true")
	}
	if res.Elapsed <= 0 {
		t.Error("Elapsed not set")
	}

	out := cfg.OutputDir()
	day := filepath.Join(out, "2013-08-29")
	for _, path := range []string{
		filepath.Join(out, report.SessionFile),
		filepath.Join(out, report.MemoryFile),
		filepath.Join(out, report.CapacityFile),
		filepath.Join(day, report.SessionFile),
		filepath.Join(day, report.AssetFileName("movie-1")),
		filepath.Join(day, report.AssetFileName("series/1")),
		cfg.Metrics.Textfile,
	} {
		fileExists(t, path)
	}
	if _, err := os.Stat(filepath.Join(out, "2013-08-28")); !os.IsNotExist(err) {
		t.Errorf("partial first day should not get a folder, stat err = %v", err)
	}

	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()
	n, err := db.CountRows(context.Background(), "sessions", res.RunID)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != 5 {
		t.Errorf("exported sessions = %d, want 5", n)
	}
}

func TestRunReusesSnapshots(t *testing.T) {
	cfg := testConfig(t)
	writeUsage(t, cfg.Input.Dir)

	var calls atomic.Int32
	p, err := New(cfg, WithFetcher(countingFetcher(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// The session snapshot is trusted; the usage files are no longer needed.
	if err := os.RemoveAll(cfg.Input.Dir); err != nil {
		t.Fatal(err)
	}
	calls.Store(0)

	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("second run fetched %d assets, want 0", got)
	}
	if second.Usage.Accepted != first.Usage.Accepted {
		t.Errorf("second run read %d sessions, want %d", second.Usage.Accepted, first.Usage.Accepted)
	}
	if second.RunID == first.RunID {
		t.Error("runs share an id")
	}
	if second.Exported {
		t.Error("Exported = true without a database path")
	}
}

func TestRunNoSessions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Snapshot.Backend = "none"

	var logs bytes.Buffer
	logging.SetLogger(zerolog.New(&logs))
	t.Cleanup(func() { logging.SetLogger(zerolog.Nop()) })

	var calls atomic.Int32
	p, err := New(cfg, WithFetcher(countingFetcher(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Run(context.Background())
	if !errors.Is(err, ErrNoSessions) {
		t.Fatalf("Run() error = %v, want ErrNoSessions", err)
	}
	if !strings.Contains(err.Error(), PhaseRead) {
		t.Errorf("error %q does not name the failing phase", err)
	}
	// The failure is logged with the phase it happened in.
	if out := logs.String(); !strings.Contains(out, `"phase":"`+PhaseRead+`"`) || !strings.Contains(out, "Phase failed") {
		t.Errorf("failed phase not logged: %s", out)
	}
	// Metrics are written on failure too.
	fileExists(t, cfg.Metrics.Textfile)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Snapshot.Backend = "none"
	writeUsage(t, cfg.Input.Dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p, err := New(cfg, WithFetcher(countingFetcher(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir(), report.SessionFile)); !os.IsNotExist(err) {
		t.Errorf("cancelled run wrote reports, stat err = %v", err)
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.Timezone = "Nowhere/Atlantis"
	if _, err := New(cfg); err == nil {
		t.Fatal("New() error = nil, want unknown time zone")
	}
}

func TestOfflineFetcher(t *testing.T) {
	_, err := offlineFetcher.Fetch(context.Background(), "movie-1")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("offline fetch error = %v, want ErrNotFound", err)
	}
}

func TestFillCatalog(t *testing.T) {
	cfg := testConfig(t)
	writeUsage(t, cfg.Input.Dir)

	var calls atomic.Int32
	p, err := New(cfg, WithFetcher(countingFetcher(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	res, cat, err := p.FillCatalog(context.Background())
	if err != nil {
		t.Fatalf("FillCatalog() error = %v", err)
	}
	if cat.Len() != 3 || res.Assets != 3 {
		t.Errorf("catalog has %d assets (result %d), want 3", cat.Len(), res.Assets)
	}
	// 8 Mbps for 5400 s.
	if got := cat.Filesize("movie-1"); got != 5_400_000_000 {
		t.Errorf("Filesize(movie-1) = %d, want 5400000000", got)
	}
	if len(res.Files) != 0 {
		t.Errorf("FillCatalog wrote reports: %v", res.Files)
	}
}
