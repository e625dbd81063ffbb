// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vodcache/internal/aggregate"
	"github.com/tomtom215/vodcache/internal/capacity"
	"github.com/tomtom215/vodcache/internal/catalog"
	"github.com/tomtom215/vodcache/internal/config"
	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/report"
	"github.com/tomtom215/vodcache/internal/snapshot"
	"github.com/tomtom215/vodcache/internal/vodusage"
)

// Phase names, used in logs and the phase duration metric.
const (
	PhaseRead      = "read"
	PhaseCatalog   = "catalog"
	PhaseSessions  = "sessions"
	PhaseDays      = "days"
	PhaseDownloads = "downloads"
	PhaseCapacity  = "capacity"
	PhaseExport    = "export"
)

// ErrNoSessions is returned when the usage folder yields no usable session.
var ErrNoSessions = errors.New("no usable sessions in usage folder")

// Result summarizes a finished run.
type Result struct {
	RunID     uuid.UUID
	Usage     vodusage.Stats
	Assets    int
	Period    models.Period
	Days      int
	Sweep     []aggregate.DownloadStats
	Capacity  []capacity.Result
	Files     []string
	Exported  bool
	Elapsed   time.Duration
	startedAt time.Time
}

// Pipeline runs analyses for one configuration.
type Pipeline struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher catalog.Fetcher
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher replaces the metadata fetcher derived from the configuration.
func WithFetcher(f catalog.Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// New creates a Pipeline for cfg. The configuration must be validated.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	loc, err := cfg.Input.Location()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, loc: loc}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = newFetcher(&cfg.Catalog)
	}
	return p, nil
}

// newFetcher builds the Traxis fetcher, wrapped in a circuit breaker when
// enabled. Without a Traxis URL every asset resolves to a placeholder.
func newFetcher(cfg *config.CatalogConfig) catalog.Fetcher {
	if cfg.TraxisURL == "" {
		logging.Warn().Msg("No Traxis URL configured, asset sizes fall back to the catalog average")
		return offlineFetcher
	}
	client := catalog.NewTraxisClient(cfg)
	if cfg.CircuitBreaker {
		return catalog.NewCircuitBreakerFetcher("traxis", client)
	}
	return client
}

var offlineFetcher = catalog.FetcherFunc(func(_ context.Context, id string) (models.Asset, error) {
	return models.Asset{}, fmt.Errorf("%w: %s (offline)", catalog.ErrNotFound, id)
})

type phase struct {
	name string
	fn   func(context.Context) error
}

// Run executes every phase. Metrics are written to the configured textfile
// even when a phase fails.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res, _, err := p.execute(ctx, func(r *run) []phase {
		return []phase{
			{PhaseRead, r.read},
			{PhaseCatalog, r.fillCatalog},
			{PhaseSessions, r.analyseSessions},
			{PhaseDays, r.analyseDays},
			{PhaseDownloads, r.analyseDownloads},
			{PhaseCapacity, r.replayCapacity},
			{PhaseExport, r.export},
		}
	})
	return res, err
}

// FillCatalog reads the sessions and resolves the metadata of every asset
// they reference, without analysing them.
func (p *Pipeline) FillCatalog(ctx context.Context) (*Result, *catalog.Catalog, error) {
	return p.execute(ctx, func(r *run) []phase {
		return []phase{
			{PhaseRead, r.read},
			{PhaseCatalog, r.fillCatalog},
		}
	})
}

func (p *Pipeline) execute(ctx context.Context, phases func(*run) []phase) (res *Result, cat *catalog.Catalog, err error) {
	res = &Result{RunID: uuid.New(), startedAt: time.Now()}
	ctx = logging.ContextWithCorrelationID(ctx, res.RunID.String()[:8])
	logger := logging.Ctx(ctx)

	defer func() {
		res.Elapsed = time.Since(res.startedAt)
		if path := p.cfg.Metrics.Textfile; path != "" {
			if werr := metrics.WriteTextfile(path); werr != nil {
				logger.Warn().Err(werr).Str("path", path).Msg("Failed to write metrics textfile")
			}
		}
	}()

	logger.Info().
		Str("input_dir", p.cfg.Input.Dir).
		Str("output_dir", p.cfg.OutputDir()).
		Str("snapshot_backend", p.cfg.Snapshot.Backend).
		Str("location", p.loc.String()).
		Msg("Starting analysis run")

	store, err := snapshot.Open(snapshot.Backend(p.cfg.Snapshot.Backend), p.cfg.SnapshotDir())
	if err != nil {
		return res, nil, fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close snapshot store")
		}
	}()

	r := &run{
		Pipeline: p,
		res:      res,
		store:    store,
		writer:   report.NewWriter(p.cfg.OutputDir(), p.loc),
	}
	for _, ph := range phases(r) {
		if err := ctx.Err(); err != nil {
			return res, r.catalog, err
		}
		if err := runPhase(ctx, ph.name, ph.fn); err != nil {
			return res, r.catalog, err
		}
	}

	logger.Info().
		Int("sessions", res.Usage.Accepted).
		Int("assets", res.Assets).
		Int("days", res.Days).
		Int("files", len(res.Files)).
		Dur("elapsed", time.Since(res.startedAt)).
		Msg("Analysis run finished")
	return res, r.catalog, nil
}

// runPhase runs fn with ctx tagged with the phase and records its duration.
func runPhase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = logging.ContextWithPhase(ctx, name)
	start := time.Now()
	logging.CtxDebug(ctx).Msg("Phase started")

	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RecordPhase(name, elapsed)
	if err != nil {
		logging.CtxErr(ctx, err).Dur("elapsed", elapsed).Msg("Phase failed")
		return fmt.Errorf("%s phase: %w", name, err)
	}
	logging.CtxInfo(ctx).Dur("elapsed", elapsed).Msg("Phase finished")
	return nil
}
