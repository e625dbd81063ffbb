// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vodcache/internal/aggregate"
	"github.com/tomtom215/vodcache/internal/capacity"
	"github.com/tomtom215/vodcache/internal/catalog"
	"github.com/tomtom215/vodcache/internal/database"
	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/report"
	"github.com/tomtom215/vodcache/internal/simulate"
	"github.com/tomtom215/vodcache/internal/snapshot"
	"github.com/tomtom215/vodcache/internal/vodusage"
)

// run holds the state passed between the phases of one Run.
type run struct {
	*Pipeline
	res    *Result
	store  snapshot.Store
	writer *report.Writer

	sessions  []models.Session
	catalog   *catalog.Catalog
	downloads map[time.Duration][]models.DownloadMoment
}

func (r *run) wrote(path string) {
	r.res.Files = append(r.res.Files, path)
}

func (r *run) read(ctx context.Context) error {
	reader := vodusage.NewReader(
		vodusage.WithLocation(r.loc),
		vodusage.WithMaxDuration(r.cfg.Input.MaxSessionDuration),
		vodusage.WithStore(r.store),
	)
	sessions, stats, err := reader.FindOrRead(ctx, r.cfg.Input.Dir)
	if err != nil {
		return err
	}
	r.res.Usage = stats
	if len(sessions) == 0 {
		return ErrNoSessions
	}
	r.sessions = sessions

	logging.CtxInfo(ctx).
		Int("files", stats.Files).
		Int("sessions", stats.Accepted).
		Int("corrupt", stats.Corrupt).
		Msg("Sessions read")
	return nil
}

func (r *run) fillCatalog(ctx context.Context) error {
	r.catalog = catalog.New(r.fetcher, r.store, catalog.WithWorkers(r.cfg.Catalog.Workers))
	if err := r.catalog.FillAll(ctx, models.DistinctIDs(r.sessions)); err != nil {
		return err
	}
	r.res.Assets = r.catalog.Len()
	return nil
}

func (r *run) analyseSessions(ctx context.Context) error {
	window := aggregate.FullPeriod(r.sessions, r.cfg.Input.MaxSessionDuration)
	r.res.Period = window

	stats := aggregate.AnalyseSessions(r.sessions, window, r.catalog)
	path, err := r.writer.WriteSessions(stats)
	if err != nil {
		return err
	}
	r.wrote(path)

	logging.CtxInfo(ctx).
		Str("period", window.String()).
		Int("samples", len(stats.Samples)).
		Int("assets", stats.Assets).
		Msg("Full period analysed")
	return nil
}

func (r *run) analyseDays(ctx context.Context) error {
	days := aggregate.FullDays(r.sessions, r.loc)
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := aggregate.AnalyseDay(r.sessions, day, r.catalog)
		dir, err := r.writer.WriteDay(stats)
		if err != nil {
			return err
		}
		r.wrote(dir)

		logging.CtxInfo(ctx).
			Str("day", day.Start.Format(report.DayLayout)).
			Int("sessions_started", stats.SessionsStarted).
			Int("assets_started", len(stats.AssetsStarted)).
			Msg("Day analysed")
	}
	r.res.Days = len(days)
	return nil
}

func (r *run) analyseDownloads(ctx context.Context) error {
	sim := simulate.New(r.catalog,
		simulate.WithWindow(r.cfg.Simulate.Window),
		simulate.WithStore(r.store),
		simulate.WithInputVerification(r.cfg.Snapshot.VerifyInput),
		simulate.WithEndInstants(r.cfg.Simulate.EndInstants),
	)

	exporting := r.cfg.Database.Path != ""
	if exporting {
		r.downloads = make(map[time.Duration][]models.DownloadMoment)
	}

	for _, ka := range r.cfg.Simulate.KeepAlives() {
		if err := ctx.Err(); err != nil {
			return err
		}
		moments, err := sim.FindOrRead(ctx, r.sessions, ka)
		if err != nil {
			return err
		}
		if exporting {
			r.downloads[ka] = moments
		}

		stats := aggregate.AnalyseDownloads(moments, ka, r.cfg.Simulate.BucketWidths, r.cfg.Simulate.DownloadBitrate)
		r.res.Sweep = append(r.res.Sweep, stats)
		if stats.Downloads > 0 {
			path, err := r.writer.WriteConcurrent(ka, stats.Concurrent)
			if err != nil {
				return err
			}
			r.wrote(path)
		}

		logging.CtxInfo(logging.ContextWithKeepAlive(ctx, ka)).
			Int64("peak_memory_gb", report.Gb(stats.PeakMemory)).
			Int("downloads", stats.Downloads).
			Int("max_concurrent", stats.Concurrent.Peak.Downloads).
			Msg("Keep-alive analysed")
	}

	path, err := r.writer.WriteMemory(r.res.Sweep)
	if err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) replayCapacity(ctx context.Context) error {
	if len(r.cfg.Capacity.SizesGB) == 0 {
		logging.CtxDebug(ctx).Msg("Capacity replay disabled")
		return nil
	}

	results, err := capacity.SimulateSizes(r.sessions, r.catalog, r.cfg.Capacity.SizesGB)
	if err != nil {
		return err
	}
	r.res.Capacity = results

	path, err := r.writer.WriteCapacity(results)
	if err != nil {
		return err
	}
	r.wrote(path)

	for _, c := range results {
		logging.CtxInfo(ctx).
			Int64("capacity_gb", report.Gb(c.CapacityBytes)).
			Float64("hit_ratio", c.HitRatio()).
			Int("evictions", c.Evictions).
			Msg("Cache size replayed")
	}
	return nil
}

func (r *run) export(ctx context.Context) (err error) {
	if r.cfg.Database.Path == "" {
		logging.CtxDebug(ctx).Msg("DuckDB export disabled")
		return nil
	}

	db, err := database.Open(ctx, r.cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close export database: %w", cerr)
		}
	}()

	err = db.Export(ctx, &database.Run{
		ID:              r.res.RunID,
		StartedAt:       r.res.startedAt,
		InputDir:        r.cfg.Input.Dir,
		Sessions:        r.sessions,
		Assets:          r.catalog.Assets(),
		AverageFilesize: r.catalog.AverageFilesize(),
		Downloads:       r.downloads,
	})
	if err != nil {
		return err
	}
	r.res.Exported = true
	return nil
}
