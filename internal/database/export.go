// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/models"
)

// Run is everything one export writes.
type Run struct {
	// ID identifies the run; a new one is generated when nil.
	ID        uuid.UUID
	StartedAt time.Time
	InputDir  string

	Sessions []models.Session
	Assets   []models.Asset

	// AverageFilesize stands in for assets without a known size.
	AverageFilesize int64

	// Downloads holds the simulator output per keep-alive value.
	Downloads map[time.Duration][]models.DownloadMoment
}

// Export writes run in a single transaction. Either every row is written
// or none is.
func (db *DB) Export(ctx context.Context, run *Run) (err error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	runID := run.ID.String()
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, input_dir) VALUES (?, ?, ?)`,
		runID, run.StartedAt.UTC(), run.InputDir); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	err = insertRows(ctx, tx,
		`INSERT INTO sessions (run_id, asset_id, start_time, end_time, duration_seconds) VALUES (?, ?, ?, ?, ?)`,
		run.Sessions, func(s models.Session) []any {
			return []any{runID, s.AssetID, s.StartTime.UTC(), s.EndTime.UTC(), s.Duration().Seconds()}
		})
	if err != nil {
		return fmt.Errorf("failed to insert sessions: %w", err)
	}

	err = insertRows(ctx, tx,
		`INSERT INTO assets (run_id, asset_id, bitrate_bps, duration_seconds, recording_start, filesize, known_filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Assets, func(a models.Asset) []any {
			var recStart sql.NullTime
			if a.RecordingStart != nil {
				recStart = sql.NullTime{Time: a.RecordingStart.UTC(), Valid: true}
			}
			_, known := a.KnownFilesize()
			return []any{runID, a.ID, a.Bitrate, a.Duration, recStart, a.Filesize(run.AverageFilesize), known}
		})
	if err != nil {
		return fmt.Errorf("failed to insert assets: %w", err)
	}

	keepAlives := make([]time.Duration, 0, len(run.Downloads))
	for ka := range run.Downloads {
		keepAlives = append(keepAlives, ka)
	}
	sort.Slice(keepAlives, func(i, j int) bool { return keepAlives[i] < keepAlives[j] })

	for _, ka := range keepAlives {
		minutes := int64(ka / time.Minute)
		err = insertRows(ctx, tx,
			`INSERT INTO download_moments (run_id, keep_alive_minutes, download_time, asset_id, filesize, total_memory_in_use, live_ingest)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.Downloads[ka], func(m models.DownloadMoment) []any {
				return []any{runID, minutes, m.Time.UTC(), m.Asset.ID, m.Filesize, m.TotalMemoryInUse, m.LiveIngest}
			})
		if err != nil {
			return fmt.Errorf("failed to insert download moments for keep-alive %s: %w", ka, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}

	logging.Info().
		Str("run_id", runID).
		Str("path", db.Path()).
		Int("sessions", len(run.Sessions)).
		Int("assets", len(run.Assets)).
		Int("keep_alives", len(keepAlives)).
		Dur("elapsed", time.Since(start)).
		Msg("Exported run to DuckDB")
	return nil
}

// insertRows executes query once per row through a prepared statement.
func insertRows[T any](ctx context.Context, tx *sql.Tx, query string, rows []T, args func(T) []any) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, args(row)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
