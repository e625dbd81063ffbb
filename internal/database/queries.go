// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vodcache/internal/database/query"
)

// KeepAliveSummary aggregates the download moments of one keep-alive value.
type KeepAliveSummary struct {
	KeepAlive   time.Duration
	Moments     int64
	Downloads   int64
	PeakMemory  int64
	BytesLoaded int64
}

// DownloadSummary aggregates the exported download moments of a run per
// keep-alive value, in increasing keep-alive order.
func (db *DB) DownloadSummary(ctx context.Context, runID uuid.UUID) ([]KeepAliveSummary, error) {
	where, args := query.NewWhereBuilder().AddRun("run_id", runID).BuildWithPrefix()
	//nolint:gosec // G201: where holds placeholders only
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			keep_alive_minutes,
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT live_ingest),
			MAX(total_memory_in_use),
			CAST(COALESCE(SUM(filesize) FILTER (WHERE NOT live_ingest), 0) AS BIGINT)
		FROM download_moments
		%s
		GROUP BY keep_alive_minutes
		ORDER BY keep_alive_minutes`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query download summary: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []KeepAliveSummary
	for rows.Next() {
		var minutes int64
		var s KeepAliveSummary
		if err := rows.Scan(&minutes, &s.Moments, &s.Downloads, &s.PeakMemory, &s.BytesLoaded); err != nil {
			return nil, fmt.Errorf("failed to scan download summary: %w", err)
		}
		s.KeepAlive = time.Duration(minutes) * time.Minute
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate download summary: %w", err)
	}
	return out, nil
}

// SessionFilter narrows the exported sessions of a run.
type SessionFilter struct {
	RunID uuid.UUID

	// Start and End bound the session start times, [Start, End). Nil bounds
	// are open.
	Start *time.Time
	End   *time.Time

	// AssetIDs restricts the result to these assets when non-empty.
	AssetIDs []string
}

// AssetCount is one row of TopAssets.
type AssetCount struct {
	AssetID  string
	Sessions int64
	Filesize int64
}

// TopAssets returns the assets with the most sessions matching f, busiest
// first, ties broken by asset id. A limit of zero or less returns every
// asset.
func (db *DB) TopAssets(ctx context.Context, f SessionFilter, limit int) ([]AssetCount, error) {
	wb := query.NewWhereBuilder().
		AddRun("s.run_id", f.RunID).
		AddTimeRange("s.start_time", f.Start, f.End).
		AddIn("s.asset_id", f.AssetIDs)
	where, args := wb.BuildWithPrefix()

	q := `
		SELECT s.asset_id, COUNT(*), COALESCE(MAX(a.filesize), 0)
		FROM sessions s
		LEFT JOIN assets a ON a.run_id = s.run_id AND a.asset_id = s.asset_id
		` + where + `
		GROUP BY s.asset_id
		ORDER BY COUNT(*) DESC, s.asset_id`
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top assets: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []AssetCount
	for rows.Next() {
		var c AssetCount
		if err := rows.Scan(&c.AssetID, &c.Sessions, &c.Filesize); err != nil {
			return nil, fmt.Errorf("failed to scan top assets: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top assets: %w", err)
	}
	return out, nil
}

// exportTables are the tables CountRows accepts.
var exportTables = map[string]bool{
	"sessions":         true,
	"assets":           true,
	"download_moments": true,
}

// CountRows returns the number of rows of table written by a run.
func (db *DB) CountRows(ctx context.Context, table string, runID uuid.UUID) (int64, error) {
	if !exportTables[table] {
		return 0, fmt.Errorf("unknown export table %q", table)
	}
	var n int64
	//nolint:gosec // G201: table is checked against exportTables
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE run_id = ?", table)
	if err := db.conn.QueryRowContext(ctx, query, runID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Runs returns the ids of every exported run, oldest first.
func (db *DB) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return ids, nil
}
