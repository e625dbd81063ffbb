// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaTimeout bounds schema creation.
const schemaTimeout = 60 * time.Second

// createTables creates the export tables
func (db *DB) createTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	for _, query := range append(getTableCreationQueries(), getIndexQueries()...) {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			input_dir TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			run_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			duration_seconds DOUBLE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS assets (
			run_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			bitrate_bps BIGINT NOT NULL,
			duration_seconds BIGINT NOT NULL,
			recording_start TIMESTAMP,
			filesize BIGINT NOT NULL,
			known_filesize BOOLEAN NOT NULL
		)`,

		// One row per simulated cache fill
		`CREATE TABLE IF NOT EXISTS download_moments (
			run_id TEXT NOT NULL,
			keep_alive_minutes INTEGER NOT NULL,
			download_time TIMESTAMP NOT NULL,
			asset_id TEXT NOT NULL,
			filesize BIGINT NOT NULL,
			total_memory_in_use BIGINT NOT NULL,
			live_ingest BOOLEAN NOT NULL
		)`,
	}
}

// getIndexQueries returns the index creation SQL statements
func getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_sessions_run ON sessions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_run ON assets(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_download_moments_run ON download_moments(run_id, keep_alive_minutes)`,
	}
}
