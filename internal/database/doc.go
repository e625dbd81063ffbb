// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package database exports analysis inputs and results to DuckDB for ad-hoc
// SQL.
//
// # Overview
//
// The text reports answer fixed questions. Loading the same data into an
// OLAP database lets an analyst slice it further: downloads per hour of day,
// peak memory per keep-alive, the most re-downloaded assets, and so on.
//
// # Schema
//
//   - runs: one row per export (run_id, started_at, input_dir)
//   - sessions: the accepted viewing sessions
//   - assets: catalog metadata with the resolved filesize
//   - download_moments: simulator output, one row per cache fill, keyed by
//     keep_alive_minutes
//
// Every row carries the run_id of its export, so a database file can hold
// several runs side by side. Timestamps are stored as UTC TIMESTAMP values.
//
// # Database Technology
//
// DuckDB through database/sql with the CGO-based driver
// (github.com/duckdb/duckdb-go/v2). An empty path opens an in-memory
// database, which the tests use.
//
// # Example
//
//	db, err := database.Open(ctx, "analysis.duckdb")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	run := database.Run{ID: uuid.New(), StartedAt: time.Now(), Sessions: sessions}
//	if err := db.Export(ctx, run); err != nil {
//	    return err
//	}
package database
