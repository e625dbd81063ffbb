// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package query builds the parameterized WHERE clauses of the export
// queries.
//
// Every filter value is bound through a placeholder; only column names,
// which callers pass as constants, end up in the SQL text:
//
//	wb := query.NewWhereBuilder()
//	wb.AddRun("s.run_id", runID)
//	wb.AddTimeRange("s.start_time", &from, &to)
//	wb.AddIn("s.asset_id", []string{"a", "b"})
//	where, args := wb.BuildWithPrefix()
//	// WHERE s.run_id = ? AND s.start_time >= ? AND s.start_time < ? AND s.asset_id IN (?, ?)
//
// Nil times and empty value lists are skipped, so optional filters need no
// branching at the call site.
package query
