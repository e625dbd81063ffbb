// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package pipeline runs one complete analysis.

Phases, in order:

 1. read: parse the usage folder (or load the session snapshot)
 2. catalog: resolve metadata of every asset seen (snapshot, then Traxis)
 3. sessions: full-period session analysis
 4. days: per-day and per-asset session analysis
 5. downloads: keep-alive sweep through the download simulator
 6. capacity: fixed-size LRU cache replay (optional)
 7. export: DuckDB export (optional)

Every log line of a run carries the run's correlation id and the current
phase. Phase durations are recorded as metrics; when a textfile is
configured, metrics are written there when the run ends, failed or not.

Only the catalog phase is concurrent. A cancelled context stops the run at
the next phase or keep-alive boundary, or inside a catalog fetch.
*/
package pipeline
