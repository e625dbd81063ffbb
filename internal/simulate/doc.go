// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package simulate replays viewing sessions against an idealized cache and
// reports when each asset has to be downloaded into it.
//
// The cache keeps an asset while any session of it is active, extended by
// a keep-alive. Each time an asset enters that working set a
// models.DownloadMoment is emitted with the total size of the working set at
// that instant. Moments of restart-TV assets that were still being recorded
// are marked as live ingest.
//
// Usage:
//
//	sim := simulate.New(cat,
//	    simulate.WithWindow(cfg.Simulate.Window),
//	    simulate.WithStore(store),
//	)
//	moments, err := sim.FindOrRead(ctx, sessions, 3*time.Hour)
//
// Results are persisted per keep-alive under "downloads/<minutes>".
package simulate
