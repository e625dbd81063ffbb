// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package vodusage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
)

// SnapshotKey is the store key of the parsed sessions.
const SnapshotKey = "sessions"

type persisted struct {
	Dir      string           `json:"dir"`
	Stats    Stats            `json:"stats"`
	Sessions []models.Session `json:"sessions"`
}

// FindOrRead returns the sessions of dir from the store, reading and
// persisting the folder when nothing usable is stored. A stored snapshot of
// another folder is ignored. Stored sessions are filtered again with the
// reader's plausibility limit and converted to its location.
func (r *Reader) FindOrRead(ctx context.Context, dir string) ([]models.Session, Stats, error) {
	logger := logging.Ctx(ctx)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("resolve usage folder: %w", err)
	}

	var stored persisted
	found, err := r.store.Load(ctx, SnapshotKey, &stored)
	switch {
	case err != nil:
		metrics.RecordSnapshotLookup(SnapshotKey, "error")
		logger.Warn().Err(err).Msg("Session snapshot unreadable, reading usage folder")
	case found && stored.Dir != abs:
		metrics.RecordSnapshotLookup(SnapshotKey, "stale")
		logger.Info().Str("snapshot_dir", stored.Dir).Msg("Session snapshot belongs to another folder, reading usage folder")
	case found:
		metrics.RecordSnapshotLookup(SnapshotKey, "hit")
		sessions, dropped := FilterPlausible(stored.Sessions, r.maxDuration)
		for i := range sessions {
			sessions[i].StartTime = sessions[i].StartTime.In(r.loc)
			sessions[i].EndTime = sessions[i].EndTime.In(r.loc)
		}
		stats := stored.Stats
		stats.Accepted -= dropped
		stats.Corrupt += dropped
		logger.Info().Int("sessions", len(sessions)).Msg("Session snapshot loaded")
		return sessions, stats, nil
	default:
		metrics.RecordSnapshotLookup(SnapshotKey, "miss")
	}

	sessions, stats, err := r.ReadFolder(ctx, abs)
	if err != nil {
		return nil, stats, err
	}
	logger.Info().
		Int("files", stats.Files).
		Int("sessions", stats.Accepted).
		Int("corrupt", stats.Corrupt).
		Msg("Usage folder read")

	err = r.store.Save(ctx, SnapshotKey, persisted{Dir: abs, Stats: stats, Sessions: sessions})
	metrics.RecordSnapshotWrite(SnapshotKey, err)
	if err != nil {
		return nil, stats, fmt.Errorf("persist session snapshot: %w", err)
	}
	return sessions, stats, nil
}
