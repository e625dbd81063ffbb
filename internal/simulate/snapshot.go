// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/snapshot"
)

// snapshotKind labels download snapshot metrics.
const snapshotKind = "downloads"

// SnapshotKey returns the store key of the result for keepAlive.
func SnapshotKey(keepAlive time.Duration) string {
	return fmt.Sprintf("%s/%d", snapshotKind, int64(keepAlive/time.Minute))
}

// endsKeySuffix keeps results of end-instant walks apart from start-only ones.
const endsKeySuffix = "-ends"

// persisted is the stored form of one simulation result. Fingerprint is
// empty unless input verification was enabled when it was written.
type persisted struct {
	Fingerprint string                  `json:"fingerprint,omitempty"`
	Moments     []models.DownloadMoment `json:"moments"`
}

// FindOrRead returns the result for keepAlive from the store, running and
// persisting the simulation when no usable result is stored.
//
// By default a stored result is trusted as is: it is keyed by keep-alive
// only, so changed input with an old snapshot present yields the old
// result. With input verification enabled, a result whose fingerprint does
// not match sessions is recomputed.
//
// An unreadable snapshot is recomputed. A failed write is returned.
func (s *Simulator) FindOrRead(ctx context.Context, sessions []models.Session, keepAlive time.Duration) ([]models.DownloadMoment, error) {
	ctx = logging.ContextWithKeepAlive(ctx, keepAlive)
	logger := logging.Ctx(ctx)
	key := SnapshotKey(keepAlive)
	if s.walkEnds {
		key += endsKeySuffix
	}

	var fingerprint string
	if s.verifyInput {
		fingerprint = snapshot.Fingerprint(sessions)
	}

	var stored persisted
	found, err := s.store.Load(ctx, key, &stored)
	switch {
	case err != nil:
		metrics.RecordSnapshotLookup(snapshotKind, "error")
		logger.Warn().Err(err).Str("key", key).Msg("Download snapshot unreadable, recomputing")
	case found && s.verifyInput && stored.Fingerprint != fingerprint:
		metrics.RecordSnapshotLookup(snapshotKind, "stale")
		logger.Info().Str("key", key).Msg("Download snapshot computed from other input, recomputing")
	case found:
		metrics.RecordSnapshotLookup(snapshotKind, "hit")
		logger.Debug().Str("key", key).Int("moments", len(stored.Moments)).Msg("Download snapshot reused")
		metrics.RecordSimulation(keepAlive, len(stored.Moments), PeakMemory(stored.Moments))
		return stored.Moments, nil
	default:
		metrics.RecordSnapshotLookup(snapshotKind, "miss")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	moments := s.Run(sessions, keepAlive)
	peak := PeakMemory(moments)
	metrics.RecordSimulation(keepAlive, len(moments), peak)
	logger.Info().
		Int("moments", len(moments)).
		Int64("peak_memory", peak).
		Dur("elapsed", time.Since(start)).
		Msg("Download simulation finished")

	err = s.store.Save(ctx, key, persisted{Fingerprint: fingerprint, Moments: moments})
	metrics.RecordSnapshotWrite(snapshotKind, err)
	if err != nil {
		return nil, fmt.Errorf("persist download snapshot %s: %w", key, err)
	}
	return moments, nil
}
