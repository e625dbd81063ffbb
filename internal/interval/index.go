// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package interval provides an immutable index answering "which sessions are
// active at instant t".
package interval

import (
	"sort"
	"time"

	"github.com/tomtom215/vodcache/internal/models"
)

// Index is an immutable, start-time ordered snapshot of sessions.
//
// Sessions are kept sorted by StartTime descending together with D, the
// longest session duration in the set. A session active at t satisfies
// StartTime <= t < EndTime and EndTime-StartTime <= D, so its StartTime lies
// in (t-D, t]. Query only scans that window.
//
// Complexity:
//   - Build: O(n log n)
//   - Query: O(log n + w), w = sessions starting in (t-D, t]
//   - Memory: O(n)
//
// To index a different session set (for example after growing every session
// by a keep-alive), build a new Index. An Index is never mutated after Build
// and is safe for concurrent reads.
type Index struct {
	sessions    []models.Session // StartTime descending
	maxDuration time.Duration
}

// Build creates an index over a private copy of sessions.
func Build(sessions []models.Session) *Index {
	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.After(sorted[j].StartTime)
	})

	var maxDuration time.Duration
	for _, s := range sorted {
		if d := s.Duration(); d > maxDuration {
			maxDuration = d
		}
	}

	return &Index{sessions: sorted, maxDuration: maxDuration}
}

// Len returns the number of indexed sessions.
func (idx *Index) Len() int {
	return len(idx.sessions)
}

// MaxDuration returns the longest indexed session duration.
func (idx *Index) MaxDuration() time.Duration {
	return idx.maxDuration
}

// Query returns the sessions with StartTime <= t < EndTime.
// Results are ordered by StartTime descending.
func (idx *Index) Query(t time.Time) []models.Session {
	lo, hi := idx.window(t)
	var active []models.Session
	for _, s := range idx.sessions[lo:hi] {
		if s.EndTime.After(t) {
			active = append(active, s)
		}
	}
	return active
}

// Count returns len(Query(t)) without allocating.
func (idx *Index) Count(t time.Time) int {
	lo, hi := idx.window(t)
	n := 0
	for _, s := range idx.sessions[lo:hi] {
		if s.EndTime.After(t) {
			n++
		}
	}
	return n
}

// AssetsAt returns the distinct asset ids of the sessions active at t.
func (idx *Index) AssetsAt(t time.Time) models.AssetSet {
	lo, hi := idx.window(t)
	set := make(models.AssetSet)
	for _, s := range idx.sessions[lo:hi] {
		if s.EndTime.After(t) {
			set[s.AssetID] = struct{}{}
		}
	}
	return set
}

// window returns the slice bounds of the candidates with StartTime in (t-D, t].
func (idx *Index) window(t time.Time) (lo, hi int) {
	lo = idx.locate(t)
	hi = idx.locate(t.Add(-idx.maxDuration))
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// locate returns the first position whose StartTime is <= x. Sessions
// starting exactly at x are on the returned side.
func (idx *Index) locate(x time.Time) int {
	return sort.Search(len(idx.sessions), func(i int) bool {
		return !idx.sessions[i].StartTime.After(x)
	})
}
