// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package models

import (
	"sort"
	"time"
)

// Asset holds the catalog metadata that determines how much cache space a
// piece of content needs.
//
// An asset whose metadata could not be fetched is a placeholder: only ID is
// set, and its size falls back to the catalog-wide average.
type Asset struct {
	ID       string `json:"id" validate:"required"`
	Bitrate  int64  `json:"bitrate" validate:"gte=0"`  // bits per second
	Duration int64  `json:"duration" validate:"gte=0"` // seconds

	// RecordingStart is only present for restart-TV (catch-up) assets that
	// were recorded from a live broadcast.
	RecordingStart *time.Time `json:"recording_start,omitempty"`
}

// RestartTV reports whether the asset was recorded from a live broadcast.
func (a Asset) RestartTV() bool {
	return a.RecordingStart != nil
}

// KnownFilesize returns Duration*Bitrate/8 when both are positive.
func (a Asset) KnownFilesize() (int64, bool) {
	if a.Duration > 0 && a.Bitrate > 0 {
		return a.Duration * a.Bitrate / 8, true
	}
	return 0, false
}

// Filesize returns the derived size, or fallback when the size is unknown.
func (a Asset) Filesize(fallback int64) int64 {
	if size, ok := a.KnownFilesize(); ok {
		return size
	}
	return fallback
}

// LiveIngestMargin is how long before RecordingStart a restart-TV asset is
// already considered to be recording.
const LiveIngestMargin = 5 * time.Minute

// LiveAt reports whether a restart-TV asset is still being recorded live at
// t, i.e. t is in [RecordingStart-5m, RecordingStart+Duration).
func (a Asset) LiveAt(t time.Time) bool {
	if !a.RestartTV() {
		return false
	}
	recStart := a.RecordingStart.Add(-LiveIngestMargin)
	recEnd := a.RecordingStart.Add(time.Duration(a.Duration) * time.Second)
	return !t.Before(recStart) && t.Before(recEnd)
}

// AssetSet is a set of asset ids.
type AssetSet map[string]struct{}

// NewAssetSet builds a set from ids.
func NewAssetSet(ids ...string) AssetSet {
	set := make(AssetSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set.
func (s AssetSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Minus returns the ids in s that are not in other, sorted.
func (s AssetSet) Minus(other AssetSet) []string {
	var out []string
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the ids in ascending order.
func (s AssetSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DistinctIDs returns the distinct asset ids of sessions, sorted.
func DistinctIDs(sessions []Session) []string {
	set := make(AssetSet)
	for _, s := range sessions {
		set[s.AssetID] = struct{}{}
	}
	return set.Sorted()
}
