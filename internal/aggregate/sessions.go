// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/tomtom215/vodcache/internal/interval"
	"github.com/tomtom215/vodcache/internal/models"
)

// Sizer resolves the cache footprint of a set of assets.
// *catalog.Catalog implements it.
type Sizer interface {
	TotalFilesizeSet(set models.AssetSet) int64
}

// Sample is the state of the session population at one boundary instant.
type Sample struct {
	Time     time.Time
	Sessions int
	Assets   int
	Bytes    int64
}

// DurationStats summarizes session durations. P50 and P95 are t-digest
// estimates; Max is exact.
type DurationStats struct {
	P50 time.Duration
	P95 time.Duration
	Max time.Duration
}

// SessionStats describes a session set over an analysis window.
type SessionStats struct {
	Window     models.Period
	Sessions   int
	Assets     int
	TotalBytes int64
	Durations  DurationStats

	// Samples is the step series of concurrent sessions, assets and bytes,
	// sampled at every session start or end inside Window.
	Samples []Sample
}

// AssetSample is the number of sessions of one asset active at Time.
type AssetSample struct {
	Time     time.Time
	Sessions int
}

// AssetStats describes the sessions of a single asset over a window.
type AssetStats struct {
	AssetID  string
	Window   models.Period
	Sessions int
	Samples  []AssetSample
}

// DayStats describes one calendar day.
type DayStats struct {
	Day models.Period

	// SessionsStarted and AssetsStarted count the sessions starting on the
	// day and their distinct assets (sorted).
	SessionsStarted int
	AssetsStarted   []string

	// Sessions covers every session touching the day.
	Sessions SessionStats

	// Assets holds one entry per asset in AssetsStarted, in the same order.
	Assets []AssetStats
}

// AnalyseSessions computes SessionStats of sessions over window. Counts and
// total bytes cover all of sessions; samples are taken inside window only.
func AnalyseSessions(sessions []models.Session, window models.Period, sizes Sizer) SessionStats {
	assets := models.NewAssetSet(models.DistinctIDs(sessions)...)
	stats := SessionStats{
		Window:     window,
		Sessions:   len(sessions),
		Assets:     len(assets),
		TotalBytes: sizes.TotalFilesizeSet(assets),
		Durations:  durationStats(sessions),
	}

	idx := interval.Build(sessions)
	for _, t := range boundaries(sessions, window) {
		active := idx.AssetsAt(t)
		stats.Samples = append(stats.Samples, Sample{
			Time:     t,
			Sessions: idx.Count(t),
			Assets:   len(active),
			Bytes:    sizes.TotalFilesizeSet(active),
		})
	}
	return stats
}

// AnalyseAsset computes AssetStats for the sessions of assetID (compared
// case-insensitively) over window.
func AnalyseAsset(sessions []models.Session, window models.Period, assetID string) AssetStats {
	var own []models.Session
	for _, s := range sessions {
		if strings.EqualFold(s.AssetID, assetID) {
			own = append(own, s)
		}
	}

	stats := AssetStats{AssetID: assetID, Window: window, Sessions: len(own)}
	idx := interval.Build(own)
	for _, t := range boundaries(own, window) {
		stats.Samples = append(stats.Samples, AssetSample{Time: t, Sessions: idx.Count(t)})
	}
	return stats
}

// AnalyseDay computes the statistics of one calendar day.
func AnalyseDay(sessions []models.Session, day models.Period, sizes Sizer) DayStats {
	var touching []models.Session
	started := make(models.AssetSet)
	stats := DayStats{Day: day}
	for _, s := range sessions {
		if !s.Intersects(day) {
			continue
		}
		touching = append(touching, s)
		if day.Contains(s.StartTime) {
			stats.SessionsStarted++
			started[s.AssetID] = struct{}{}
		}
	}

	stats.AssetsStarted = started.Sorted()
	stats.Sessions = AnalyseSessions(touching, day, sizes)
	for _, id := range stats.AssetsStarted {
		stats.Assets = append(stats.Assets, AnalyseAsset(touching, day, id))
	}
	return stats
}

// boundaries returns the distinct session starts and ends inside window,
// in increasing order.
func boundaries(sessions []models.Session, window models.Period) []time.Time {
	seen := make(map[int64]struct{}, 2*len(sessions))
	var out []time.Time
	add := func(t time.Time) {
		if !window.Contains(t) {
			return
		}
		key := t.UnixNano()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, s := range sessions {
		add(s.StartTime)
		add(s.EndTime)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// durationStats estimates duration percentiles with a t-digest.
func durationStats(sessions []models.Session) DurationStats {
	if len(sessions) == 0 {
		return DurationStats{}
	}
	td := tdigest.NewWithCompression(100)
	var longest time.Duration
	for _, s := range sessions {
		d := s.Duration()
		td.Add(d.Seconds(), 1)
		if d > longest {
			longest = d
		}
	}
	return DurationStats{
		P50: secondsToDuration(td.Quantile(0.5)),
		P95: secondsToDuration(td.Quantile(0.95)),
		Max: longest,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Second)
}
