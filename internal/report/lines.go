// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package report

import (
	"fmt"
	"time"

	"github.com/tomtom215/vodcache/internal/aggregate"
	"github.com/tomtom215/vodcache/internal/capacity"
)

// SessionLines renders session statistics. A sample with no active session
// is followed by an empty line, separating bursts of activity.
func SessionLines(stats aggregate.SessionStats, loc *time.Location) []string {
	lines := make([]string, 0, len(stats.Samples)+4)
	lines = append(lines,
		fmt.Sprintf("Period: %s-%s", Timestamp(stats.Window.Start, loc), Timestamp(stats.Window.End, loc)),
		fmt.Sprintf("%d Sessions", stats.Sessions),
		fmt.Sprintf("%d Assets, total %d Gb", stats.Assets, Gb(stats.TotalBytes)),
	)
	if stats.Sessions > 0 {
		lines = append(lines, fmt.Sprintf("Session duration: median %s, 95th percentile %s, longest %s",
			Span(stats.Durations.P50), Span(stats.Durations.P95), Span(stats.Durations.Max)))
	}

	for _, s := range stats.Samples {
		lines = append(lines, fmt.Sprintf("At %s, %d sessions for %d assets (%d Gb)",
			Timestamp(s.Time, loc), s.Sessions, s.Assets, Gb(s.Bytes)))
		if s.Sessions == 0 {
			lines = append(lines, "")
		}
	}
	return lines
}

// AssetLines renders the statistics of one asset.
func AssetLines(stats aggregate.AssetStats, loc *time.Location) []string {
	lines := make([]string, 0, len(stats.Samples)+2)
	lines = append(lines,
		fmt.Sprintf("Asset: %s", stats.AssetID),
		fmt.Sprintf("%d Sessions", stats.Sessions),
	)
	for _, s := range stats.Samples {
		lines = append(lines, fmt.Sprintf("At %s, %d sessions", Timestamp(s.Time, loc), s.Sessions))
		if s.Sessions == 0 {
			lines = append(lines, "")
		}
	}
	return lines
}

// DownloadLines renders the statistics of one keep-alive value. Bucket and
// concurrency lines are omitted when there are no downloads.
func DownloadLines(stats aggregate.DownloadStats, loc *time.Location) []string {
	lines := []string{
		fmt.Sprintf("Analysis of download times for a keepalive time of %s", Span(stats.KeepAlive)),
		fmt.Sprintf("Peak memory use: %d Gb", Gb(stats.PeakMemory)),
		fmt.Sprintf("%d downloads or live ingests", stats.Moments),
		fmt.Sprintf("%d downloads", stats.Downloads),
	}
	if stats.Downloads == 0 {
		return lines
	}

	for _, b := range stats.Buckets {
		lines = append(lines,
			fmt.Sprintf("Max downloads in period of %s: %d", Span(b.Width), b.MaxDownloads),
			fmt.Sprintf("Max downloaded Mb in period of %s: %d", Span(b.Width), Mb(b.MaxBytes)),
		)
	}
	peak := stats.Concurrent.Peak
	lines = append(lines, fmt.Sprintf("Max concurrent downloads: %d (%d Mbps) at %s",
		peak.Downloads, peak.Mbps, Timestamp(peak.Time, loc)))
	return lines
}

// MemoryLines renders a keep-alive sweep, one block per value, each block
// followed by an empty line.
func MemoryLines(sweep []aggregate.DownloadStats, loc *time.Location) []string {
	var lines []string
	for _, stats := range sweep {
		lines = append(lines, DownloadLines(stats, loc)...)
		lines = append(lines, "")
	}
	return lines
}

// CapacityLines renders fixed-size cache replays.
func CapacityLines(results []capacity.Result) []string {
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, "Replay of session starts against an LRU cache of fixed size")
	for _, r := range results {
		lines = append(lines, fmt.Sprintf(
			"Cache of %d Gb: %d of %d session starts hit (%.1f%%), %d misses, %d evictions, %d too large, %d Mb fetched",
			Gb(r.CapacityBytes), r.Hits, r.Requests, 100*r.HitRatio(), r.Misses, r.Evictions, r.Bypassed, Mb(r.BytesFetched)))
	}
	return lines
}
