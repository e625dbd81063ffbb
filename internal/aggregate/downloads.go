// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package aggregate

import (
	"sort"
	"time"

	"github.com/tomtom215/vodcache/internal/models"
)

// DefaultBucketWidths are the bucket widths reported when none are configured.
var DefaultBucketWidths = []time.Duration{time.Minute, time.Hour}

// edgeProbe is the offset around download starts and ends at which the
// concurrent download count is also sampled.
const edgeProbe = time.Second

// BucketPeak is the busiest fixed-width bucket of download moments.
type BucketPeak struct {
	Width        time.Duration
	MaxDownloads int
	MaxBytes     int64
}

// ConcurrentSample is the number of transfers in progress at Time and the
// bandwidth they imply.
type ConcurrentSample struct {
	Time      time.Time
	Downloads int
	Mbps      int64
}

// ConcurrentSeries is the concurrent download count over time.
type ConcurrentSeries struct {
	Bitrate int64
	Samples []ConcurrentSample

	// Peak is the earliest sample with the highest count.
	Peak ConcurrentSample
}

// DownloadStats summarizes one simulation result.
type DownloadStats struct {
	KeepAlive  time.Duration
	PeakMemory int64

	// Moments counts every moment; Downloads excludes live ingests.
	Moments   int
	Downloads int

	// First and Last are the times of the first and last download.
	First time.Time
	Last  time.Time

	Buckets    []BucketPeak
	Concurrent ConcurrentSeries
}

// PeakPerBucket partitions [first, last] into buckets
// [first+k*width, first+(k+1)*width) and returns the largest number of
// moments and the largest sum of their filesizes found in one bucket.
// Moments outside [first, last] are ignored.
func PeakPerBucket(moments []models.DownloadMoment, first, last time.Time, width time.Duration) BucketPeak {
	peak := BucketPeak{Width: width}
	if width <= 0 {
		return peak
	}

	type bucket struct {
		downloads int
		bytes     int64
	}
	buckets := make(map[int64]*bucket)
	for _, m := range moments {
		if m.Time.Before(first) || m.Time.After(last) {
			continue
		}
		k := int64(m.Time.Sub(first) / width)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.downloads++
		b.bytes += m.Filesize
	}

	for _, b := range buckets {
		if b.downloads > peak.MaxDownloads {
			peak.MaxDownloads = b.downloads
		}
		if b.bytes > peak.MaxBytes {
			peak.MaxBytes = b.bytes
		}
	}
	return peak
}

// ConcurrentDownloads models every moment as a transfer at bitrate from
// Time to EndTime(bitrate) and counts the transfers in progress around
// every transfer start and end at or after from.
//
// Each probe is answered by binary search over the sorted transfer starts
// and ends: the transfers in progress at t are those started at or before t
// minus those that ended at or before t.
func ConcurrentDownloads(moments []models.DownloadMoment, from time.Time, bitrate int64) ConcurrentSeries {
	series := ConcurrentSeries{Bitrate: bitrate}
	if len(moments) == 0 {
		return series
	}

	starts := make([]time.Time, len(moments))
	ends := make([]time.Time, len(moments))
	probes := make([]time.Time, 0, 4*len(moments))
	for i, m := range moments {
		starts[i] = m.Time
		ends[i] = m.EndTime(bitrate)
		probes = append(probes, starts[i], ends[i], starts[i].Add(-edgeProbe), ends[i].Add(edgeProbe))
	}
	sortTimes(starts)
	sortTimes(ends)
	sortTimes(probes)

	var last time.Time
	for i, t := range probes {
		if t.Before(from) || (i > 0 && t.Equal(last)) {
			continue
		}
		last = t

		n := countAtOrBefore(starts, t) - countAtOrBefore(ends, t)
		sample := ConcurrentSample{Time: t, Downloads: n, Mbps: models.BitrateMbps(n, bitrate)}
		series.Samples = append(series.Samples, sample)
		if len(series.Samples) == 1 || n > series.Peak.Downloads {
			series.Peak = sample
		}
	}
	return series
}

// AnalyseDownloads computes the statistics of one simulation result. Peak
// memory covers every moment; bucket peaks and concurrent transfers only
// cover downloads (live ingests excluded).
func AnalyseDownloads(moments []models.DownloadMoment, keepAlive time.Duration, widths []time.Duration, bitrate int64) DownloadStats {
	stats := DownloadStats{KeepAlive: keepAlive, Moments: len(moments)}

	downloads := make([]models.DownloadMoment, 0, len(moments))
	for _, m := range moments {
		if m.TotalMemoryInUse > stats.PeakMemory {
			stats.PeakMemory = m.TotalMemoryInUse
		}
		if !m.LiveIngest {
			downloads = append(downloads, m)
		}
	}
	stats.Downloads = len(downloads)
	if len(downloads) == 0 {
		return stats
	}

	// Moments are in time order, as emitted by the simulator.
	stats.First = downloads[0].Time
	stats.Last = downloads[len(downloads)-1].Time

	if len(widths) == 0 {
		widths = DefaultBucketWidths
	}
	for _, w := range widths {
		stats.Buckets = append(stats.Buckets, PeakPerBucket(downloads, stats.First, stats.Last, w))
	}
	stats.Concurrent = ConcurrentDownloads(downloads, stats.First, bitrate)
	return stats
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}

// countAtOrBefore returns the number of entries of sorted ts that are <= t.
func countAtOrBefore(ts []time.Time, t time.Time) int {
	return sort.Search(len(ts), func(i int) bool { return ts[i].After(t) })
}
