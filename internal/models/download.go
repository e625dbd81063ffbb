// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package models

import (
	"time"
)

// DefaultDownloadBitrate is the synthetic transfer rate (bps) used to model
// how long filling the cache with one asset takes.
const DefaultDownloadBitrate int64 = 20_000_000

// DownloadMoment marks an asset entering the simulated cache working set.
//
// Filesize is resolved when the moment is emitted so that a persisted
// moment carries everything the aggregations need.
type DownloadMoment struct {
	Time             time.Time `json:"time"`
	Asset            Asset     `json:"asset"`
	Filesize         int64     `json:"filesize"`
	TotalMemoryInUse int64     `json:"total_memory_in_use"`

	// LiveIngest is set when the asset was still being recorded at Time.
	// Live ingests count toward occupancy but not toward download volume.
	LiveIngest bool `json:"live_ingest"`
}

// TransferDuration is the synthetic time needed to fetch the asset at bitrate.
func (d DownloadMoment) TransferDuration(bitrate int64) time.Duration {
	if bitrate <= 0 {
		return 0
	}
	seconds := float64(d.Filesize) * 8.0 / float64(bitrate)
	return time.Duration(seconds * float64(time.Second))
}

// EndTime returns Time + TransferDuration(bitrate).
func (d DownloadMoment) EndTime(bitrate int64) time.Time {
	return d.Time.Add(d.TransferDuration(bitrate))
}

// Storage unit divisors used by reports.
const (
	MB int64 = 1024 * 1024
	GB int64 = 1024 * 1024 * 1024
)

// BitrateMbps converts a number of concurrent transfers at bitrate into the
// Mbps figure printed in reports.
func BitrateMbps(transfers int, bitrate int64) int64 {
	return int64(transfers) * bitrate / MB
}
