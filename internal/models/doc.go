// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package models defines the value types shared by every VODCache component.

Key Components:

  - Session: one finished viewing session of an asset, [StartTime, EndTime)
  - Asset: content metadata that determines storage size (bitrate, duration)
  - Period: half-open analysis window, also used for grown session spans
  - DownloadMoment: a simulated cache fill, emitted when an asset enters the
    working set
  - AssetSet: a set of asset ids (the working set at an instant)

Values are created once (sessions by the log reader, assets by the catalog)
and treated as immutable afterwards. Operations that "change" a value, such
as Session.Grow, return a new value.

# Units

Bitrates are bits per second, durations of assets are whole seconds and
sizes are bytes. Report helpers use binary prefixes for storage (1 GB =
2^30 bytes) and the same 2^20 divisor the capacity reports have always used
for Mbps, so numbers stay comparable with earlier runs:

	Filesize (bytes) = Duration (s) × Bitrate (bps) / 8
	Transfer time (s) = Filesize × 8 / DownloadBitrate
*/
package models
