// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package aggregate reduces sessions and simulated download moments to
// statistics over analysis windows.
//
// Windows:
//   - FullPeriod: the complete part of the capture range
//   - FullDays: whole calendar days, first and last day excluded
//   - per asset: sessions of one asset within a day
//
// Session statistics are sampled only at session starts and ends, where the
// step functions they describe change value. Download statistics report the
// busiest fixed-width buckets (1 minute and 1 hour by default) and the
// number of simultaneous transfers at a synthetic download bitrate.
//
// All functions are pure and single-threaded.
package aggregate
