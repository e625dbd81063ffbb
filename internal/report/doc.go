// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package report renders analysis results as text files.

The output tree of a run:

	<output>/SessionAnalysis.txt                      full period
	<output>/<yyyy-mm-dd>/SessionAnalysis.txt         one per full day
	<output>/<yyyy-mm-dd>/SessionAnalysis_<asset>.txt one per asset started that day
	<output>/MemoryAnalysis.txt                       keep-alive sweep
	<output>/ConcurrentBitrates_<minutes>.txt         concurrent downloads, TSV
	<output>/CapacityAnalysis.txt                     fixed-size cache replay

Sizes are integer binary units: Gb is bytes / 2^30 and Mb is bytes / 2^20.
Durations are written as [d.]hh:mm:ss. Timestamps are local wall-clock
times in the run's location.

The line builders are pure; Writer owns the file system. A file that fails
to write is removed rather than left truncated.
*/
package report
