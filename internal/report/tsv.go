// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tomtom215/vodcache/internal/aggregate"
)

// ConcurrentHeader is the header row of the concurrent download export.
const ConcurrentHeader = "ExcelTime\tTime\tDownloads\tBitrate"

// WriteConcurrentTSV writes series as tab separated rows of spreadsheet
// serial date, timestamp, download count and Mbps, preceded by
// ConcurrentHeader.
func WriteConcurrentTSV(w io.Writer, series aggregate.ConcurrentSeries, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, ConcurrentHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range series.Samples {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%d\t%d\n",
			strconv.FormatFloat(ExcelDays(s.Time, loc), 'f', -1, 64),
			Timestamp(s.Time, loc), s.Downloads, s.Mbps)
		if err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush concurrent downloads: %w", err)
	}
	return nil
}
