// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package report

import (
	"fmt"
	"time"

	"github.com/tomtom215/vodcache/internal/models"
)

// Gb returns bytes in whole binary gigabytes.
func Gb(bytes int64) int64 {
	return bytes / models.GB
}

// Mb returns bytes in whole binary megabytes.
func Mb(bytes int64) int64 {
	return bytes / models.MB
}

// Span formats d as [-][d.]hh:mm:ss, truncated to the second.
func Span(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	h := secs % 86400 / 3600
	m := secs % 3600 / 60
	s := secs % 60
	if days > 0 {
		return fmt.Sprintf("%s%d.%02d:%02d:%02d", sign, days, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// Timestamp formats t in loc with models.ReportTimeLayout.
func Timestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(models.ReportTimeLayout)
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ExcelDays returns the wall-clock time of t in loc as a spreadsheet serial
// date: fractional days since 1899-12-30.
func ExcelDays(t time.Time, loc *time.Location) float64 {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	wall := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), time.UTC)
	return wall.Sub(excelEpoch).Hours() / 24
}
