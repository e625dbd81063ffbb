// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package models

import (
	"fmt"
	"time"
)

// Period is a half-open time interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Contains reports whether Start <= t < End.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Intersects reports whether the two half-open intervals overlap.
// Periods that only touch (a.End == b.Start) do not intersect.
func (p Period) Intersects(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

// String formats the period for report headers.
func (p Period) String() string {
	return fmt.Sprintf("%s-%s", p.Start.Format(ReportTimeLayout), p.End.Format(ReportTimeLayout))
}

// DayOf returns the calendar day in loc that contains t.
func DayOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

// ReportTimeLayout is the timestamp format used in text reports and exports.
const ReportTimeLayout = "2006-01-02 15:04:05"
