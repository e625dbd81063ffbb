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

// FullPeriod returns the part of the capture range in which the log is
// complete: from the earliest session end (sessions that started before the
// capture ended inside it) up to the latest session end minus margin
// (sessions still running at capture end are missing from the log).
//
// The result is the zero Period for an empty session set; it is empty
// (End <= Start) when the capture is shorter than margin.
func FullPeriod(sessions []models.Session, margin time.Duration) models.Period {
	if len(sessions) == 0 {
		return models.Period{}
	}
	first, last := sessions[0].EndTime, sessions[0].EndTime
	for _, s := range sessions[1:] {
		if s.EndTime.Before(first) {
			first = s.EndTime
		}
		if s.EndTime.After(last) {
			last = s.EndTime
		}
	}
	return models.Period{Start: first, End: last.Add(-margin)}
}

// FullDays returns one Period per calendar day in loc touched by any session
// start or end, except the first and the last day, which the capture only
// covers partially. Days are returned in increasing order.
func FullDays(sessions []models.Session, loc *time.Location) []models.Period {
	if loc == nil {
		loc = time.Local
	}

	seen := make(map[time.Time]struct{})
	var days []models.Period
	add := func(t time.Time) {
		day := models.DayOf(t, loc)
		if _, ok := seen[day.Start]; ok {
			return
		}
		seen[day.Start] = struct{}{}
		days = append(days, day)
	}
	for _, s := range sessions {
		add(s.StartTime)
		add(s.EndTime)
	}

	if len(days) <= 2 {
		return nil
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Start.Before(days[j].Start) })
	return days[1 : len(days)-1]
}
