// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package models

import (
	"time"
)

// MaxPlausibleDuration is the longest session duration accepted from the logs.
// Longer sessions are treated as corrupt and dropped before any indexing.
const MaxPlausibleDuration = 6 * time.Hour

// Session is one finished viewing session of an asset.
//
// The session is active on [StartTime, EndTime). Sessions come from the
// usage logs and are never modified; Grow returns a copy.
type Session struct {
	AssetID   string    `json:"asset_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// Duration returns EndTime - StartTime.
func (s Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Period returns the span of the session.
func (s Session) Period() Period {
	return Period{Start: s.StartTime, End: s.EndTime}
}

// ActiveAt reports whether StartTime <= t < EndTime.
func (s Session) ActiveAt(t time.Time) bool {
	return s.Period().Contains(t)
}

// Intersects reports whether the session overlaps p.
func (s Session) Intersects(p Period) bool {
	return s.Period().Intersects(p)
}

// Grow returns a copy of the session whose EndTime is extended by keepAlive.
func (s Session) Grow(keepAlive time.Duration) Session {
	return Session{
		AssetID:   s.AssetID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime.Add(keepAlive),
	}
}

// Plausible reports whether the session has a positive duration that does
// not exceed maxDuration.
func (s Session) Plausible(maxDuration time.Duration) bool {
	d := s.Duration()
	return d > 0 && d <= maxDuration
}

// GrowAll returns a new slice with every session grown by keepAlive.
func GrowAll(sessions []Session, keepAlive time.Duration) []Session {
	grown := make([]Session, len(sessions))
	for i, s := range sessions {
		grown[i] = s.Grow(keepAlive)
	}
	return grown
}
