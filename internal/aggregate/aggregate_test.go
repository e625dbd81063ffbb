// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package aggregate

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/vodcache/internal/catalog"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/simulate"
)

var base = time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func session(id string, start, end time.Time) models.Session {
	return models.Session{AssetID: id, StartTime: start, EndTime: end}
}

// fixedSizes sizes assets from a map; unknown assets have size 0.
type fixedSizes map[string]int64

func (f fixedSizes) TotalFilesizeSet(set models.AssetSet) int64 {
	var total int64
	for id := range set {
		total += f[id]
	}
	return total
}

var sizes = fixedSizes{"X": 100, "Y": 50}

// ===================================================================================================
// Windows
// ===================================================================================================

func TestFullPeriod(t *testing.T) {
	sessions := []models.Session{
		session("X", at(10, 0), at(12, 0)),
		session("Y", at(9, 0), at(10, 30)),
		session("X", at(19, 0), at(20, 0)),
	}

	got := FullPeriod(sessions, 6*time.Hour)
	want := models.Period{Start: at(10, 30), End: at(14, 0)}
	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Errorf("FullPeriod() = %v, want %v", got, want)
	}

	if got := FullPeriod(nil, time.Hour); !got.Start.IsZero() || !got.End.IsZero() {
		t.Errorf("FullPeriod(nil) = %v, want zero", got)
	}
}

func TestFullDays(t *testing.T) {
	tests := []struct {
		name     string
		sessions []models.Session
		loc      *time.Location
		want     []time.Time
	}{
		{
			name: "first and last day dropped",
			sessions: []models.Session{
				session("X", at(22, 0), at(23, 0)),
				session("X", at(30, 0), at(31, 0)),
				session("Y", at(50, 0), at(51, 0)),
				session("Y", at(80, 0), at(81, 0)),
			},
			loc:  time.UTC,
			want: []time.Time{at(24, 0), at(48, 0)},
		},
		{
			name: "two days only",
			sessions: []models.Session{
				session("X", at(22, 0), at(23, 0)),
				session("X", at(30, 0), at(31, 0)),
			},
			loc:  time.UTC,
			want: nil,
		},
		{
			name: "session ends count",
			sessions: []models.Session{
				session("X", at(23, 0), at(25, 0)),
				session("X", at(47, 0), at(49, 0)),
			},
			loc:  time.UTC,
			want: []time.Time{at(24, 0)},
		},
		{
			// 22:30 UTC is 00:30 the next day at UTC+2.
			name: "calendar days in local zone",
			sessions: []models.Session{
				session("X", at(10, 0), at(11, 0)),
				session("X", at(22, 30), at(23, 0)),
				session("X", at(46, 30), at(47, 0)),
			},
			loc:  time.FixedZone("UTC+2", 2*60*60),
			want: []time.Time{at(22, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FullDays(tt.sessions, tt.loc)
			if len(got) != len(tt.want) {
				t.Fatalf("FullDays() = %v, want starts %v", got, tt.want)
			}
			for i, day := range got {
				if !day.Start.Equal(tt.want[i]) || day.Duration() != 24*time.Hour {
					t.Errorf("day %d = %v, want start %v", i, day, tt.want[i])
				}
			}
		})
	}
}

// ===================================================================================================
// Session statistics
// ===================================================================================================

func TestAnalyseSessions(t *testing.T) {
	sessions := []models.Session{
		session("X", at(10, 0), at(10, 30)),
		session("X", at(10, 15), at(10, 45)),
		session("Y", at(10, 40), at(11, 0)),
	}
	window := models.Period{Start: at(10, 0), End: at(11, 0)}

	got := AnalyseSessions(sessions, window, sizes)

	if got.Sessions != 3 || got.Assets != 2 || got.TotalBytes != 150 {
		t.Errorf("Sessions, Assets, TotalBytes = %d, %d, %d, want 3, 2, 150", got.Sessions, got.Assets, got.TotalBytes)
	}
	if got.Durations.Max != 30*time.Minute {
		t.Errorf("Durations.Max = %v, want 30m", got.Durations.Max)
	}

	// 11:00 lies outside the half-open window.
	want := []Sample{
		{Time: at(10, 0), Sessions: 1, Assets: 1, Bytes: 100},
		{Time: at(10, 15), Sessions: 2, Assets: 1, Bytes: 100},
		{Time: at(10, 30), Sessions: 1, Assets: 1, Bytes: 100},
		{Time: at(10, 40), Sessions: 2, Assets: 2, Bytes: 150},
		{Time: at(10, 45), Sessions: 1, Assets: 1, Bytes: 50},
	}
	if !reflect.DeepEqual(got.Samples, want) {
		t.Errorf("Samples = %+v\nwant %+v", got.Samples, want)
	}
}

func TestAnalyseSessionsDurationPercentiles(t *testing.T) {
	var sessions []models.Session
	for i := 1; i <= 100; i++ {
		start := at(0, i)
		sessions = append(sessions, session("X", start, start.Add(time.Duration(i)*time.Minute)))
	}

	got := AnalyseSessions(sessions, models.Period{}, sizes).Durations

	if got.Max != 100*time.Minute {
		t.Errorf("Max = %v, want 100m", got.Max)
	}
	if got.P50 < 48*time.Minute || got.P50 > 53*time.Minute {
		t.Errorf("P50 = %v, want about 50m", got.P50)
	}
	if got.P95 < 92*time.Minute || got.P95 > 98*time.Minute {
		t.Errorf("P95 = %v, want about 95m", got.P95)
	}
}

func TestAnalyseSessionsEmpty(t *testing.T) {
	got := AnalyseSessions(nil, models.Period{Start: at(0, 0), End: at(24, 0)}, sizes)
	if got.Sessions != 0 || got.Assets != 0 || len(got.Samples) != 0 || got.Durations != (DurationStats{}) {
		t.Errorf("AnalyseSessions(nil) = %+v, want empty", got)
	}
}

func TestAnalyseAsset(t *testing.T) {
	sessions := []models.Session{
		session("abc", at(10, 0), at(10, 30)),
		session("ABC", at(10, 10), at(10, 20)),
		session("other", at(10, 5), at(10, 50)),
	}
	window := models.Period{Start: at(10, 0), End: at(11, 0)}

	got := AnalyseAsset(sessions, window, "Abc")

	if got.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", got.Sessions)
	}
	want := []AssetSample{
		{Time: at(10, 0), Sessions: 1},
		{Time: at(10, 10), Sessions: 2},
		{Time: at(10, 20), Sessions: 1},
		{Time: at(10, 30), Sessions: 0},
	}
	if !reflect.DeepEqual(got.Samples, want) {
		t.Errorf("Samples = %+v, want %+v", got.Samples, want)
	}
}

func TestAnalyseDay(t *testing.T) {
	day := models.DayOf(at(12, 0), time.UTC)
	sessions := []models.Session{
		session("Z", at(-1, 0), at(0, 30)), // touches the day, started the day before
		session("Y", at(10, 5), at(10, 40)),
		session("X", at(10, 0), at(10, 30)),
		session("X", at(11, 0), at(11, 30)),
		session("W", at(30, 0), at(30, 30)), // next day
	}

	got := AnalyseDay(sessions, day, sizes)

	if got.SessionsStarted != 3 {
		t.Errorf("SessionsStarted = %d, want 3", got.SessionsStarted)
	}
	if want := []string{"X", "Y"}; !reflect.DeepEqual(got.AssetsStarted, want) {
		t.Errorf("AssetsStarted = %v, want %v", got.AssetsStarted, want)
	}
	if got.Sessions.Sessions != 4 {
		t.Errorf("Sessions.Sessions = %d, want 4 (touching the day)", got.Sessions.Sessions)
	}
	if len(got.Assets) != 2 || got.Assets[0].AssetID != "X" || got.Assets[0].Sessions != 2 {
		t.Errorf("Assets = %+v", got.Assets)
	}
}

// ===================================================================================================
// Download statistics
// ===================================================================================================

func moment(t time.Time, id string, size int64) models.DownloadMoment {
	return models.DownloadMoment{Time: t, Asset: models.Asset{ID: id}, Filesize: size}
}

func TestPeakPerBucket(t *testing.T) {
	moments := []models.DownloadMoment{
		moment(at(10, 0), "A", 10),
		moment(at(10, 0).Add(20*time.Second), "B", 20),
		moment(at(10, 0).Add(40*time.Second), "C", 30),
		moment(at(10, 30), "D", 100),
		moment(at(12, 0), "E", 1),
	}
	first, last := at(10, 0), at(12, 0)

	tests := []struct {
		width         time.Duration
		wantDownloads int
		wantBytes     int64
	}{
		{time.Minute, 3, 100},
		{time.Hour, 4, 160},
		{3 * time.Hour, 5, 161},
		{0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.width.String(), func(t *testing.T) {
			got := PeakPerBucket(moments, first, last, tt.width)
			if got.Width != tt.width || got.MaxDownloads != tt.wantDownloads || got.MaxBytes != tt.wantBytes {
				t.Errorf("PeakPerBucket() = %+v, want %d downloads, %d bytes", got, tt.wantDownloads, tt.wantBytes)
			}
		})
	}
}

func TestPeakPerBucketIncludesLast(t *testing.T) {
	moments := []models.DownloadMoment{
		moment(at(10, 0), "A", 1),
		moment(at(10, 2), "B", 1),
		moment(at(10, 3), "C", 1), // after last
	}
	got := PeakPerBucket(moments, at(10, 0), at(10, 2), time.Minute)
	if got.MaxDownloads != 1 {
		t.Errorf("MaxDownloads = %d, want 1", got.MaxDownloads)
	}
}

// Three assets whose sessions start within one minute are three downloads
// in that minute.
func TestSimultaneousSessionsPeakInOneMinute(t *testing.T) {
	cat := catalog.NewFromAssets([]models.Asset{
		{ID: "A", Bitrate: 8_000_000, Duration: 100},
		{ID: "B", Bitrate: 8_000_000, Duration: 100},
		{ID: "C", Bitrate: 8_000_000, Duration: 100},
	})
	sessions := []models.Session{
		session("A", at(10, 0), at(10, 30)),
		session("B", at(10, 0).Add(10*time.Second), at(10, 30)),
		session("C", at(10, 0).Add(50*time.Second), at(10, 30)),
		session("D", at(11, 30), at(11, 40)),
	}

	moments := simulate.New(cat).Run(sessions, 0)
	stats := AnalyseDownloads(moments, 0, []time.Duration{time.Minute, time.Hour}, models.DefaultDownloadBitrate)

	if stats.Buckets[0].MaxDownloads != 3 {
		t.Errorf("1m MaxDownloads = %d, want 3", stats.Buckets[0].MaxDownloads)
	}
	if stats.Buckets[1].MaxDownloads != 3 {
		t.Errorf("1h MaxDownloads = %d, want 3", stats.Buckets[1].MaxDownloads)
	}
	if stats.Downloads != 4 {
		t.Errorf("Downloads = %d, want 4", stats.Downloads)
	}
}

func TestConcurrentDownloads(t *testing.T) {
	const bitrate = 8_000_000 // 1 MB/s
	moments := []models.DownloadMoment{
		moment(at(10, 0), "A", 60_000_000),                     // 10:00:00 - 10:01:00
		moment(at(10, 0).Add(30*time.Second), "B", 60_000_000), // 10:00:30 - 10:01:30
	}
	sec := func(s int) time.Time { return at(10, 0).Add(time.Duration(s) * time.Second) }

	got := ConcurrentDownloads(moments, at(10, 0), bitrate)

	want := []ConcurrentSample{
		{Time: sec(0), Downloads: 1, Mbps: 7},
		{Time: sec(29), Downloads: 1, Mbps: 7},
		{Time: sec(30), Downloads: 2, Mbps: 15},
		{Time: sec(60), Downloads: 1, Mbps: 7},
		{Time: sec(61), Downloads: 1, Mbps: 7},
		{Time: sec(90), Downloads: 0, Mbps: 0},
		{Time: sec(91), Downloads: 0, Mbps: 0},
	}
	if !reflect.DeepEqual(got.Samples, want) {
		t.Errorf("Samples = %+v\nwant %+v", got.Samples, want)
	}
	if !got.Peak.Time.Equal(sec(30)) || got.Peak.Downloads != 2 || got.Peak.Mbps != 15 {
		t.Errorf("Peak = %+v, want 2 downloads at 10:00:30", got.Peak)
	}
}

func TestConcurrentDownloadsAgainstBruteForce(t *testing.T) {
	const bitrate = 20_000_000
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		var moments []models.DownloadMoment
		n := 50 + rng.Intn(100)
		for i := 0; i < n; i++ {
			start := at(0, 0).Add(time.Duration(rng.Intn(6*3600)) * time.Second)
			moments = append(moments, moment(start, "A", int64(rng.Intn(4_000_000_000))))
		}
		from := at(1, 0)

		series := ConcurrentDownloads(moments, from, bitrate)
		for _, s := range series.Samples {
			if s.Time.Before(from) {
				t.Fatalf("sample %v before from", s.Time)
			}
			want := 0
			for _, m := range moments {
				if !m.Time.After(s.Time) && m.EndTime(bitrate).After(s.Time) {
					want++
				}
			}
			if s.Downloads != want {
				t.Fatalf("round %d: at %v got %d downloads, brute force %d", round, s.Time, s.Downloads, want)
			}
			if s.Downloads > series.Peak.Downloads {
				t.Fatalf("sample %+v exceeds peak %+v", s, series.Peak)
			}
		}
	}
}

func TestAnalyseDownloads(t *testing.T) {
	moments := []models.DownloadMoment{
		{Time: at(10, 0), Asset: models.Asset{ID: "L"}, Filesize: 5, TotalMemoryInUse: 500, LiveIngest: true},
		{Time: at(10, 5), Asset: models.Asset{ID: "A"}, Filesize: 10, TotalMemoryInUse: 300},
		{Time: at(11, 0), Asset: models.Asset{ID: "B"}, Filesize: 20, TotalMemoryInUse: 200},
	}

	got := AnalyseDownloads(moments, 3*time.Hour, nil, models.DefaultDownloadBitrate)

	if got.KeepAlive != 3*time.Hour || got.PeakMemory != 500 {
		t.Errorf("KeepAlive, PeakMemory = %v, %d", got.KeepAlive, got.PeakMemory)
	}
	if got.Moments != 3 || got.Downloads != 2 {
		t.Errorf("Moments, Downloads = %d, %d, want 3, 2", got.Moments, got.Downloads)
	}
	if !got.First.Equal(at(10, 5)) || !got.Last.Equal(at(11, 0)) {
		t.Errorf("First, Last = %v, %v", got.First, got.Last)
	}
	if len(got.Buckets) != 2 || got.Buckets[0].Width != time.Minute || got.Buckets[1].Width != time.Hour {
		t.Errorf("Buckets = %+v, want default widths", got.Buckets)
	}
	if got.Buckets[0].MaxDownloads != 1 || got.Buckets[1].MaxDownloads != 2 {
		t.Errorf("Buckets = %+v, want 1 per minute and 2 per hour", got.Buckets)
	}
	if got.Concurrent.Peak.Downloads != 1 {
		t.Errorf("Concurrent.Peak = %+v", got.Concurrent.Peak)
	}
}

func TestAnalyseDownloadsOnlyLiveIngests(t *testing.T) {
	moments := []models.DownloadMoment{
		{Time: at(10, 0), TotalMemoryInUse: 500, LiveIngest: true},
	}
	got := AnalyseDownloads(moments, 0, nil, models.DefaultDownloadBitrate)
	if got.PeakMemory != 500 || got.Downloads != 0 || len(got.Buckets) != 0 || len(got.Concurrent.Samples) != 0 {
		t.Errorf("AnalyseDownloads() = %+v", got)
	}
}
