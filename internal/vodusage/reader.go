// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package vodusage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/snapshot"
	"github.com/tomtom215/vodcache/internal/validation"
)

// Namespace is the XML namespace of VODUsage documents.
const Namespace = "urn:eventis:vodusage:2.0"

// FilePattern matches the usage log files of a folder.
const FilePattern = "VODUsage*.xml"

// localLayout parses timestamps that carry no zone offset.
const localLayout = "2006-01-02T15:04:05.999999999"

// Stats counts what a read produced.
type Stats struct {
	Files    int `json:"files"`
	Accepted int `json:"accepted"`
	Corrupt  int `json:"corrupt"`
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Accepted += o.Accepted
	s.Corrupt += o.Corrupt
}

type usageDocument struct {
	Sessions []finishedSession `xml:"urn:eventis:vodusage:2.0 FinishedSessions>FinishedSession"`
}

type finishedSession struct {
	AssetID string `xml:"urn:eventis:vodusage:2.0 AssetId"`
	Period  struct {
		Start string `xml:"startDate,attr"`
		End   string `xml:"endDate,attr"`
	} `xml:"urn:eventis:vodusage:2.0 SessionPeriod"`
}

// Reader reads usage folders.
type Reader struct {
	loc         *time.Location
	maxDuration time.Duration
	store       snapshot.Store
}

// Option configures a Reader.
type Option func(*Reader)

// WithLocation sets the location sessions are converted to.
func WithLocation(loc *time.Location) Option {
	return func(r *Reader) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithMaxDuration sets the longest plausible session.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.maxDuration = d
		}
	}
}

// WithStore memoizes parsed folders in store.
func WithStore(store snapshot.Store) Option {
	return func(r *Reader) {
		if store != nil {
			r.store = store
		}
	}
}

// NewReader creates a Reader. By default it converts to time.Local, accepts
// sessions up to models.MaxPlausibleDuration and memoizes nothing.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		loc:         time.Local,
		maxDuration: models.MaxPlausibleDuration,
		store:       snapshot.NopStore{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFolder parses every usage log in dir, in file name order.
func (r *Reader) ReadFolder(ctx context.Context, dir string) ([]models.Session, Stats, error) {
	var stats Stats

	info, err := os.Stat(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("usage folder: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("usage folder %s is not a directory", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, stats, fmt.Errorf("list usage files: %w", err)
	}

	logger := logging.Ctx(ctx)
	var sessions []models.Session
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		fileSessions, fileStats, err := r.ReadFile(path)
		if err != nil {
			return nil, stats, err
		}
		sessions = append(sessions, fileSessions...)
		stats.add(fileStats)
		logger.Debug().
			Str("file", filepath.Base(path)).
			Int("accepted", fileStats.Accepted).
			Int("corrupt", fileStats.Corrupt).
			Msg("Usage file read")
	}
	return sessions, stats, nil
}

// ReadFile parses one usage log.
func (r *Reader) ReadFile(path string) ([]models.Session, Stats, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from a glob over the configured folder
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open usage file: %w", err)
	}
	defer f.Close()

	sessions, stats, err := r.Parse(f)
	if err != nil {
		return nil, stats, fmt.Errorf("parse %s: %w", path, err)
	}
	stats.Files = 1
	metrics.RecordUsageFile(stats.Accepted, stats.Corrupt)
	return sessions, stats, nil
}

// Parse decodes one usage document. Rows with unparseable timestamps or
// that fail the plausibility filter are counted as corrupt.
func (r *Reader) Parse(src io.Reader) ([]models.Session, Stats, error) {
	var stats Stats
	var doc usageDocument
	if err := xml.NewDecoder(src).Decode(&doc); err != nil {
		return nil, stats, fmt.Errorf("decode usage document: %w", err)
	}

	sessions := make([]models.Session, 0, len(doc.Sessions))
	for _, fs := range doc.Sessions {
		s, ok := r.session(fs)
		if !ok {
			stats.Corrupt++
			continue
		}
		sessions = append(sessions, s)
	}
	stats.Accepted = len(sessions)
	return sessions, stats, nil
}

func (r *Reader) session(fs finishedSession) (models.Session, bool) {
	start, err := parseTime(fs.Period.Start, r.loc)
	if err != nil {
		return models.Session{}, false
	}
	end, err := parseTime(fs.Period.End, r.loc)
	if err != nil {
		return models.Session{}, false
	}
	s := models.Session{
		AssetID:   strings.TrimSpace(fs.AssetID),
		StartTime: start,
		EndTime:   end,
	}
	if validation.Validate(&s) != nil || !s.Plausible(r.maxDuration) {
		return models.Session{}, false
	}
	return s, true
}

func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.ParseInLocation(localLayout, value, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
	}
	return t.In(loc), nil
}

// FilterPlausible returns the sessions with a positive duration of at most
// maxDuration, and the number dropped.
func FilterPlausible(sessions []models.Session, maxDuration time.Duration) ([]models.Session, int) {
	kept := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Plausible(maxDuration) {
			kept = append(kept, s)
		}
	}
	return kept, len(sessions) - len(kept)
}
