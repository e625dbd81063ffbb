// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package simulate

import (
	"sort"
	"time"

	"github.com/tomtom215/vodcache/internal/catalog"
	"github.com/tomtom215/vodcache/internal/interval"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/snapshot"
)

// DefaultWindow is the trailing span of session starts walked by Run.
const DefaultWindow = 72 * time.Hour

// Option configures a Simulator.
type Option func(*Simulator)

// WithWindow sets the trailing walk window. A window <= 0 walks every
// session start.
func WithWindow(window time.Duration) Option {
	return func(s *Simulator) {
		s.window = window
	}
}

// WithStore persists simulation results for FindOrRead.
func WithStore(store snapshot.Store) Option {
	return func(s *Simulator) {
		if store != nil {
			s.store = store
		}
	}
}

// WithInputVerification stores a fingerprint of the input sessions with
// every persisted result and ignores results computed from other input.
func WithInputVerification(enabled bool) Option {
	return func(s *Simulator) {
		s.verifyInput = enabled
	}
}

// WithEndInstants also walks the instant each grown session ends, so an
// asset that leaves the working set and returns before any other session
// starts is downloaded again.
func WithEndInstants(enabled bool) Option {
	return func(s *Simulator) {
		s.walkEnds = enabled
	}
}

// Simulator derives the moments at which assets enter a cache that keeps
// every asset resident while a session of it is active, plus a keep-alive.
//
// A Simulator holds no state between runs besides its configuration; the
// catalog must be filled before Run is called.
type Simulator struct {
	catalog     *catalog.Catalog
	store       snapshot.Store
	window      time.Duration
	verifyInput bool
	walkEnds    bool
}

// New creates a Simulator resolving assets through cat.
func New(cat *catalog.Catalog, opts ...Option) *Simulator {
	s := &Simulator{
		catalog: cat,
		store:   snapshot.NopStore{},
		window:  DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates the cache for one keep-alive.
//
// Every session is grown by keepAlive and indexed. By default only session
// starts are walked, in increasing order. At each one the assets not
// resident at the previous walked instant produce a DownloadMoment carrying
// the total size of the working set. An asset that leaves and returns with
// no other start in between is therefore not downloaded again; enable
// WithEndInstants to observe those departures too.
//
// Only instants after the trailing window start (anchored at the last
// session start) are walked; the working set at the window start is used
// as the initial state. The output is deterministic: moments are ordered by
// time and, within one instant, by asset id.
func (s *Simulator) Run(sessions []models.Session, keepAlive time.Duration) []models.DownloadMoment {
	if len(sessions) == 0 {
		return nil
	}

	grown := models.GrowAll(sessions, keepAlive)
	idx := interval.Build(grown)
	instants := startInstants(sessions)
	lastStart := instants[len(instants)-1]
	if s.walkEnds {
		instants = withEndInstants(instants, grown)
	}

	previous := make(models.AssetSet)
	if s.window > 0 {
		windowStart := lastStart.Add(-s.window)
		first := sort.Search(len(instants), func(i int) bool {
			return instants[i].After(windowStart)
		})
		if first > 0 {
			previous = idx.AssetsAt(windowStart)
		}
		instants = instants[first:]
	}

	var moments []models.DownloadMoment
	for _, t := range instants {
		current := idx.AssetsAt(t)
		entering := current.Minus(previous)
		if len(entering) > 0 {
			inUse := s.catalog.TotalFilesizeSet(current)
			for _, id := range entering {
				moments = append(moments, s.moment(t, id, inUse))
			}
		}
		previous = current
	}
	return moments
}

// moment builds the DownloadMoment of asset id entering the cache at t.
func (s *Simulator) moment(t time.Time, id string, inUse int64) models.DownloadMoment {
	asset, ok := s.catalog.Lookup(id)
	if !ok {
		asset = models.Asset{ID: id}
	}
	return models.DownloadMoment{
		Time:             t,
		Asset:            asset,
		Filesize:         s.catalog.Filesize(id),
		TotalMemoryInUse: inUse,
		LiveIngest:       asset.LiveAt(t),
	}
}

// startInstants returns the distinct session start times in increasing order.
func startInstants(sessions []models.Session) []time.Time {
	starts := make([]time.Time, len(sessions))
	for i, s := range sessions {
		starts[i] = s.StartTime
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	out := starts[:0]
	for i, t := range starts {
		if i == 0 || !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

// withEndInstants merges the end times of grown into the sorted instants.
func withEndInstants(instants []time.Time, grown []models.Session) []time.Time {
	all := make([]time.Time, 0, len(instants)+len(grown))
	all = append(all, instants...)
	for _, s := range grown {
		all = append(all, s.EndTime)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })

	out := all[:0]
	for i, t := range all {
		if i == 0 || !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

// PeakMemory returns the largest TotalMemoryInUse among moments.
func PeakMemory(moments []models.DownloadMoment) int64 {
	var peak int64
	for _, m := range moments {
		if m.TotalMemoryInUse > peak {
			peak = m.TotalMemoryInUse
		}
	}
	return peak
}
