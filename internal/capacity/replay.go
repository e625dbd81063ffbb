// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package capacity replays viewing sessions against a cache of bounded size.
//
// The download simulator answers how much storage a cache needs to never
// evict an asset that is still in use. This package answers the opposite
// question: given a fixed cache size, how many session starts find their
// asset already cached. Assets are evicted least recently used first.
package capacity

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tomtom215/vodcache/internal/models"
)

// Sizer resolves the size of an asset. *catalog.Catalog implements it.
type Sizer interface {
	Filesize(id string) int64
}

// Result is the outcome of one replay.
type Result struct {
	CapacityBytes int64

	Requests  int
	Hits      int
	Misses    int
	Evictions int

	// Bypassed counts misses for assets larger than the whole cache; they
	// are fetched but never stored.
	Bypassed int

	BytesFetched int64
}

// HitRatio returns Hits / Requests, or 0 without requests.
func (r Result) HitRatio() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Requests)
}

// cache is an LRU of asset sizes bounded by their sum.
type cache struct {
	lru      *lru.Cache[string, int64]
	capacity int64
	used     int64
	evicted  int
}

func newCache(capacity int64, maxItems int) (*cache, error) {
	c := &cache{capacity: capacity}
	// The item bound must never be reached; only the byte bound evicts.
	l, err := lru.NewWithEvict[string, int64](maxItems+1, func(_ string, size int64) {
		c.used -= size
		c.evicted++
	})
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	c.lru = l
	return c, nil
}

// admit stores id, evicting least recently used assets until it fits.
func (c *cache) admit(id string, size int64) {
	for c.used+size > c.capacity && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
	c.lru.Add(id, size)
	c.used += size
}

// Simulate replays the session starts in time order against a cache of
// capacityBytes. A start whose asset is cached is a hit and refreshes the
// asset's recency; any other start is a miss that fetches the asset.
func Simulate(sessions []models.Session, sizes Sizer, capacityBytes int64) (Result, error) {
	res := Result{CapacityBytes: capacityBytes}
	if capacityBytes <= 0 {
		return res, fmt.Errorf("cache capacity must be positive, got %d", capacityBytes)
	}

	c, err := newCache(capacityBytes, len(models.DistinctIDs(sessions)))
	if err != nil {
		return res, err
	}

	for _, s := range byStart(sessions) {
		res.Requests++
		if _, ok := c.lru.Get(s.AssetID); ok {
			res.Hits++
			continue
		}

		res.Misses++
		size := sizes.Filesize(s.AssetID)
		res.BytesFetched += size
		if size > capacityBytes {
			res.Bypassed++
			continue
		}
		c.admit(s.AssetID, size)
	}

	res.Evictions = c.evicted
	return res, nil
}

// SimulateSizes runs Simulate once per cache size, given in GB.
func SimulateSizes(sessions []models.Session, sizes Sizer, sizesGB []int64) ([]Result, error) {
	results := make([]Result, 0, len(sizesGB))
	for _, gb := range sizesGB {
		res, err := Simulate(sessions, sizes, gb*models.GB)
		if err != nil {
			return nil, fmt.Errorf("replay %d GB cache: %w", gb, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// byStart returns sessions ordered by start time, ties by asset id.
func byStart(sessions []models.Session) []models.Session {
	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartTime.Equal(sorted[j].StartTime) {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		}
		return sorted[i].AssetID < sorted[j].AssetID
	})
	return sorted
}
