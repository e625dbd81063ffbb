// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/metrics"
	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/snapshot"
)

// SnapshotKey is the snapshot store key of the persisted asset set.
const SnapshotKey = "assets"

// DefaultWorkers bounds concurrent metadata fetches when no option is given.
const DefaultWorkers = 8

// Fetcher retrieves metadata of a single asset from a remote service.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (models.Asset, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id string) (models.Asset, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, id string) (models.Asset, error) {
	return f(ctx, id)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithWorkers sets the maximum number of concurrent fetches in FillAll.
func WithWorkers(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Catalog resolves asset ids to metadata.
//
// Fetches for the same id are deduplicated: a caller asking for an id that
// is already being fetched waits for that fetch instead of starting another.
// Every result, including the placeholder for a failed fetch, is inserted
// exactly once under the catalog lock.
//
// Thread Safety: all methods are safe for concurrent use.
type Catalog struct {
	fetcher Fetcher
	store   snapshot.Store
	workers int

	inflight singleflight.Group

	mu              sync.RWMutex
	assets          map[string]models.Asset
	averageFilesize int64
}

// New creates an empty Catalog. A nil store disables persistence.
func New(fetcher Fetcher, store snapshot.Store, opts ...Option) *Catalog {
	if store == nil {
		store = snapshot.NopStore{}
	}
	c := &Catalog{
		fetcher: fetcher,
		store:   store,
		workers: DefaultWorkers,
		assets:  make(map[string]models.Asset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromAssets creates a Catalog preloaded with assets and no fetcher.
// Used when metadata comes from somewhere other than the remote service.
func NewFromAssets(assets []models.Asset) *Catalog {
	c := New(FetcherFunc(func(_ context.Context, id string) (models.Asset, error) {
		return models.Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}), nil)
	for _, a := range assets {
		c.assets[a.ID] = a
	}
	c.averageFilesize = averageFilesize(assets)
	return c
}

// Get returns the metadata of id, fetching it on first use. A failed fetch
// yields a placeholder with unknown bitrate and duration; the failure is
// logged and counted, never returned.
func (c *Catalog) Get(ctx context.Context, id string) models.Asset {
	asset, _ := c.get(ctx, id)
	return asset
}

// get is Get that also reports context cancellation, so FillAll can stop
// without caching placeholders for ids it never really tried.
func (c *Catalog) get(ctx context.Context, id string) (models.Asset, error) {
	if asset, ok := c.Lookup(id); ok {
		return asset, nil
	}

	v, err, _ := c.inflight.Do(id, func() (interface{}, error) {
		// Another caller may have finished between Lookup and Do.
		if asset, ok := c.Lookup(id); ok {
			return asset, nil
		}

		start := time.Now()
		asset, fetchErr := c.fetcher.Fetch(ctx, id)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Asset{ID: id}, ctxErr
		}
		metrics.RecordFetch(time.Since(start), fetchErr)
		if fetchErr != nil {
			logging.CtxWarn(ctx).Err(fetchErr).Str("asset_id", id).Msg("Asset metadata unavailable, using placeholder")
			asset = models.Asset{ID: id}
		}
		asset.ID = id

		return c.insert(asset), nil
	})
	if err != nil {
		return models.Asset{ID: id}, err
	}
	return v.(models.Asset), nil
}

// insert stores asset unless id is already present and returns the stored value.
func (c *Catalog) insert(asset models.Asset) models.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.assets[asset.ID]; ok {
		return existing
	}
	c.assets[asset.ID] = asset
	return asset
}

// FillAll makes sure every id in ids is present.
//
// The persisted snapshot is loaded first; an unreadable snapshot is treated
// as absent. Ids still missing are fetched with at most the configured
// number of workers. The merged set is then persisted and AverageFilesize
// recomputed. Only a cancelled context or a failed snapshot write is
// returned as an error.
func (c *Catalog) FillAll(ctx context.Context, ids []string) error {
	logger := logging.Ctx(ctx)

	var cached []models.Asset
	found, err := c.store.Load(ctx, SnapshotKey, &cached)
	switch {
	case err != nil:
		metrics.RecordSnapshotLookup(SnapshotKey, "error")
		logger.Warn().Err(err).Msg("Asset snapshot unreadable, fetching all assets")
	case found:
		metrics.RecordSnapshotLookup(SnapshotKey, "hit")
		for _, a := range cached {
			c.insert(a)
		}
		logger.Info().Int("assets", len(cached)).Msg("Asset snapshot loaded")
	default:
		metrics.RecordSnapshotLookup(SnapshotKey, "miss")
	}

	missing := c.missing(ids)
	logger.Info().Int("missing", len(missing)).Int("workers", c.workers).Msg("Fetching asset metadata")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, id := range missing {
		g.Go(func() error {
			_, err := c.get(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fill asset catalog: %w", err)
	}

	assets := c.Assets()
	if !found || len(missing) > 0 {
		err := c.store.Save(ctx, SnapshotKey, assets)
		metrics.RecordSnapshotWrite(SnapshotKey, err)
		if err != nil {
			return fmt.Errorf("persist asset snapshot: %w", err)
		}
	}

	avg := averageFilesize(assets)
	c.mu.Lock()
	c.averageFilesize = avg
	c.mu.Unlock()

	metrics.CatalogAssets.Set(float64(len(assets)))
	metrics.CatalogAverageFilesize.Set(float64(avg))
	logger.Info().Int("assets", len(assets)).Int64("average_filesize", avg).Msg("Asset catalog ready")
	return nil
}

// missing returns the distinct ids not yet in the catalog, sorted.
func (c *Catalog) missing(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := c.assets[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// averageFilesize is the integer mean of the positive known filesizes.
func averageFilesize(assets []models.Asset) int64 {
	var sum, n int64
	for _, a := range assets {
		if size, ok := a.KnownFilesize(); ok && size > 0 {
			sum += size
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// Lookup returns the cached metadata of id without fetching.
func (c *Catalog) Lookup(id string) (models.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assets[id]
	return a, ok
}

// AverageFilesize returns the mean known filesize computed by the last FillAll.
func (c *Catalog) AverageFilesize() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.averageFilesize
}

// Filesize returns the size of id, or AverageFilesize when its size is unknown.
func (c *Catalog) Filesize(id string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets[id].Filesize(c.averageFilesize)
}

// TotalFilesize returns the summed Filesize of the distinct ids.
func (c *Catalog) TotalFilesize(ids []string) int64 {
	return c.TotalFilesizeSet(models.NewAssetSet(ids...))
}

// TotalFilesizeSet returns the summed Filesize of the ids in set.
func (c *Catalog) TotalFilesizeSet(set models.AssetSet) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for id := range set {
		total += c.assets[id].Filesize(c.averageFilesize)
	}
	return total
}

// Len returns the number of assets held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// Assets returns every held asset sorted by id.
func (c *Catalog) Assets() []models.Asset {
	c.mu.RLock()
	out := make([]models.Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, a)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
