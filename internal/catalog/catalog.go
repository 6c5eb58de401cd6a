// Package catalog holds the current snapshot of all infrastructure feature
// collections and coordinates refresh. Readers always see a fully loaded,
// internally consistent snapshot: refresh builds a complete replacement and
// publishes it with a single atomic swap. Reload is guarded by singleflight
// so concurrent triggers cause exactly one upstream fetch cycle.
package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/gridsight/siterank/internal/feed"
	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/geoindex"
)

// ErrUnavailable marks a feature type with no usable data: the upstream load
// failed and no prior snapshot exists. Dependent criteria degrade to their
// documented defaults instead of failing the batch.
var ErrUnavailable = eris.New("catalog: feature type unavailable")

// Options tunes catalog behavior.
type Options struct {
	// TTL is how long a snapshot stays fresh before the next read triggers
	// a reload.
	TTL time.Duration
	// LoadTimeout bounds each per-type upstream load.
	LoadTimeout time.Duration
	// Caps limits record counts for expensive feature types; zero means
	// uncapped. Callers must tolerate incomplete coverage for capped types.
	Caps map[geo.FeatureType]int
	// LoadRatePerSec throttles upstream load calls; zero disables.
	LoadRatePerSec float64
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		TTL:         6 * time.Hour,
		LoadTimeout: 30 * time.Second,
		Caps: map[geo.FeatureType]int{
			geo.TransmissionLine: 5000,
			geo.FiberRoute:       5000,
		},
	}
}

// entry is one feature type's slice of a snapshot.
type entry struct {
	features []*geo.Feature
	index    *geoindex.Index
	loadedAt time.Time
	stale    bool
	err      error
}

// snapshot is an immutable view over every feature type.
type snapshot struct {
	entries   map[geo.FeatureType]*entry
	createdAt time.Time
}

// Catalog owns the feature collections. Created lazily: the first read
// triggers the initial load.
type Catalog struct {
	loader  feed.Loader
	opts    Options
	snap    atomic.Pointer[snapshot]
	group   singleflight.Group
	limiter *rate.Limiter
}

// New creates a catalog over the given loader. No data is fetched until the
// first read.
func New(loader feed.Loader, opts Options) *Catalog {
	if opts.TTL <= 0 {
		opts.TTL = DefaultOptions().TTL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultOptions().LoadTimeout
	}
	c := &Catalog{loader: loader, opts: opts}
	if opts.LoadRatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.LoadRatePerSec), 1)
	}
	return c
}

// Get returns the current collection for a feature type, transparently
// reloading when stale. ErrUnavailable is returned for types with no usable
// data.
func (c *Catalog) Get(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error) {
	e, err := c.entryFor(ctx, ft)
	if err != nil {
		return nil, err
	}
	return e.features, nil
}

// NearestTo finds the nearest feature of a type to a point, within
// maxRadiusKm. The third return is false when nothing is found within the
// cap, which is a soft outcome distinct from the ErrUnavailable error.
func (c *Catalog) NearestTo(ctx context.Context, ft geo.FeatureType, p geo.Coord, maxRadiusKm float64) (*geo.Feature, float64, bool, error) {
	e, err := c.entryFor(ctx, ft)
	if err != nil {
		return nil, 0, false, err
	}
	f, d, ok := e.index.Nearest(p, maxRadiusKm)
	return f, d, ok, nil
}

func (c *Catalog) entryFor(ctx context.Context, ft geo.FeatureType) (*entry, error) {
	if !ft.Valid() {
		return nil, eris.Errorf("catalog: unknown feature type %q", ft)
	}
	snap, err := c.fresh(ctx)
	if err != nil {
		return nil, err
	}
	e := snap.entries[ft]
	if e == nil || e.err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "feature type %s", ft)
	}
	return e, nil
}

// fresh returns the current snapshot, refreshing it first when missing or
// past TTL. Concurrent refresh triggers coalesce onto one load.
func (c *Catalog) fresh(ctx context.Context) (*snapshot, error) {
	if snap := c.snap.Load(); snap != nil && time.Since(snap.createdAt) < c.opts.TTL {
		return snap, nil
	}

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		// Re-check under the flight: a waiter may arrive after the
		// refresh that made the snapshot fresh completed.
		if snap := c.snap.Load(); snap != nil && time.Since(snap.createdAt) < c.opts.TTL {
			return snap, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		// A refresh error still leaves any previous snapshot usable.
		if snap := c.snap.Load(); snap != nil {
			return snap, nil
		}
		return nil, err
	}
	return v.(*snapshot), nil
}

// refresh loads every feature type in parallel and publishes a complete
// replacement snapshot. A per-type failure retains the previous snapshot's
// entry for that type when one exists; otherwise the type is marked
// unavailable. Healthy types are never torn down by another type's failure.
func (c *Catalog) refresh(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	prev := c.snap.Load()

	next := &snapshot{
		entries:   make(map[geo.FeatureType]*entry, len(geo.AllFeatureTypes)),
		createdAt: start,
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]*entry, len(geo.AllFeatureTypes))
	for i, ft := range geo.AllFeatureTypes {
		i, ft := i, ft
		g.Go(func() error {
			results[i] = c.loadType(gctx, ft, prev)
			return nil
		})
	}
	// Load errors are captured per entry, never propagated: a failed type
	// must not abort the others.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: refresh cancelled")
	}

	for i, ft := range geo.AllFeatureTypes {
		next.entries[ft] = results[i]
	}

	c.snap.Store(next)
	zap.L().Info("catalog: snapshot refreshed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("types", len(next.entries)),
	)
	return next, nil
}

func (c *Catalog) loadType(ctx context.Context, ft geo.FeatureType, prev *snapshot) *entry {
	log := zap.L().With(zap.String("component", "catalog"), zap.String("feature_type", string(ft)))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fallback(ft, prev, eris.Wrap(err, "catalog: rate limit wait"), log)
		}
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
	defer cancel()

	features, err := c.loader.Load(loadCtx, ft)
	if err != nil {
		return c.fallback(ft, prev, eris.Wrapf(err, "catalog: load %s", ft), log)
	}

	if limit := c.opts.Caps[ft]; limit > 0 && len(features) > limit {
		log.Warn("catalog: truncating feature collection at cap",
			zap.Int("loaded", len(features)),
			zap.Int("cap", limit),
		)
		features = features[:limit]
	}

	log.Debug("catalog: loaded feature collection", zap.Int("count", len(features)))
	return &entry{
		features: features,
		index:    geoindex.New(features),
		loadedAt: time.Now(),
	}
}

// fallback keeps the previous entry for a type whose load failed, or marks
// the type unavailable when there is nothing to fall back to.
func (c *Catalog) fallback(ft geo.FeatureType, prev *snapshot, loadErr error, log *zap.Logger) *entry {
	if prev != nil {
		if pe := prev.entries[ft]; pe != nil && pe.err == nil {
			log.Warn("catalog: load failed, retaining stale snapshot",
				zap.Error(loadErr),
				zap.Time("stale_loaded_at", pe.loadedAt),
			)
			return &entry{
				features: pe.features,
				index:    pe.index,
				loadedAt: pe.loadedAt,
				stale:    true,
			}
		}
	}
	log.Error("catalog: load failed with no prior snapshot", zap.Error(loadErr))
	return &entry{err: loadErr}
}
