package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridsight/siterank/internal/catalog"
	"github.com/gridsight/siterank/internal/config"
	"github.com/gridsight/siterank/internal/engine"
	"github.com/gridsight/siterank/internal/feed"
	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/rank"
)

// scoringEnv bundles the shared components a scoring command needs.
type scoringEnv struct {
	Catalog *catalog.Catalog
	Engine  *engine.Engine
	// Zones holds the configured zone definitions; empty unless
	// engine.zones_path is set.
	Zones []rank.Zone

	pool  *pgxpool.Pool
	store *feed.SQLiteStore
}

// initScoring builds the loader, catalog, and engine from config.
func initScoring(ctx context.Context, cfg *config.Config) (*scoringEnv, error) {
	env := &scoringEnv{}

	loader, err := env.initLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Engine.ZonesPath != "" {
		zones, err := rank.LoadZones(cfg.Engine.ZonesPath)
		if err != nil {
			return nil, err
		}
		env.Zones = zones
	}

	caps := make(map[geo.FeatureType]int, len(cfg.Catalog.TypeCaps))
	for k, v := range cfg.Catalog.TypeCaps {
		caps[geo.FeatureType(k)] = v
	}
	env.Catalog = catalog.New(loader, catalog.Options{
		TTL:            cfg.Catalog.TTL,
		LoadTimeout:    cfg.Catalog.LoadTimeout,
		LoadRatePerSec: cfg.Catalog.LoadRatePerSec,
		Caps:           caps,
	})

	env.Engine = engine.New(env.Catalog, engine.Options{
		MaxRadiusKm: cfg.Catalog.MaxRadiusKm,
		Concurrency: cfg.Engine.Concurrency,
		ZoneTopN:    cfg.Engine.ZoneTopN,
		Scoring:     cfg.Scoring,
	})

	return env, nil
}

func (e *scoringEnv) initLoader(ctx context.Context, cfg *config.Config) (feed.Loader, error) {
	switch cfg.Feed.Driver {
	case "postgres":
		if cfg.Feed.DatabaseURL == "" {
			return nil, eris.New("feed.database_url is required for the postgres driver")
		}
		poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.New(poolCtx, cfg.Feed.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		e.pool = pool
		return feed.NewPostgresLoader(pool), nil

	case "sqlite":
		store, err := feed.NewSQLiteStore(cfg.Feed.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.store = store
		return store, nil

	case "shapefile":
		if cfg.Feed.ShapeDir == "" {
			return nil, eris.New("feed.shape_dir is required for the shapefile driver")
		}
		return feed.NewShapefileLoader(cfg.Feed.ShapeDir), nil

	default:
		return nil, eris.Errorf("unknown feed driver %q", cfg.Feed.Driver)
	}
}

// Close releases any backing connections.
func (e *scoringEnv) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}
