// Package feed provides the data-access layer the catalog loads
// infrastructure features from. The catalog is agnostic to how records are
// actually fetched; loaders exist for Postgres, local shapefiles, and a
// SQLite snapshot store.
package feed

import (
	"context"

	"github.com/gridsight/siterank/internal/geo"
)

// Loader fetches the full collection for one feature type.
type Loader interface {
	Load(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error) {
	return f(ctx, ft)
}
