package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"

	sgeo "github.com/gridsight/siterank/internal/geo"
)

// Querier is the narrow pgx surface the loader needs; pgxpool.Pool and
// pgxmock both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads features from the infrastructure_features table.
// Polyline geometries are stored as WKB and decoded into vertex sequences.
type PostgresLoader struct {
	pool Querier
}

// NewPostgresLoader creates a loader over the given connection pool.
func NewPostgresLoader(pool Querier) *PostgresLoader {
	return &PostgresLoader{pool: pool}
}

const loadFeaturesSQL = `
SELECT id, name, lat, lng, geom_wkb, attrs
FROM infrastructure_features
WHERE feature_type = $1
ORDER BY id`

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context, ft sgeo.FeatureType) ([]*sgeo.Feature, error) {
	rows, err := l.pool.Query(ctx, loadFeaturesSQL, string(ft))
	if err != nil {
		return nil, eris.Wrapf(err, "feed: query %s features", ft)
	}
	defer rows.Close()

	var features []*sgeo.Feature
	var skipped int
	for rows.Next() {
		var (
			id, name string
			lat, lng float64
			geomWKB  []byte
			attrsRaw []byte
		)
		if err := rows.Scan(&id, &name, &lat, &lng, &geomWKB, &attrsRaw); err != nil {
			return nil, eris.Wrapf(err, "feed: scan %s feature", ft)
		}

		f := &sgeo.Feature{ID: id, Name: name, Type: ft, Lat: lat, Lng: lng}

		if len(attrsRaw) > 0 {
			attrs := make(map[string]string)
			if err := json.Unmarshal(attrsRaw, &attrs); err == nil && len(attrs) > 0 {
				f.Attrs = attrs
			}
		}

		if len(geomWKB) == 0 {
			features = append(features, f)
			continue
		}
		parts, err := decodeLineWKB(geomWKB)
		if err != nil {
			skipped++
			continue
		}
		features = append(features, splitLineParts(f, parts)...)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "feed: iterate %s features", ft)
	}

	if skipped > 0 {
		zap.L().Warn("feed: skipped features with undecodable geometry",
			zap.String("feature_type", string(ft)),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

// decodeLineWKB extracts per-part vertex sequences from a WKB LineString or
// MultiLineString. Coordinates are stored X=lng, Y=lat. Parts stay separate:
// concatenating them would fabricate a segment bridging disjoint pieces, and
// point-to-line distance is the minimum over real segments only.
func decodeLineWKB(raw []byte) ([][]sgeo.Coord, error) {
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, eris.Wrap(err, "feed: decode WKB")
	}

	switch t := g.(type) {
	case *geom.LineString:
		return [][]sgeo.Coord{coordsOf(t.Coords())}, nil
	case *geom.MultiLineString:
		parts := make([][]sgeo.Coord, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			parts = append(parts, coordsOf(t.LineString(i).Coords()))
		}
		return parts, nil
	case *geom.Point:
		return nil, nil
	default:
		return nil, eris.Errorf("feed: unsupported geometry type %T", g)
	}
}

// splitLineParts turns a decoded geometry into features: the base feature for
// point geometry or a single part, one feature per part otherwise. Multi-part
// features get ":n" id suffixes and a representative point on their own part.
func splitLineParts(f *sgeo.Feature, parts [][]sgeo.Coord) []*sgeo.Feature {
	switch len(parts) {
	case 0:
		return []*sgeo.Feature{f}
	case 1:
		f.Verts = parts[0]
		return []*sgeo.Feature{f}
	}

	out := make([]*sgeo.Feature, 0, len(parts))
	for i, verts := range parts {
		pf := &sgeo.Feature{
			ID:    fmt.Sprintf("%s:%d", f.ID, i+1),
			Name:  f.Name,
			Type:  f.Type,
			Attrs: f.Attrs,
			Verts: verts,
		}
		if len(verts) > 0 {
			mid := verts[len(verts)/2]
			pf.Lat, pf.Lng = mid.Lat, mid.Lng
		}
		out = append(out, pf)
	}
	return out
}

func coordsOf(coords []geom.Coord) []sgeo.Coord {
	out := make([]sgeo.Coord, 0, len(coords))
	for _, c := range coords {
		out = append(out, sgeo.Coord{Lat: c.Y(), Lng: c.X()})
	}
	return out
}
