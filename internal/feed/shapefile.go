package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/siterank/internal/geo"
)

// ShapefileLoader reads one shapefile per feature type from a directory
// (substation.shp, transmission_line.shp, ...). Point and polyline shapes
// are supported; anything else is skipped.
type ShapefileLoader struct {
	dir string
}

// NewShapefileLoader creates a loader over the given directory.
func NewShapefileLoader(dir string) *ShapefileLoader {
	return &ShapefileLoader{dir: dir}
}

// Load implements Loader.
func (l *ShapefileLoader) Load(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error) {
	path := filepath.Join(l.dir, string(ft)+".shp")
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "feed: shapefile for %s", ft)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Field name lookup for the name/id attributes.
	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	var features []*geo.Feature
	var skipped int
	n := 0
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n++
		_, shape := reader.Shape()

		f := &geo.Feature{Type: ft}
		if idx, ok := fieldIdx["name"]; ok {
			f.Name = cleanAttr(reader.Attribute(idx))
		}
		if idx, ok := fieldIdx["id"]; ok {
			f.ID = cleanAttr(reader.Attribute(idx))
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("%s-%d", ft, n)
		}

		switch s := shape.(type) {
		case *shp.Point:
			f.Lat, f.Lng = s.Y, s.X
		case *shp.PolyLine:
			parts := polylineParts(s)
			if len(parts) == 0 {
				skipped++
				continue
			}
			if len(parts) > 1 {
				// One feature per part: no segment may bridge
				// disjoint parts of the same record.
				for i, verts := range parts {
					pf := &geo.Feature{
						ID:   fmt.Sprintf("%s:%d", f.ID, i+1),
						Name: f.Name,
						Type: ft,
					}
					pf.Verts = verts
					mid := verts[len(verts)/2]
					pf.Lat, pf.Lng = mid.Lat, mid.Lng
					features = append(features, pf)
				}
				continue
			}
			f.Verts = parts[0]
			mid := f.Verts[len(f.Verts)/2]
			f.Lat, f.Lng = mid.Lat, mid.Lng
		default:
			skipped++
			continue
		}

		features = append(features, f)
	}

	if skipped > 0 {
		zap.L().Debug("feed: skipped unsupported shapefile records",
			zap.String("feature_type", string(ft)),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

func cleanAttr(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// polylineParts splits a shapefile polyline record into per-part vertex
// sequences, dropping degenerate parts with fewer than two vertices.
func polylineParts(s *shp.PolyLine) [][]geo.Coord {
	parts := make([][]geo.Coord, 0, s.NumParts)
	for p := 0; p < int(s.NumParts); p++ {
		start := int(s.Parts[p])
		end := len(s.Points)
		if p+1 < int(s.NumParts) {
			end = int(s.Parts[p+1])
		}
		if end-start < 2 {
			continue
		}
		verts := make([]geo.Coord, 0, end-start)
		for _, pt := range s.Points[start:end] {
			verts = append(verts, geo.Coord{Lat: pt.Y, Lng: pt.X})
		}
		parts = append(parts, verts)
	}
	return parts
}
