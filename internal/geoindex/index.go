// Package geoindex implements a fixed-resolution lat/lon grid index over
// infrastructure features, answering nearest-feature queries by ring-by-ring
// cell expansion. The index holds references into catalog-owned feature
// slices and is read-only after construction, so it is safe for concurrent
// queries.
package geoindex

import (
	"math"

	"github.com/gridsight/siterank/internal/geo"
)

// CellSizeDeg is the grid resolution in degrees (~55 km of latitude per cell).
const CellSizeDeg = 0.5

// DefaultMaxRadiusKm caps a nearest-feature search when the caller does not
// supply a radius.
const DefaultMaxRadiusKm = 100.0

// cellLatKm is the height of one cell in kilometers, constant across latitudes.
const cellLatKm = CellSizeDeg * math.Pi / 180 * geo.EarthRadiusKm

type cellKey struct {
	latIdx int
	lonIdx int
}

func keyFor(lat, lng float64) cellKey {
	return cellKey{
		latIdx: int(math.Floor(lat / CellSizeDeg)),
		lonIdx: int(math.Floor(lng / CellSizeDeg)),
	}
}

// Index is a grid index over a single feature type's collection.
type Index struct {
	cells map[cellKey][]*geo.Feature
	size  int
}

// New builds an index, assigning every feature to each cell its geometry
// touches. Polylines are registered in every cell covered by the bounding
// rectangle of each constituent segment, so a query landing in an
// intermediate cell cannot miss them.
func New(features []*geo.Feature) *Index {
	idx := &Index{cells: make(map[cellKey][]*geo.Feature)}
	for _, f := range features {
		idx.insert(f)
	}
	return idx
}

// Size returns the number of features inserted.
func (idx *Index) Size() int { return idx.size }

func (idx *Index) insert(f *geo.Feature) {
	idx.size++
	if !f.IsLine() {
		k := keyFor(f.Lat, f.Lng)
		idx.cells[k] = append(idx.cells[k], f)
		return
	}

	touched := make(map[cellKey]struct{})
	for i := 0; i < len(f.Verts)-1; i++ {
		a, b := f.Verts[i], f.Verts[i+1]
		ka, kb := keyFor(a.Lat, a.Lng), keyFor(b.Lat, b.Lng)
		for la := min(ka.latIdx, kb.latIdx); la <= max(ka.latIdx, kb.latIdx); la++ {
			for lo := min(ka.lonIdx, kb.lonIdx); lo <= max(ka.lonIdx, kb.lonIdx); lo++ {
				touched[cellKey{latIdx: la, lonIdx: lo}] = struct{}{}
			}
		}
	}
	for k := range touched {
		idx.cells[k] = append(idx.cells[k], f)
	}
}

// Nearest returns the closest feature to p within maxRadiusKm, its distance
// in kilometers, and whether a feature was found. Cells are visited ring by
// ring outward from p's home cell; expansion halts once the next ring cannot
// possibly beat the running best, or once the ring floor exceeds the radius
// cap. The result is exact within the visited rings.
func (idx *Index) Nearest(p geo.Coord, maxRadiusKm float64) (*geo.Feature, float64, bool) {
	if maxRadiusKm <= 0 {
		maxRadiusKm = DefaultMaxRadiusKm
	}
	if len(idx.cells) == 0 {
		return nil, 0, false
	}

	home := keyFor(p.Lat, p.Lng)

	// The lower bound on distance to ring r uses the smaller cell dimension
	// at this latitude; longitude cells narrow toward the poles.
	minDimKm := cellLatKm
	if lngKm := cellLatKm * math.Cos(p.Lat*math.Pi/180); lngKm > 1e-9 && lngKm < minDimKm {
		minDimKm = lngKm
	}
	maxRing := int(math.Ceil(maxRadiusKm/minDimKm)) + 1

	var (
		best     *geo.Feature
		bestDist = math.MaxFloat64
		seen     = make(map[*geo.Feature]struct{})
	)

	for r := 0; r <= maxRing; r++ {
		// A feature in ring r is at least (r-1) cells away in the closer
		// dimension; once that floor beats the running best there is nothing
		// left to find.
		ringFloorKm := float64(r-1) * minDimKm
		if best != nil && ringFloorKm > bestDist {
			break
		}
		if ringFloorKm > maxRadiusKm {
			break
		}

		for _, k := range ringKeys(home, r) {
			for _, f := range idx.cells[k] {
				if _, dup := seen[f]; dup {
					continue
				}
				seen[f] = struct{}{}
				if d := f.DistanceKm(p); d < bestDist {
					best, bestDist = f, d
				}
			}
		}
	}

	if best == nil || bestDist > maxRadiusKm {
		return nil, 0, false
	}
	return best, bestDist, true
}

// ringKeys returns the cell keys at Chebyshev distance r from the center.
func ringKeys(center cellKey, r int) []cellKey {
	if r == 0 {
		return []cellKey{center}
	}
	keys := make([]cellKey, 0, 8*r)
	for d := -r; d <= r; d++ {
		// Top and bottom rows.
		keys = append(keys,
			cellKey{latIdx: center.latIdx + r, lonIdx: center.lonIdx + d},
			cellKey{latIdx: center.latIdx - r, lonIdx: center.lonIdx + d},
		)
	}
	for d := -r + 1; d <= r-1; d++ {
		// Left and right columns, corners already covered.
		keys = append(keys,
			cellKey{latIdx: center.latIdx + d, lonIdx: center.lonIdx + r},
			cellKey{latIdx: center.latIdx + d, lonIdx: center.lonIdx - r},
		)
	}
	return keys
}
