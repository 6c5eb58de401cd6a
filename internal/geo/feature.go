// Package geo provides the geometry primitives and distance functions that
// underpin proximity scoring: infrastructure features, haversine and
// point-to-segment distance, and exponential decay scoring.
package geo

// FeatureType identifies a class of infrastructure feature.
type FeatureType string

const (
	Substation       FeatureType = "substation"
	TransmissionLine FeatureType = "transmission_line"
	FiberRoute       FeatureType = "fiber_route"
	IXP              FeatureType = "ixp"
	WaterResource    FeatureType = "water_resource"
)

// AllFeatureTypes lists every feature type the catalog tracks, in a stable order.
var AllFeatureTypes = []FeatureType{
	Substation,
	TransmissionLine,
	FiberRoute,
	IXP,
	WaterResource,
}

// Valid reports whether ft is a known feature type.
func (ft FeatureType) Valid() bool {
	switch ft {
	case Substation, TransmissionLine, FiberRoute, IXP, WaterResource:
		return true
	}
	return false
}

// Coord is a WGS84 latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Feature is one immutable infrastructure feature. Point features carry only
// Lat/Lng; polyline features (transmission lines, fiber routes) additionally
// carry an ordered vertex sequence, with Lat/Lng holding a representative
// point. Features are owned by the catalog; indexes hold references only.
type Feature struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Type  FeatureType       `json:"type"`
	Lat   float64           `json:"lat"`
	Lng   float64           `json:"lng"`
	Verts []Coord           `json:"vertices,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// IsLine reports whether the feature carries polyline geometry.
func (f *Feature) IsLine() bool {
	return len(f.Verts) >= 2
}

// Location returns the feature's representative point.
func (f *Feature) Location() Coord {
	return Coord{Lat: f.Lat, Lng: f.Lng}
}

// DistanceKm returns the minimum distance in kilometers from p to the
// feature: haversine for point features, minimum over constituent segments
// for polylines. Degenerate single-vertex lines fall back to haversine.
func (f *Feature) DistanceKm(p Coord) float64 {
	if !f.IsLine() {
		return Haversine(p, f.Location())
	}
	best := PointToSegmentKm(p, f.Verts[0], f.Verts[1])
	for i := 1; i < len(f.Verts)-1; i++ {
		if d := PointToSegmentKm(p, f.Verts[i], f.Verts[i+1]); d < best {
			best = d
		}
	}
	return best
}
