package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(a, b Coord) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PointToSegmentKm returns the minimum distance in kilometers from p to the
// segment ab. The segment is treated as locally planar: coordinates are
// projected onto a tangent plane at p's latitude before the perpendicular
// distance is computed, which is accurate at the sub-degree segment lengths
// infrastructure geometries use.
func PointToSegmentKm(p, a, b Coord) float64 {
	cosLat := math.Cos(p.Lat * math.Pi / 180)

	// Equirectangular projection, degrees scaled to a common unit.
	ax, ay := a.Lng*cosLat, a.Lat
	bx, by := b.Lng*cosLat, b.Lat
	px, py := p.Lng*cosLat, p.Lat

	dx, dy := bx-ax, by-ay
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return Haversine(p, a)
	}

	// Projection parameter clamped to the segment.
	t := ((px-ax)*dx + (py-ay)*dy) / segLenSq
	t = math.Max(0, math.Min(1, t))

	nearest := Coord{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}
	return Haversine(p, nearest)
}
