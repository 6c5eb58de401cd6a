package geo

import "math"

// DefaultDecayCutoffKm is the distance beyond which a decay score is zero.
const DefaultDecayCutoffKm = 200.0

// minHalfDistanceKm guards against division by zero in DecayScore.
const minHalfDistanceKm = 1e-6

// DecayScore maps a distance to a 0-100 score via exponential decay:
// 100*exp(-d/h). At the half-distance h the score is ~36.8 (100/e). Scores
// at or beyond cutoffKm are hard zero. Negative distances are treated as zero
// distance.
func DecayScore(distanceKm, halfDistanceKm, cutoffKm float64) float64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	if cutoffKm > 0 && distanceKm >= cutoffKm {
		return 0
	}
	h := math.Max(halfDistanceKm, minHalfDistanceKm)
	s := 100 * math.Exp(-distanceKm/h)
	return math.Max(0, math.Min(100, s))
}
