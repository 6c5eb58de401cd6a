package model

import (
	"math"

	"github.com/gridsight/siterank/internal/geo"
)

// The seven scoring criteria. Every weight vector and component score map
// carries exactly these keys.
const (
	CriterionCapacityFit   = "capacity_fit"
	CriterionGridConn      = "grid_connection"
	CriterionDigitalInfra  = "digital_infrastructure"
	CriterionWaterCooling  = "water_cooling"
	CriterionLandPlanning  = "land_planning"
	CriterionResilience    = "resilience"
	CriterionPriceSensitiv = "price_sensitivity"
)

// Criteria is the canonical ordered criteria list.
var Criteria = []string{
	CriterionCapacityFit,
	CriterionGridConn,
	CriterionDigitalInfra,
	CriterionWaterCooling,
	CriterionLandPlanning,
	CriterionResilience,
	CriterionPriceSensitiv,
}

// ComponentScores maps each criterion to a score in [0,100].
type ComponentScores map[string]float64

// Clamp forces every value into [0,100] in place and returns the map.
func (cs ComponentScores) Clamp() ComponentScores {
	for k, v := range cs {
		if math.IsNaN(v) {
			cs[k] = 0
			continue
		}
		cs[k] = math.Max(0, math.Min(100, v))
	}
	return cs
}

// ProximityResult maps infrastructure type to the nearest distance in
// kilometers. A nil value means the type was searched and nothing was found
// within the radius cap ("confirmed far"); an absent key means the type was
// unavailable ("unknown").
type ProximityResult map[geo.FeatureType]*float64

// ZoneDetail reports the outcome of the zone-enrichment re-scoring pass.
type ZoneDetail struct {
	Zone         string  `json:"zone"`
	ZoneScore    float64 `json:"zone_score"`
	OldRating    float64 `json:"old_rating"`
	NewRating    float64 `json:"new_rating"`
	RatingChange float64 `json:"rating_change"`
}

// ScoringResult is the per-candidate output of a scoring batch.
type ScoringResult struct {
	CandidateID           string              `json:"candidate_id"`
	BatchID               string              `json:"batch_id"`
	InternalScore         float64             `json:"internal_score"`
	DisplayRating         float64             `json:"display_rating"`
	RatingDescription     string              `json:"rating_description"`
	Method                string              `json:"method"`
	ComponentScores       ComponentScores     `json:"component_scores"`
	WeightedContributions map[string]float64  `json:"weighted_contributions"`
	Weights               map[string]float64  `json:"persona_weights"`
	DistancesKm           map[string]*float64 `json:"distances_km"`
	Enriched              bool                `json:"enriched"`
	Error                 string              `json:"error,omitempty"`
	Diagnostics           map[string]any      `json:"diagnostics,omitempty"`
	Zone                  *ZoneDetail         `json:"zone,omitempty"`
}
