package rank

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

// ZoneAttribute is the geography-keyed metric a zone contributes, with the
// range over which it is interpolated to a 0-100 score.
type ZoneAttribute struct {
	Name          string  `yaml:"name"`
	Value         float64 `yaml:"value"`
	Min           float64 `yaml:"min"`
	Max           float64 `yaml:"max"`
	LowerIsBetter bool    `yaml:"lower_is_better"`
}

// Zone is one bounding-box region with an attribute and an optional cost
// delta. Zone lookup is a linear scan over a small fixed list; if the list
// ever grows large the grid index used for infrastructure applies here too.
type Zone struct {
	Name      string        `yaml:"name"`
	MinLat    float64       `yaml:"min_lat"`
	MaxLat    float64       `yaml:"max_lat"`
	MinLng    float64       `yaml:"min_lng"`
	MaxLng    float64       `yaml:"max_lng"`
	Attribute ZoneAttribute `yaml:"attribute"`
	CostDelta float64       `yaml:"cost_delta_per_mwh"`
}

// Contains reports bounding-box containment.
func (z *Zone) Contains(p geo.Coord) bool {
	return p.Lat >= z.MinLat && p.Lat <= z.MaxLat &&
		p.Lng >= z.MinLng && p.Lng <= z.MaxLng
}

// Score interpolates the zone attribute linearly over its defined range to
// [0,100], inverting when lower values are better.
func (z *Zone) Score() float64 {
	span := z.Attribute.Max - z.Attribute.Min
	if span <= 0 {
		return 50
	}
	frac := (z.Attribute.Value - z.Attribute.Min) / span
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if z.Attribute.LowerIsBetter {
		frac = 1 - frac
	}
	return frac * 100
}

// LoadZones reads zone definitions from a YAML file.
func LoadZones(path string) ([]Zone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rank: read zones file %s", path)
	}
	var doc struct {
		Zones []Zone `yaml:"zones"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "rank: parse zones file %s", path)
	}
	return doc.Zones, nil
}

// FindZone returns the first zone containing p, or nil.
func FindZone(zones []Zone, p geo.Coord) *Zone {
	for i := range zones {
		if zones[i].Contains(p) {
			return &zones[i]
		}
	}
	return nil
}

// zoneCriterion is the reserved key for the enrichment criterion and
// zoneWeight the fraction of total weight it receives; existing weights
// shrink proportionally.
const (
	zoneCriterion = "zone_attribute"
	zoneWeight    = 0.05
)

// EnrichZones re-scores the top-N results with their zone attribute folded
// in: the zone criterion takes a fixed 5% weight slice, the Method A
// pipeline reruns over the extended vector, and results are re-sorted. The
// rating delta is retained on each enriched result; the original seven
// component scores are never dropped.
func EnrichZones(results []model.ScoringResult, inputs []Input, zones []Zone, w persona.Weights, params WeightedParams, topN int) []model.ScoringResult {
	if len(zones) == 0 || topN <= 0 {
		return results
	}

	byID := make(map[string]Input, len(inputs))
	for _, in := range inputs {
		byID[in.CandidateID] = in
	}

	n := min(topN, len(results))
	for i := 0; i < n; i++ {
		res := &results[i]
		if res.Error != "" {
			continue
		}
		in, ok := byID[res.CandidateID]
		if !ok {
			continue
		}
		zone := FindZone(zones, in.Location)
		if zone == nil {
			continue
		}

		zoneScore := zone.Score()

		extScores := make(map[string]float64, len(res.ComponentScores)+1)
		for k, v := range res.ComponentScores {
			extScores[k] = v
		}
		extScores[zoneCriterion] = zoneScore

		extWeights := make(map[string]float64, len(w)+1)
		for k, v := range w {
			extWeights[k] = v * (1 - zoneWeight)
		}
		extWeights[zoneCriterion] = zoneWeight

		oldRating := res.DisplayRating
		internal, contributions := aggregateWeighted(extScores, extWeights, params)
		display, label := Rating(internal)

		res.InternalScore = internal
		res.DisplayRating = display
		res.RatingDescription = label
		res.WeightedContributions = contributions
		res.Zone = &model.ZoneDetail{
			Zone:         zone.Name,
			ZoneScore:    zoneScore,
			OldRating:    oldRating,
			NewRating:    display,
			RatingChange: display - oldRating,
		}

		zap.L().Debug("rank: zone enrichment applied",
			zap.String("candidate", res.CandidateID),
			zap.String("zone", zone.Name),
			zap.Float64("rating_change", display-oldRating),
		)
	}

	sortResults(results)
	return results
}
