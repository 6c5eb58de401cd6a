package rank

import (
	"math"

	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

// MethodTOPSIS names the TOPSIS strategy.
const MethodTOPSIS = "topsis"

// topsisEpsilon guards zero-variance criterion columns during vector
// normalization.
const topsisEpsilon = 1e-12

// TOPSIS ranks candidates by closeness to the batch's ideal solution. Scores
// are batch-relative: re-scoring a different candidate subset changes every
// score, so TOPSIS results must never be cached independent of the exact
// candidate set. Candidate order within the set does not affect the scores.
type TOPSIS struct{}

// Name implements Strategy.
func (s *TOPSIS) Name() string { return MethodTOPSIS }

// Score implements Strategy.
func (s *TOPSIS) Score(batch []Input, w persona.Weights) ([]model.ScoringResult, error) {
	if err := persona.Validate(w); err != nil {
		return nil, err
	}

	// Failed candidates are excluded from the decision matrix so they
	// cannot distort the ideal/anti-ideal vectors.
	var scored []Input
	var failed []Input
	for _, in := range batch {
		if in.Err != "" {
			failed = append(failed, in)
		} else {
			scored = append(scored, in)
		}
	}

	// Column norms for vector normalization.
	norms := make(map[string]float64, len(model.Criteria))
	for _, k := range model.Criteria {
		var sumSq float64
		for _, in := range scored {
			v := in.Scores[k]
			sumSq += v * v
		}
		norms[k] = math.Sqrt(sumSq)
	}

	// Weighted normalized matrix plus per-criterion ideal/anti-ideal.
	weighted := make([]map[string]float64, len(scored))
	ideal := make(map[string]float64, len(model.Criteria))
	anti := make(map[string]float64, len(model.Criteria))
	for _, k := range model.Criteria {
		ideal[k] = math.Inf(-1)
		anti[k] = math.Inf(1)
	}
	for i, in := range scored {
		row := make(map[string]float64, len(model.Criteria))
		for _, k := range model.Criteria {
			var v float64
			if norms[k] > topsisEpsilon {
				v = in.Scores[k] / norms[k]
			}
			v *= w[k]
			row[k] = v
			ideal[k] = math.Max(ideal[k], v)
			anti[k] = math.Min(anti[k], v)
		}
		weighted[i] = row
	}

	results := make([]model.ScoringResult, 0, len(batch))
	for i, in := range scored {
		var dIdeal, dAnti float64
		for _, k := range model.Criteria {
			dIdeal += (weighted[i][k] - ideal[k]) * (weighted[i][k] - ideal[k])
			dAnti += (weighted[i][k] - anti[k]) * (weighted[i][k] - anti[k])
		}
		dIdeal = math.Sqrt(dIdeal)
		dAnti = math.Sqrt(dAnti)

		// Both distances zero means every candidate is identical on every
		// criterion; closeness is indeterminate, use the midpoint.
		closeness := 0.5
		if dIdeal+dAnti > topsisEpsilon {
			closeness = dAnti / (dIdeal + dAnti)
		}

		internal := 10 + closeness*90
		display, label := Rating(internal)

		contributions := make(map[string]float64, len(model.Criteria))
		for _, k := range model.Criteria {
			contributions[k] = w[k] * in.Scores[k]
		}

		results = append(results, model.ScoringResult{
			CandidateID:           in.CandidateID,
			InternalScore:         internal,
			DisplayRating:         display,
			RatingDescription:     label,
			Method:                MethodTOPSIS,
			ComponentScores:       in.Scores,
			WeightedContributions: contributions,
			Weights:               w,
			DistancesKm:           in.Distances,
			Enriched:              in.Enriched,
			Diagnostics: map[string]any{
				"closeness":  closeness,
				"d_ideal":    dIdeal,
				"d_anti":     dAnti,
				"ideal":      cloneVector(ideal),
				"anti_ideal": cloneVector(anti),
				"batch_size": len(scored),
			},
		})
	}

	for _, in := range failed {
		results = append(results, failedResult(in, MethodTOPSIS, w))
	}

	sortResults(results)
	return results, nil
}

func cloneVector(v map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
