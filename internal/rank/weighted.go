package rank

import (
	"math"

	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

// MethodWeighted names the weighted-sum / Bayesian / logistic pipeline.
const MethodWeighted = "weighted"

// WeightedParams tunes the Method A pipeline. With the defaults the pipeline
// degrades exactly to a plain weighted sum passed through a fixed sigmoid,
// so relative ranking order matches the plain weighted sum.
type WeightedParams struct {
	// Alpha is the weight-strength exponent, Beta the evidence-strength
	// exponent in the posterior reweighting w' ~ w^alpha * s^beta.
	Alpha float64 `yaml:"alpha" mapstructure:"alpha"`
	Beta  float64 `yaml:"beta" mapstructure:"beta"`

	// FusionA/B/C mix the additive, geometric, and target-closeness terms.
	FusionA float64 `yaml:"fusion_a" mapstructure:"fusion_a"`
	FusionB float64 `yaml:"fusion_b" mapstructure:"fusion_b"`
	FusionC float64 `yaml:"fusion_c" mapstructure:"fusion_c"`

	// Logistic calibration: the sigmoid midpoint shifts with evidence by
	// Shift before the fusion score is mapped to [0,100].
	Midpoint  float64 `yaml:"midpoint" mapstructure:"midpoint"`
	Steepness float64 `yaml:"steepness" mapstructure:"steepness"`
	Shift     float64 `yaml:"shift" mapstructure:"shift"`

	// Targets are optional per-criterion target levels in [0,1] for the
	// closeness term; criteria without a target default to 1.
	Targets map[string]float64 `yaml:"targets" mapstructure:"targets"`
}

// DefaultWeightedParams returns the degenerate-to-weighted-sum defaults.
func DefaultWeightedParams() WeightedParams {
	return WeightedParams{
		Alpha:     1.0,
		Beta:      0.0,
		FusionA:   1.0,
		FusionB:   0.0,
		FusionC:   0.0,
		Midpoint:  0.5,
		Steepness: 4.0,
		Shift:     0.0,
	}
}

// Weighted is the Method A strategy. Results are meaningful per candidate,
// so a partially cancelled batch still yields usable output for the
// candidates already aggregated.
type Weighted struct {
	Params WeightedParams
}

// Name implements Strategy.
func (s *Weighted) Name() string { return MethodWeighted }

// Score implements Strategy.
func (s *Weighted) Score(batch []Input, w persona.Weights) ([]model.ScoringResult, error) {
	if err := persona.Validate(w); err != nil {
		return nil, err
	}

	results := make([]model.ScoringResult, 0, len(batch))
	for _, in := range batch {
		if in.Err != "" {
			results = append(results, failedResult(in, MethodWeighted, w))
			continue
		}

		internal, contributions := aggregateWeighted(in.Scores, w, s.Params)
		display, label := Rating(internal)
		results = append(results, model.ScoringResult{
			CandidateID:           in.CandidateID,
			InternalScore:         internal,
			DisplayRating:         display,
			RatingDescription:     label,
			Method:                MethodWeighted,
			ComponentScores:       in.Scores,
			WeightedContributions: contributions,
			Weights:               w,
			DistancesKm:           in.Distances,
			Enriched:              in.Enriched,
		})
	}

	sortResults(results)
	return results, nil
}

// aggregateWeighted runs the full Method A pipeline over one candidate's
// component scores: normalize, posterior-reweight, fuse, calibrate.
func aggregateWeighted(scores map[string]float64, w map[string]float64, p WeightedParams) (float64, map[string]float64) {
	// 1. Normalize scores to [0,1].
	s := make(map[string]float64, len(w))
	for k := range w {
		s[k] = math.Max(0, math.Min(100, scores[k])) / 100
	}

	// 2. Posterior weights w' ~ w^alpha * s^beta, renormalized. A zero
	// posterior sum (all evidence zero with beta > 0) falls back to the
	// prior weights rather than dividing by zero.
	post := make(map[string]float64, len(w))
	var postSum float64
	for k, weight := range w {
		pw := math.Pow(weight, p.Alpha)
		if p.Beta != 0 {
			pw *= math.Pow(s[k], p.Beta)
		}
		post[k] = pw
		postSum += pw
	}
	if postSum <= 0 {
		for k, weight := range w {
			post[k] = weight
			postSum += weight
		}
	}
	for k := range post {
		post[k] /= postSum
	}

	// 3. Evidence strength.
	var evidence float64
	for k := range post {
		evidence += post[k] * s[k]
	}

	// 4. Fusion score: additive + geometric + target-closeness terms.
	fusion := p.FusionA * evidence
	if p.FusionB != 0 {
		product := 1.0
		for k := range post {
			product *= math.Pow(s[k], post[k])
		}
		fusion += p.FusionB * product
	}
	if p.FusionC != 0 {
		var closeness float64
		for k := range post {
			target := 1.0
			if t, ok := p.Targets[k]; ok {
				target = t
			}
			closeness += post[k] * (1 - math.Abs(s[k]-target))
		}
		fusion += p.FusionC * closeness
	}

	// 5. Logistic calibration with evidence-shifted midpoint.
	midpoint := p.Midpoint - (evidence-p.Midpoint)*p.Shift
	internal := 100 * sigmoid(p.Steepness*(fusion-midpoint))

	contributions := make(map[string]float64, len(post))
	for k := range post {
		contributions[k] = post[k] * s[k] * 100
	}
	return internal, contributions
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
