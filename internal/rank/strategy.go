// Package rank turns component scores into final ratings. Two aggregation
// strategies share one contract: the weighted-sum pipeline with Bayesian
// reweighting and logistic calibration, and TOPSIS. A zone-enrichment
// post-pass can fold a geography-keyed attribute into top-ranked results.
package rank

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

// Input is one candidate's pre-aggregation state: component scores plus the
// proximity context the engine gathered.
type Input struct {
	CandidateID string
	Location    geo.Coord
	Scores      model.ComponentScores
	Distances   map[string]*float64
	Enriched    bool
	Err         string
}

// Strategy aggregates a whole batch. The batch-level contract exists because
// TOPSIS scores are only defined relative to the full candidate set; the
// weighted strategy maps candidates independently under the same signature.
type Strategy interface {
	Name() string
	Score(batch []Input, w persona.Weights) ([]model.ScoringResult, error)
}

// ForMethod returns the strategy for a method name. An empty method selects
// the weighted pipeline.
func ForMethod(method string, params WeightedParams) (Strategy, error) {
	switch method {
	case "", MethodWeighted:
		return &Weighted{Params: params}, nil
	case MethodTOPSIS:
		return &TOPSIS{}, nil
	default:
		return nil, eris.Errorf("rank: unknown scoring method %q", method)
	}
}

// ratingBand maps an internal-score floor to a display label.
type ratingBand struct {
	floor float64
	label string
}

// The nine display labels, highest first.
var ratingBands = []ratingBand{
	{90, "Exceptional"},
	{80, "Excellent"},
	{70, "Very Good"},
	{60, "Good"},
	{50, "Above Average"},
	{40, "Average"},
	{30, "Below Average"},
	{20, "Poor"},
	{0, "Unsuitable"},
}

// Rating converts an internal score in [0,100] to a 0-10 display rating
// (one decimal) and its description.
func Rating(internal float64) (float64, string) {
	internal = math.Max(0, math.Min(100, internal))
	display := math.Round(internal) / 10
	for _, band := range ratingBands {
		if internal >= band.floor {
			return display, band.label
		}
	}
	return display, ratingBands[len(ratingBands)-1].label
}

// sortResults orders results by internal score descending, candidate ID
// ascending as the tiebreaker so output is deterministic.
func sortResults(results []model.ScoringResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].InternalScore != results[j].InternalScore {
			return results[i].InternalScore > results[j].InternalScore
		}
		return results[i].CandidateID < results[j].CandidateID
	})
}

// failedResult builds the placeholder result for a candidate that could not
// be scored. The batch continues without it.
func failedResult(in Input, method string, w persona.Weights) model.ScoringResult {
	_, label := Rating(0)
	return model.ScoringResult{
		CandidateID:       in.CandidateID,
		Method:            method,
		RatingDescription: label,
		ComponentScores:   model.ComponentScores{},
		Weights:           w,
		DistancesKm:       in.Distances,
		Enriched:          false,
		Error:             in.Err,
	}
}
