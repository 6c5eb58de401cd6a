package rank

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

func TestWeighted_Score(t *testing.T) {
	w := uniform()
	batch := []Input{
		{CandidateID: "low", Scores: flatScores(20)},
		{CandidateID: "high", Scores: flatScores(90)},
		{CandidateID: "mid", Scores: flatScores(50)},
	}

	s := &Weighted{Params: DefaultWeightedParams()}
	results, err := s.Score(batch, w)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "high", results[0].CandidateID)
	assert.Equal(t, "mid", results[1].CandidateID)
	assert.Equal(t, "low", results[2].CandidateID)

	for _, r := range results {
		assert.Equal(t, MethodWeighted, r.Method)
		assert.GreaterOrEqual(t, r.InternalScore, 0.0)
		assert.LessOrEqual(t, r.InternalScore, 100.0)
		assert.Len(t, r.WeightedContributions, len(model.Criteria))
	}
}

func TestWeighted_RejectsInvalidWeights(t *testing.T) {
	s := &Weighted{Params: DefaultWeightedParams()}
	_, err := s.Score([]Input{{CandidateID: "a", Scores: flatScores(50)}}, persona.Weights{"capacity_fit": 1})
	assert.Error(t, err)
}

func TestWeighted_DefaultsMatchPlainWeightedSumOrder(t *testing.T) {
	// With default parameters the pipeline is a monotone transform of the
	// plain weighted sum, so the ranking order must be identical.
	w := persona.Weights{
		model.CriterionCapacityFit:   0.25,
		model.CriterionGridConn:      0.20,
		model.CriterionDigitalInfra:  0.20,
		model.CriterionWaterCooling:  0.10,
		model.CriterionLandPlanning:  0.10,
		model.CriterionResilience:    0.10,
		model.CriterionPriceSensitiv: 0.05,
	}

	batch := []Input{
		{CandidateID: "a", Scores: model.ComponentScores{
			"capacity_fit": 80, "grid_connection": 20, "digital_infrastructure": 60,
			"water_cooling": 40, "land_planning": 90, "resilience": 30, "price_sensitivity": 70,
		}},
		{CandidateID: "b", Scores: model.ComponentScores{
			"capacity_fit": 30, "grid_connection": 85, "digital_infrastructure": 45,
			"water_cooling": 70, "land_planning": 20, "resilience": 90, "price_sensitivity": 10,
		}},
		{CandidateID: "c", Scores: flatScores(55)},
		{CandidateID: "d", Scores: model.ComponentScores{
			"capacity_fit": 95, "grid_connection": 95, "digital_infrastructure": 90,
			"water_cooling": 80, "land_planning": 85, "resilience": 75, "price_sensitivity": 88,
		}},
	}

	s := &Weighted{Params: DefaultWeightedParams()}
	results, err := s.Score(batch, w)
	require.NoError(t, err)

	type ranked struct {
		id  string
		sum float64
	}
	plain := make([]ranked, 0, len(batch))
	for _, in := range batch {
		var sum float64
		for k, weight := range w {
			sum += weight * in.Scores[k]
		}
		plain = append(plain, ranked{id: in.CandidateID, sum: sum})
	}
	sort.Slice(plain, func(i, j int) bool { return plain[i].sum > plain[j].sum })

	for i := range plain {
		assert.Equal(t, plain[i].id, results[i].CandidateID, "rank %d", i)
	}
}

func TestAggregateWeighted_Bounds(t *testing.T) {
	p := DefaultWeightedParams()
	w := uniform()

	perfect, _ := aggregateWeighted(flatScores(100), w, p)
	zero, _ := aggregateWeighted(flatScores(0), w, p)
	mid, _ := aggregateWeighted(flatScores(50), w, p)

	assert.Greater(t, perfect, mid)
	assert.Greater(t, mid, zero)

	// Default sigmoid: steepness 4 around midpoint 0.5.
	assert.InDelta(t, 100/(1+math.Exp(-2)), perfect, 1e-6)
	assert.InDelta(t, 50, mid, 1e-6)
	assert.InDelta(t, 100/(1+math.Exp(2)), zero, 1e-6)
}

func TestAggregateWeighted_ZeroPosteriorFallsBackToPrior(t *testing.T) {
	// All-zero evidence with beta > 0 zeroes every posterior weight; the
	// pipeline must fall back to the prior instead of dividing by zero.
	p := DefaultWeightedParams()
	p.Beta = 1.0

	internal, contributions := aggregateWeighted(flatScores(0), uniform(), p)
	assert.False(t, math.IsNaN(internal))
	for k, c := range contributions {
		assert.False(t, math.IsNaN(c), k)
		assert.Equal(t, 0.0, c, k)
	}
}

func TestAggregateWeighted_BetaShiftsTowardEvidence(t *testing.T) {
	// With beta > 0, strong criteria pull posterior weight toward themselves,
	// raising the score of a candidate whose strength lies in one criterion.
	scores := model.ComponentScores{
		"capacity_fit": 100, "grid_connection": 20, "digital_infrastructure": 20,
		"water_cooling": 20, "land_planning": 20, "resilience": 20, "price_sensitivity": 20,
	}
	w := uniform()

	base := DefaultWeightedParams()
	evidenceWeighted := DefaultWeightedParams()
	evidenceWeighted.Beta = 1.0

	plain, _ := aggregateWeighted(scores, w, base)
	shifted, _ := aggregateWeighted(scores, w, evidenceWeighted)
	assert.Greater(t, shifted, plain)
}

func TestAggregateWeighted_FusionTerms(t *testing.T) {
	w := uniform()
	scores := flatScores(60)

	// Pure geometric fusion on flat scores equals pure additive fusion.
	additive := DefaultWeightedParams()
	geometric := DefaultWeightedParams()
	geometric.FusionA, geometric.FusionB = 0, 1

	a, _ := aggregateWeighted(scores, w, additive)
	g, _ := aggregateWeighted(scores, w, geometric)
	assert.InDelta(t, a, g, 1e-9)

	// Closeness fusion with on-target scores maxes the closeness term.
	closeness := DefaultWeightedParams()
	closeness.FusionA, closeness.FusionC = 0, 1
	closeness.Targets = map[string]float64{}
	for _, k := range model.Criteria {
		closeness.Targets[k] = 0.6
	}
	c, _ := aggregateWeighted(scores, w, closeness)

	offTarget := closeness
	offTarget.Targets = map[string]float64{}
	for _, k := range model.Criteria {
		offTarget.Targets[k] = 0.1
	}
	o, _ := aggregateWeighted(scores, w, offTarget)
	assert.Greater(t, c, o)
}

func TestWeighted_FailedInputCarriedThrough(t *testing.T) {
	batch := []Input{
		{CandidateID: "ok", Scores: flatScores(80)},
		{CandidateID: "broken", Err: "candidate broken: capacity_mw must be positive"},
	}

	s := &Weighted{Params: DefaultWeightedParams()}
	results, err := s.Score(batch, uniform())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "ok", results[0].CandidateID)
	assert.Equal(t, "broken", results[1].CandidateID)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, 0.0, results[1].InternalScore)
	assert.Equal(t, "Unsuitable", results[1].RatingDescription)
}
