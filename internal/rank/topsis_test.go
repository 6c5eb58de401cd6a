package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterank/internal/model"
)

func topsisBatch() []Input {
	return []Input{
		{CandidateID: "strong", Scores: model.ComponentScores{
			"capacity_fit": 90, "grid_connection": 85, "digital_infrastructure": 80,
			"water_cooling": 70, "land_planning": 90, "resilience": 75, "price_sensitivity": 85,
		}},
		{CandidateID: "weak", Scores: model.ComponentScores{
			"capacity_fit": 20, "grid_connection": 25, "digital_infrastructure": 30,
			"water_cooling": 15, "land_planning": 10, "resilience": 20, "price_sensitivity": 25,
		}},
		{CandidateID: "middling", Scores: flatScores(50)},
	}
}

func TestTOPSIS_Score(t *testing.T) {
	s := &TOPSIS{}
	results, err := s.Score(topsisBatch(), uniform())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "strong", results[0].CandidateID)
	assert.Equal(t, "weak", results[2].CandidateID)

	for _, r := range results {
		assert.Equal(t, MethodTOPSIS, r.Method)
		// Internal scores live on the calibrated 10-100 band.
		assert.GreaterOrEqual(t, r.InternalScore, 10.0)
		assert.LessOrEqual(t, r.InternalScore, 100.0)

		require.NotNil(t, r.Diagnostics)
		assert.Contains(t, r.Diagnostics, "closeness")
		assert.Contains(t, r.Diagnostics, "d_ideal")
		assert.Contains(t, r.Diagnostics, "d_anti")
		assert.Contains(t, r.Diagnostics, "ideal")
		assert.Contains(t, r.Diagnostics, "anti_ideal")
		assert.Equal(t, 3, r.Diagnostics["batch_size"])
	}

	// The batch extremes define the ideal and anti-ideal, so their closeness
	// is exactly 1 and 0.
	assert.InDelta(t, 100, results[0].InternalScore, 1e-9)
	assert.InDelta(t, 10, results[2].InternalScore, 1e-9)
}

func TestTOPSIS_OrderInvariant(t *testing.T) {
	// Reordering the batch must not change any candidate's score.
	s := &TOPSIS{}

	forward, err := s.Score(topsisBatch(), uniform())
	require.NoError(t, err)

	batch := topsisBatch()
	batch[0], batch[2] = batch[2], batch[0]
	reversed, err := s.Score(batch, uniform())
	require.NoError(t, err)

	byID := map[string]float64{}
	for _, r := range reversed {
		byID[r.CandidateID] = r.InternalScore
	}
	for _, r := range forward {
		assert.InDelta(t, byID[r.CandidateID], r.InternalScore, 1e-9, r.CandidateID)
	}
}

func TestTOPSIS_SetSensitive(t *testing.T) {
	// Scores are batch-relative: removing the weak candidate changes the
	// anti-ideal and with it the survivors' scores.
	s := &TOPSIS{}

	full, err := s.Score(topsisBatch(), uniform())
	require.NoError(t, err)

	trimmed, err := s.Score([]Input{topsisBatch()[0], topsisBatch()[2]}, uniform())
	require.NoError(t, err)

	fullMid := scoreOf(t, full, "middling")
	trimmedMid := scoreOf(t, trimmed, "middling")
	assert.Greater(t, math.Abs(fullMid-trimmedMid), 1e-6,
		"middling's score must move when the batch changes")
}

func scoreOf(t *testing.T, results []model.ScoringResult, id string) float64 {
	t.Helper()
	for _, r := range results {
		if r.CandidateID == id {
			return r.InternalScore
		}
	}
	t.Fatalf("candidate %s not in results", id)
	return 0
}

func TestTOPSIS_IdenticalCandidates(t *testing.T) {
	// All-identical rows make both separation distances zero; closeness
	// defaults to the midpoint instead of dividing by zero.
	s := &TOPSIS{}
	results, err := s.Score([]Input{
		{CandidateID: "a", Scores: flatScores(60)},
		{CandidateID: "b", Scores: flatScores(60)},
	}, uniform())
	require.NoError(t, err)

	for _, r := range results {
		assert.InDelta(t, 10+0.5*90, r.InternalScore, 1e-9)
	}
}

func TestTOPSIS_ZeroVarianceColumn(t *testing.T) {
	// One criterion scored zero across the whole batch must not produce NaNs.
	batch := []Input{
		{CandidateID: "a", Scores: model.ComponentScores{
			"capacity_fit": 80, "grid_connection": 60, "digital_infrastructure": 0,
			"water_cooling": 50, "land_planning": 70, "resilience": 40, "price_sensitivity": 55,
		}},
		{CandidateID: "b", Scores: model.ComponentScores{
			"capacity_fit": 40, "grid_connection": 30, "digital_infrastructure": 0,
			"water_cooling": 20, "land_planning": 35, "resilience": 25, "price_sensitivity": 45,
		}},
	}

	s := &TOPSIS{}
	results, err := s.Score(batch, uniform())
	require.NoError(t, err)
	assert.Equal(t, "a", results[0].CandidateID)
	for _, r := range results {
		assert.False(t, r.InternalScore != r.InternalScore, "NaN internal score")
	}
}

func TestTOPSIS_FailedExcludedFromMatrix(t *testing.T) {
	// A failed candidate must not drag the anti-ideal to zero for everyone.
	base := topsisBatch()[:2]
	withFailed := append([]Input{}, base...)
	withFailed = append(withFailed, Input{CandidateID: "broken", Err: "validation failed"})

	s := &TOPSIS{}
	clean, err := s.Score(base, uniform())
	require.NoError(t, err)
	mixed, err := s.Score(withFailed, uniform())
	require.NoError(t, err)
	require.Len(t, mixed, 3)

	for _, id := range []string{"strong", "weak"} {
		assert.InDelta(t, scoreOf(t, clean, id), scoreOf(t, mixed, id), 1e-9, id)
	}

	last := mixed[len(mixed)-1]
	assert.Equal(t, "broken", last.CandidateID)
	assert.NotEmpty(t, last.Error)
}
