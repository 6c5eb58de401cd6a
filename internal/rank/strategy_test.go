package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

func uniform() persona.Weights {
	w := make(persona.Weights, len(model.Criteria))
	for _, k := range model.Criteria {
		w[k] = 1.0 / float64(len(model.Criteria))
	}
	return w
}

func flatScores(v float64) model.ComponentScores {
	cs := make(model.ComponentScores, len(model.Criteria))
	for _, k := range model.Criteria {
		cs[k] = v
	}
	return cs
}

func TestForMethod(t *testing.T) {
	s, err := ForMethod("", DefaultWeightedParams())
	require.NoError(t, err)
	assert.Equal(t, MethodWeighted, s.Name())

	s, err = ForMethod(MethodWeighted, DefaultWeightedParams())
	require.NoError(t, err)
	assert.Equal(t, MethodWeighted, s.Name())

	s, err = ForMethod(MethodTOPSIS, DefaultWeightedParams())
	require.NoError(t, err)
	assert.Equal(t, MethodTOPSIS, s.Name())

	_, err = ForMethod("electre", DefaultWeightedParams())
	assert.Error(t, err)
}

func TestRating(t *testing.T) {
	tests := []struct {
		internal float64
		display  float64
		label    string
	}{
		{95, 9.5, "Exceptional"},
		{90, 9.0, "Exceptional"},
		{89.9, 9.0, "Excellent"},
		{80, 8.0, "Excellent"},
		{75, 7.5, "Very Good"},
		{65, 6.5, "Good"},
		{55, 5.5, "Above Average"},
		{45, 4.5, "Average"},
		{35, 3.5, "Below Average"},
		{25, 2.5, "Poor"},
		{19.9, 2.0, "Unsuitable"},
		{0, 0, "Unsuitable"},
		{150, 10, "Exceptional"},
		{-5, 0, "Unsuitable"},
	}

	for _, tt := range tests {
		display, label := Rating(tt.internal)
		assert.InDelta(t, tt.display, display, 1e-9, "internal=%v", tt.internal)
		assert.Equal(t, tt.label, label, "internal=%v", tt.internal)
	}
}

func TestRating_DisplayRounding(t *testing.T) {
	// Display ratings round the internal score to the nearest point before
	// dividing, so 87.6 shows as 8.8.
	display, _ := Rating(87.6)
	assert.InDelta(t, 8.8, display, 1e-9)
	display, _ = Rating(87.4)
	assert.InDelta(t, 8.7, display, 1e-9)
}

func TestSortResults_Deterministic(t *testing.T) {
	results := []model.ScoringResult{
		{CandidateID: "b", InternalScore: 50},
		{CandidateID: "c", InternalScore: 70},
		{CandidateID: "a", InternalScore: 50},
	}
	sortResults(results)
	assert.Equal(t, "c", results[0].CandidateID)
	assert.Equal(t, "a", results[1].CandidateID)
	assert.Equal(t, "b", results[2].CandidateID)
}
