package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateValidate(t *testing.T) {
	valid := Candidate{
		ID:             "site-1",
		Latitude:       53.5,
		Longitude:      -1.5,
		CapacityMW:     100,
		TechnologyType: "solar",
	}

	tests := []struct {
		name   string
		mutate func(*Candidate)
		ok     bool
	}{
		{"valid", func(c *Candidate) {}, true},
		{"missing id", func(c *Candidate) { c.ID = "" }, false},
		{"NaN latitude", func(c *Candidate) { c.Latitude = math.NaN() }, false},
		{"infinite longitude", func(c *Candidate) { c.Longitude = math.Inf(1) }, false},
		{"zero capacity", func(c *Candidate) { c.CapacityMW = 0 }, false},
		{"negative capacity", func(c *Candidate) { c.CapacityMW = -10 }, false},
		{"NaN capacity", func(c *Candidate) { c.CapacityMW = math.NaN() }, false},
		{"out-of-range coords allowed", func(c *Candidate) { c.Latitude = 95; c.Longitude = 190 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestComponentScoresClamp(t *testing.T) {
	cs := ComponentScores{
		CriterionCapacityFit:  120,
		CriterionGridConn:     -5,
		CriterionResilience:   math.NaN(),
		CriterionWaterCooling: 55,
	}
	cs.Clamp()

	assert.Equal(t, 100.0, cs[CriterionCapacityFit])
	assert.Equal(t, 0.0, cs[CriterionGridConn])
	assert.Equal(t, 0.0, cs[CriterionResilience])
	assert.Equal(t, 55.0, cs[CriterionWaterCooling])
}
