package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecayScore(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		half     float64
		cutoff   float64
		expected float64
		delta    float64
	}{
		{"zero distance is 100", 0, 35, 200, 100, 1e-9},
		{"negative distance treated as zero", -5, 35, 200, 100, 1e-9},
		{"half distance is 100/e", 35, 35, 200, 36.79, 0.01},
		{"at cutoff is hard zero", 200, 35, 200, 0, 0},
		{"beyond cutoff is hard zero", 500, 35, 200, 0, 0},
		{"just inside cutoff is positive", 199.9, 35, 200, 100 * 0.0033, 0.2},
		{"zero cutoff disables the hard zero", 500, 35, 0, 0.00006, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayScore(tt.distance, tt.half, tt.cutoff), tt.delta)
		})
	}
}

func TestDecayScore_Monotonic(t *testing.T) {
	prev := DecayScore(0, 50, DefaultDecayCutoffKm)
	for d := 1.0; d < DefaultDecayCutoffKm; d += 1.0 {
		s := DecayScore(d, 50, DefaultDecayCutoffKm)
		assert.LessOrEqual(t, s, prev, "score must not increase with distance at %.0f km", d)
		prev = s
	}
}

func TestDecayScore_ZeroHalfDistance(t *testing.T) {
	// A degenerate half-distance must not divide by zero.
	assert.Equal(t, 0.0, DecayScore(10, 0, 200))
	assert.Equal(t, 100.0, DecayScore(0, 0, 200))
}
