// Package persona provides the stakeholder weight registry and the dynamic
// weight generators. Every vector handed to the aggregation engine, static
// or generated, passes the same validator first.
package persona

import (
	"fmt"
	"math"

	"github.com/gridsight/siterank/internal/model"
)

// Weights maps each of the seven criteria to a non-negative weight.
type Weights map[string]float64

// Validation thresholds. A vector must sum to 1 within SumTolerance, no
// single criterion may dominate past MaxWeight, and at least MinActive
// criteria must carry meaningful weight.
const (
	SumTolerance    = 1e-3
	MaxWeight       = 0.5
	ActiveThreshold = 0.05
	MinActive       = 3
)

// ValidationError describes a violated weight-vector rule and the offending
// value. It is a hard error: vectors are never silently coerced.
type ValidationError struct {
	Rule   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("persona: invalid weights (%s): %s", e.Rule, e.Detail)
}

// Validate checks a weight vector against every rule: all seven criteria
// present and non-negative, sum within tolerance of 1, no weight above the
// dominance cap, and enough criteria actively weighted.
func Validate(w Weights) error {
	for _, k := range model.Criteria {
		v, ok := w[k]
		if !ok {
			return &ValidationError{Rule: "missing_criterion", Detail: fmt.Sprintf("criterion %q is absent", k)}
		}
		if v < 0 || math.IsNaN(v) {
			return &ValidationError{Rule: "negative_weight", Detail: fmt.Sprintf("criterion %q has weight %v", k, v)}
		}
	}
	if len(w) != len(model.Criteria) {
		return &ValidationError{Rule: "unknown_criterion", Detail: fmt.Sprintf("vector has %d entries, expected %d", len(w), len(model.Criteria))}
	}

	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1.0) > SumTolerance {
		return &ValidationError{Rule: "sum", Detail: fmt.Sprintf("weights sum to %.4f, must be 1.0 +/- %.0e", sum, SumTolerance)}
	}

	active := 0
	for k, v := range w {
		if v > MaxWeight {
			return &ValidationError{Rule: "max_weight", Detail: fmt.Sprintf("criterion %q has weight %.4f, cap is %.2f", k, v, MaxWeight)}
		}
		if v > ActiveThreshold {
			active++
		}
	}
	if active < MinActive {
		return &ValidationError{Rule: "min_active", Detail: fmt.Sprintf("only %d criteria above %.2f, need at least %d", active, ActiveThreshold, MinActive)}
	}

	return nil
}

// Clone returns an independent copy of the vector.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// normalize scales the vector to sum to 1. A zero-sum vector is returned
// unchanged; the validator will reject it with a descriptive error.
func normalize(w Weights) Weights {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		return w
	}
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out
}
