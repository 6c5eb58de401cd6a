package persona

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gridsight/siterank/internal/model"
)

// Adjustment records one constraint-driven weight boost and why it was
// applied.
type Adjustment struct {
	Criterion string  `json:"criterion"`
	Factor    float64 `json:"factor"`
	Reason    string  `json:"reason"`
}

// Constraints is the structured input to constraint-based generation.
type Constraints struct {
	MaxBudgetPerMWh   *float64 `json:"max_budget_per_mwh,omitempty"`
	TimelineMonths    *int     `json:"timeline_months,omitempty"`
	RequireRedundancy bool     `json:"require_redundancy,omitempty"`
}

// tightTimelineMonths is the deployment timeline at or below which
// planning-speed criteria get boosted.
const tightTimelineMonths = 12

// FromPriorities derives weights from 1-5 importance ratings per criterion,
// optionally blended with a named persona. Each weight is the criterion's
// importance divided by the total; blendFactor is the persona's share of the
// final vector.
func FromPriorities(priorities map[string]int, blendWith string, blendFactor float64) (Weights, string, error) {
	if len(priorities) == 0 {
		return nil, "", eris.New("persona: priorities are empty")
	}
	for k, v := range priorities {
		if !isCriterion(k) {
			return nil, "", eris.Errorf("persona: unknown criterion %q in priorities", k)
		}
		if v < 1 || v > 5 {
			return nil, "", eris.Errorf("persona: priority for %q must be 1-5, got %d", k, v)
		}
	}

	var total int
	for _, v := range priorities {
		total += v
	}
	w := make(Weights, len(model.Criteria))
	for _, k := range model.Criteria {
		w[k] = float64(priorities[k]) / float64(total)
	}

	method := fmt.Sprintf("priority-based: importance ratings normalized over %d total points", total)

	if blendWith != "" {
		if blendFactor < 0 || blendFactor > 1 {
			return nil, "", eris.Errorf("persona: blend factor must be in [0,1], got %v", blendFactor)
		}
		base, err := Get(blendWith)
		if err != nil {
			return nil, "", err
		}
		for _, k := range model.Criteria {
			w[k] = (1-blendFactor)*w[k] + blendFactor*base.Weights[k]
		}
		method += fmt.Sprintf("; blended %.0f%% with persona %q", blendFactor*100, blendWith)
	}

	if err := Validate(w); err != nil {
		return nil, "", err
	}
	return w, method, nil
}

// FromConstraints starts from a named persona's vector, applies
// multiplicative boosts keyed to the supplied constraints, renormalizes, and
// reports every boost with its triggering reason. A renormalized vector that
// still violates a validation rule is an error, not a silent fix.
func FromConstraints(base string, c Constraints) (Weights, string, []Adjustment, error) {
	profile, err := Get(base)
	if err != nil {
		return nil, "", nil, err
	}
	w := profile.Weights.Clone()

	var adjustments []Adjustment
	boost := func(criterion string, factor float64, reason string) {
		w[criterion] *= factor
		adjustments = append(adjustments, Adjustment{Criterion: criterion, Factor: factor, Reason: reason})
	}

	if c.MaxBudgetPerMWh != nil {
		boost(model.CriterionPriceSensitiv, 1.5,
			fmt.Sprintf("budget cap of %.2f/MWh makes price a binding constraint", *c.MaxBudgetPerMWh))
	}
	if c.TimelineMonths != nil && *c.TimelineMonths <= tightTimelineMonths {
		boost(model.CriterionLandPlanning, 1.4,
			fmt.Sprintf("deployment timeline of %d months favors consent-ready sites", *c.TimelineMonths))
		boost(model.CriterionGridConn, 1.3,
			fmt.Sprintf("deployment timeline of %d months favors fast grid connection", *c.TimelineMonths))
	}
	if c.RequireRedundancy {
		boost(model.CriterionResilience, 1.5, "mandatory redundancy requirement")
	}

	w = normalize(w)
	if err := Validate(w); err != nil {
		return nil, "", nil, err
	}

	method := fmt.Sprintf("constraint-based: persona %q with %d adjustment(s), renormalized", base, len(adjustments))
	return w, method, adjustments, nil
}

// Blend combines two or more named personas by mixing ratios. Ratios are
// normalized if they do not already sum to 1; the result is the elementwise
// weighted arithmetic mean.
func Blend(mix map[string]float64) (Weights, string, error) {
	if len(mix) < 2 {
		return nil, "", eris.Errorf("persona: blend requires at least 2 personas, got %d", len(mix))
	}

	var total float64
	for name, ratio := range mix {
		if ratio < 0 {
			return nil, "", eris.Errorf("persona: negative mixing ratio %v for %q", ratio, name)
		}
		total += ratio
	}
	if total <= 0 {
		return nil, "", eris.New("persona: mixing ratios sum to zero")
	}

	w := make(Weights, len(model.Criteria))
	names := make([]string, 0, len(mix))
	for name, ratio := range mix {
		profile, err := Get(name)
		if err != nil {
			return nil, "", err
		}
		share := ratio / total
		for _, k := range model.Criteria {
			w[k] += share * profile.Weights[k]
		}
		names = append(names, fmt.Sprintf("%s:%.2f", name, share))
	}

	if err := Validate(w); err != nil {
		return nil, "", err
	}
	sort.Strings(names)
	return w, "persona-blend: " + strings.Join(names, ", "), nil
}

// goalAllocations maps each supported objective to its fixed fractional
// allocation across criteria.
var goalAllocations = map[string]Weights{
	"minimize_deployment_time": {
		model.CriterionLandPlanning: 0.5,
		model.CriterionGridConn:     0.3,
		model.CriterionCapacityFit:  0.2,
	},
	"minimize_cost": {
		model.CriterionPriceSensitiv: 0.6,
		model.CriterionGridConn:      0.2,
		model.CriterionCapacityFit:   0.2,
	},
	"maximize_uptime": {
		model.CriterionResilience:   0.5,
		model.CriterionGridConn:     0.3,
		model.CriterionWaterCooling: 0.2,
	},
	"maximize_connectivity": {
		model.CriterionDigitalInfra: 0.6,
		model.CriterionGridConn:     0.2,
		model.CriterionResilience:   0.2,
	},
	"balanced_growth": uniformWeights(),
}

// Goals lists the supported goal names in sorted order.
func Goals() []string {
	names := make([]string, 0, len(goalAllocations))
	for name := range goalAllocations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromGoals derives weights from objective importances: each criterion's
// weight is the importance-weighted sum of the selected goals' allocations
// to it, renormalized.
func FromGoals(goals map[string]float64) (Weights, string, error) {
	if len(goals) == 0 {
		return nil, "", eris.New("persona: no goals supplied")
	}

	w := make(Weights, len(model.Criteria))
	for _, k := range model.Criteria {
		w[k] = 0
	}
	names := make([]string, 0, len(goals))
	for goal, importance := range goals {
		alloc, ok := goalAllocations[goal]
		if !ok {
			return nil, "", eris.Errorf("persona: unsupported goal %q (have %v)", goal, Goals())
		}
		if importance <= 0 {
			return nil, "", eris.Errorf("persona: goal %q importance must be positive, got %v", goal, importance)
		}
		for k, share := range alloc {
			w[k] += importance * share
		}
		names = append(names, goal)
	}

	w = normalize(w)
	if err := Validate(w); err != nil {
		return nil, "", err
	}
	sort.Strings(names)
	return w, "goal-oriented: allocations for " + strings.Join(names, ", "), nil
}

func isCriterion(k string) bool {
	for _, c := range model.Criteria {
		if c == k {
			return true
		}
	}
	return false
}
