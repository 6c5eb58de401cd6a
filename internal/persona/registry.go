package persona

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/gridsight/siterank/internal/model"
)

// Profile is a named stakeholder persona: a validated weight vector plus the
// capacity preferences used by the capacity-fit criterion.
type Profile struct {
	Name            string
	Description     string
	Weights         Weights
	IdealMW         float64
	ToleranceFactor float64
}

// registry is the immutable persona table, constructed at startup. Dynamic
// generators return fresh vectors; nothing ever mutates these entries.
var registry = map[string]Profile{
	"hyperscaler": {
		Name:            "hyperscaler",
		Description:     "Large cloud operator prioritizing capacity and grid access",
		IdealMW:         200,
		ToleranceFactor: 0.4,
		Weights: Weights{
			model.CriterionCapacityFit:   0.25,
			model.CriterionGridConn:      0.20,
			model.CriterionDigitalInfra:  0.20,
			model.CriterionWaterCooling:  0.10,
			model.CriterionLandPlanning:  0.10,
			model.CriterionResilience:    0.10,
			model.CriterionPriceSensitiv: 0.05,
		},
	},
	"colocation": {
		Name:            "colocation",
		Description:     "Multi-tenant operator balancing connectivity and resilience",
		IdealMW:         100,
		ToleranceFactor: 0.5,
		Weights: Weights{
			model.CriterionCapacityFit:   0.10,
			model.CriterionGridConn:      0.20,
			model.CriterionDigitalInfra:  0.30,
			model.CriterionWaterCooling:  0.05,
			model.CriterionLandPlanning:  0.10,
			model.CriterionResilience:    0.15,
			model.CriterionPriceSensitiv: 0.10,
		},
	},
	"edge_computing": {
		Name:            "edge_computing",
		Description:     "Latency-driven deployments near network interconnects",
		IdealMW:         20,
		ToleranceFactor: 0.7,
		Weights: Weights{
			model.CriterionCapacityFit:   0.05,
			model.CriterionGridConn:      0.15,
			model.CriterionDigitalInfra:  0.35,
			model.CriterionWaterCooling:  0.05,
			model.CriterionLandPlanning:  0.15,
			model.CriterionResilience:    0.15,
			model.CriterionPriceSensitiv: 0.10,
		},
	},
	"crypto_mining": {
		Name:            "crypto_mining",
		Description:     "Price-driven flexible load, tolerant of remote sites",
		IdealMW:         50,
		ToleranceFactor: 0.6,
		Weights: Weights{
			model.CriterionCapacityFit:   0.15,
			model.CriterionGridConn:      0.25,
			model.CriterionDigitalInfra:  0.10,
			model.CriterionWaterCooling:  0.05,
			model.CriterionLandPlanning:  0.05,
			model.CriterionResilience:    0.05,
			model.CriterionPriceSensitiv: 0.35,
		},
	},
	"enterprise": {
		Name:            "enterprise",
		Description:     "Corporate buyer weighing planning certainty and uptime",
		IdealMW:         75,
		ToleranceFactor: 0.5,
		Weights: Weights{
			model.CriterionCapacityFit:   0.10,
			model.CriterionGridConn:      0.15,
			model.CriterionDigitalInfra:  0.15,
			model.CriterionWaterCooling:  0.10,
			model.CriterionLandPlanning:  0.20,
			model.CriterionResilience:    0.20,
			model.CriterionPriceSensitiv: 0.10,
		},
	},
	"balanced": {
		Name:            "balanced",
		Description:     "Uniform weighting across all criteria",
		IdealMW:         100,
		ToleranceFactor: 0.5,
		Weights:         uniformWeights(),
	},
}

func uniformWeights() Weights {
	w := make(Weights, len(model.Criteria))
	for _, k := range model.Criteria {
		w[k] = 1.0 / float64(len(model.Criteria))
	}
	return w
}

func init() {
	// A malformed static persona is a programmer error, not a runtime
	// condition.
	for name, p := range registry {
		if err := Validate(p.Weights); err != nil {
			panic(fmt.Sprintf("persona: static profile %q: %v", name, err))
		}
	}
}

// Get returns the named persona profile with an independent weight copy.
func Get(name string) (Profile, error) {
	p, ok := registry[name]
	if !ok {
		return Profile{}, eris.Errorf("persona: unknown persona %q (have %v)", name, Names())
	}
	p.Weights = p.Weights.Clone()
	return p, nil
}

// Names lists the registered persona names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
