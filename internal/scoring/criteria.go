package scoring

import (
	"math"
	"strings"

	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/model"
)

// minTolerance floors the Gaussian tolerance to avoid division by zero.
const minTolerance = 1e-6

// CapacityFit scores how well a candidate's capacity matches an ideal value
// using a Gaussian bell: 100*exp(-(c-i)^2 / (2t^2)) with t = i*factor. The
// score is 100 only at capacity == ideal and is symmetric about it.
func CapacityFit(capacityMW, idealMW, toleranceFactor float64) float64 {
	if idealMW <= 0 {
		return 0
	}
	t := math.Max(idealMW*toleranceFactor, minTolerance)
	diff := capacityMW - idealMW
	return clamp(100 * math.Exp(-(diff*diff)/(2*t*t)))
}

// GridConnection is the composite connection-speed criterion: half the score
// comes from the development stage, the rest from substation and
// transmission proximity. A nil distance contributes zero for its decay term.
func GridConnection(stageScore float64, substationKm, transmissionKm *float64, p Params) float64 {
	score := 0.5 * stageScore
	if substationKm != nil {
		score += 0.3 * geo.DecayScore(*substationKm, p.SubstationHalfKm, p.DecayCutoffKm)
	}
	if transmissionKm != nil {
		score += 0.2 * geo.DecayScore(*transmissionKm, p.TransmissionHalfKm, p.DecayCutoffKm)
	}
	return clamp(score)
}

// DigitalInfrastructure blends fiber-route and IXP proximity decay.
func DigitalInfrastructure(fiberKm, ixpKm *float64, p Params) float64 {
	var score float64
	if fiberKm != nil {
		score += 0.6 * geo.DecayScore(*fiberKm, p.FiberHalfKm, p.DecayCutoffKm)
	}
	if ixpKm != nil {
		score += 0.4 * geo.DecayScore(*ixpKm, p.IXPHalfKm, p.DecayCutoffKm)
	}
	return clamp(score)
}

// WaterCooling scores proximity to the nearest water resource. The short
// half-distance reflects how quickly cooling economics degrade with distance.
func WaterCooling(waterKm *float64, p Params) float64 {
	if waterKm == nil {
		return 0
	}
	return clamp(geo.DecayScore(*waterKm, p.WaterHalfKm, p.DecayCutoffKm))
}

// developmentStageScores maps normalized development statuses to fixed
// scores. Earlier-stage projects score higher: an acquirer wants sites it
// can still shape.
var developmentStageScores = map[string]float64{
	"application submitted": 100,
	"scoping":               90,
	"pre-planning":          80,
	"pre planning":          80,
	"consented":             70,
	"approved":              70,
	"planning granted":      70,
	"awaiting construction": 50,
	"in construction":       30,
	"under construction":    30,
	"operational":           10,
	"decommissioned":        0,
}

// unknownStageScore is the conservative default for unrecognized statuses.
const unknownStageScore = 50

// LandPlanning maps a development status string to a fixed score.
// Unrecognized statuses get a conservative mid-range default, never an error.
func LandPlanning(status string) float64 {
	if s, ok := developmentStageScores[normalizeStatus(status)]; ok {
		return s
	}
	return unknownStageScore
}

func normalizeStatus(status string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(status))), " ")
}

// Resilience accumulates discrete redundancy points, capped at 10 and scaled
// to [0,100]: close substations, transmission access, and storage-capable
// technologies all contribute.
func Resilience(substationKm, transmissionKm *float64, technology string) float64 {
	points := 0
	if substationKm != nil {
		switch {
		case *substationKm < 15:
			points += 4
		case *substationKm < 30:
			points += 3
		}
	}
	if transmissionKm != nil && *transmissionKm < 30 {
		points += 2
	}
	tech := strings.ToLower(technology)
	if strings.Contains(tech, "battery") || strings.Contains(tech, "storage") {
		points++
	}
	if strings.Contains(tech, "hybrid") {
		points += 3
	}
	if points > 10 {
		points = 10
	}
	return float64(points) * 10
}

// technologyEconomics holds baseline all-in cost and a typical capacity
// factor per technology class.
type technologyEconomics struct {
	baselineCostPerMWh float64
	capacityFactor     float64
}

var techEconomics = map[string]technologyEconomics{
	"solar":         {baselineCostPerMWh: 45, capacityFactor: 0.24},
	"onshore_wind":  {baselineCostPerMWh: 42, capacityFactor: 0.35},
	"offshore_wind": {baselineCostPerMWh: 55, capacityFactor: 0.45},
	"battery":       {baselineCostPerMWh: 60, capacityFactor: 0.30},
	"hybrid":        {baselineCostPerMWh: 50, capacityFactor: 0.38},
}

var defaultTechEconomics = technologyEconomics{baselineCostPerMWh: 50, capacityFactor: 0.35}

// referenceCapacityFactor anchors the capacity-factor cost adjustment.
const referenceCapacityFactor = 0.35

// Fixed cost band for budget-free normalization, GBP per MWh.
const (
	costBandLow  = 30.0
	costBandHigh = 80.0
)

// EstimateCostPerMWh estimates all-in cost from the technology baseline
// adjusted for its capacity factor, plus an optional zone-derived delta.
func EstimateCostPerMWh(technology string, zoneCostDelta *float64) float64 {
	econ, ok := techEconomics[normalizeTech(technology)]
	if !ok {
		econ = defaultTechEconomics
	}
	cost := econ.baselineCostPerMWh * (referenceCapacityFactor / math.Max(econ.capacityFactor, 0.05))
	if zoneCostDelta != nil {
		cost += *zoneCostDelta
	}
	return cost
}

func normalizeTech(technology string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(technology)), " ", "_")
}

// PriceSensitivity scores estimated cost against a budget when one is
// supplied: full credit below 90% of budget, partial credit up to budget,
// then a linear penalty of 2 points per percent over. Without a budget the
// cost is normalized linearly against the fixed 30-80 GBP/MWh band.
func PriceSensitivity(technology string, zoneCostDelta, budgetPerMWh *float64) float64 {
	cost := EstimateCostPerMWh(technology, zoneCostDelta)

	if budgetPerMWh != nil && *budgetPerMWh > 0 {
		budget := *budgetPerMWh
		switch {
		case cost <= 0.9*budget:
			return 100
		case cost <= budget:
			// 100 down to 60 across the last 10% of budget.
			return clamp(60 + 40*(budget-cost)/(0.1*budget))
		default:
			overPct := (cost/budget - 1) * 100
			return clamp(60 - 2*overPct)
		}
	}

	return clamp(100 * (costBandHigh - cost) / (costBandHigh - costBandLow))
}

// Compute assembles the full component score map for a candidate from its
// proximity result. Types absent from prox were unavailable upstream; their
// dependent criteria fall back to their documented defaults.
func Compute(c *model.Candidate, prox model.ProximityResult, p Params) model.ComponentScores {
	ideal := p.DefaultIdealMW
	if c.IdealMW != nil && *c.IdealMW > 0 {
		ideal = *c.IdealMW
	}

	stage := LandPlanning(c.DevelopmentStatus)

	cs := model.ComponentScores{
		model.CriterionCapacityFit:   CapacityFit(c.CapacityMW, ideal, p.ToleranceFactor),
		model.CriterionGridConn:      GridConnection(stage, prox[geo.Substation], prox[geo.TransmissionLine], p),
		model.CriterionDigitalInfra:  DigitalInfrastructure(prox[geo.FiberRoute], prox[geo.IXP], p),
		model.CriterionWaterCooling:  WaterCooling(prox[geo.WaterResource], p),
		model.CriterionLandPlanning:  stage,
		model.CriterionResilience:    Resilience(prox[geo.Substation], prox[geo.TransmissionLine], c.TechnologyType),
		model.CriterionPriceSensitiv: PriceSensitivity(c.TechnologyType, nil, c.MaxPricePerMWh),
	}
	return cs.Clamp()
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
