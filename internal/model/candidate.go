// Package model defines the request and response types shared across the
// scoring engine: candidates, the canonical criteria set, component scores,
// proximity results, and the final scoring result.
package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Candidate is one site being scored within a batch. It is ephemeral
// per-request input; nothing in the engine retains it after the response.
type Candidate struct {
	ID                string   `json:"id"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	CapacityMW        float64  `json:"capacity_mw"`
	TechnologyType    string   `json:"technology_type"`
	DevelopmentStatus string   `json:"development_status"`
	IdealMW           *float64 `json:"ideal_mw,omitempty"`
	MaxPricePerMWh    *float64 `json:"max_price_per_mwh,omitempty"`
}

// Validate rejects malformed candidates before scoring. Coordinates outside
// the usual ranges are allowed through: a point in the middle of an ocean
// simply finds no nearby infrastructure. Missing or non-finite values are
// hard validation errors, never coerced.
func (c *Candidate) Validate() error {
	if c.ID == "" {
		return eris.New("candidate: id is required")
	}
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return eris.Errorf("candidate %s: latitude is not a finite number", c.ID)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return eris.Errorf("candidate %s: longitude is not a finite number", c.ID)
	}
	if c.CapacityMW <= 0 || math.IsNaN(c.CapacityMW) || math.IsInf(c.CapacityMW, 0) {
		return eris.Errorf("candidate %s: capacity_mw must be positive, got %v", c.ID, c.CapacityMW)
	}
	return nil
}
