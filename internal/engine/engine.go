// Package engine orchestrates scoring batches: proximity lookups against the
// catalog, component score computation, aggregation, and the optional
// zone-enrichment pass. Batches are independent of each other; the catalog
// is the only shared state.
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsight/siterank/internal/catalog"
	"github.com/gridsight/siterank/internal/geo"
	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
	"github.com/gridsight/siterank/internal/rank"
	"github.com/gridsight/siterank/internal/scoring"
)

// Options tunes batch execution.
type Options struct {
	// MaxRadiusKm caps every nearest-feature search.
	MaxRadiusKm float64
	// Concurrency limits the per-candidate fan-out within a batch.
	Concurrency int
	// Scoring holds the component-score constants.
	Scoring scoring.Params
	// ZoneTopN is how many top-ranked candidates the enrichment pass
	// re-scores.
	ZoneTopN int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		MaxRadiusKm: 100,
		Concurrency: 8,
		Scoring:     scoring.DefaultParams(),
		ZoneTopN:    10,
	}
}

// Request is one scoring batch. Either Persona or Weights selects the weight
// vector; Weights wins when both are set.
type Request struct {
	Candidates []model.Candidate
	Persona    string
	Weights    persona.Weights
	Method     string
	Params     *rank.WeightedParams
	Zones      []rank.Zone
	Enrich     bool
}

// Engine scores candidate batches against the infrastructure catalog.
type Engine struct {
	catalog *catalog.Catalog
	opts    Options
}

// New creates an engine.
func New(cat *catalog.Catalog, opts Options) *Engine {
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = DefaultOptions().MaxRadiusKm
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.ZoneTopN <= 0 {
		opts.ZoneTopN = DefaultOptions().ZoneTopN
	}
	return &Engine{catalog: cat, opts: opts}
}

// ScoreBatch scores every candidate and returns results sorted by internal
// score descending. A single candidate's failure is recorded on its result
// and never aborts the batch.
func (e *Engine) ScoreBatch(ctx context.Context, req Request) ([]model.ScoringResult, error) {
	if len(req.Candidates) == 0 {
		return nil, eris.New("engine: no candidates supplied")
	}

	weights, params, err := e.resolveWeights(req)
	if err != nil {
		return nil, err
	}
	if req.Enrich && req.Method != "" && req.Method != rank.MethodWeighted {
		return nil, eris.Errorf("engine: zone enrichment requires the %s method", rank.MethodWeighted)
	}
	if req.Enrich && len(req.Zones) == 0 {
		return nil, eris.New("engine: zone enrichment requested but no zones supplied")
	}

	wp := rank.DefaultWeightedParams()
	if req.Params != nil {
		wp = *req.Params
	}
	strategy, err := rank.ForMethod(req.Method, wp)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	log := zap.L().With(zap.String("component", "engine"), zap.String("batch_id", batchID))

	// Phase 1: fan out per-candidate proximity and component scoring. The
	// grid index is read-only here, so candidates share it freely.
	inputs := make([]rank.Input, len(req.Candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range req.Candidates {
		i := i
		g.Go(func() error {
			inputs[i] = e.scoreCandidate(gctx, &req.Candidates[i], params)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: batch cancelled")
	}

	// Phase 2: aggregation barrier. TOPSIS needs every candidate's scores
	// before any closeness can be finalized; the weighted method uses the
	// same path for uniformity.
	results, err := strategy.Score(inputs, weights)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].BatchID = batchID
	}

	// Phase 3: optional zone enrichment over the top-ranked results.
	if req.Enrich {
		results = rank.EnrichZones(results, inputs, req.Zones, weights, wp, e.opts.ZoneTopN)
	}

	log.Info("engine: batch scored",
		zap.Int("candidates", len(req.Candidates)),
		zap.Int("failed", countFailed(results)),
		zap.String("method", strategy.Name()),
	)
	return results, nil
}

// resolveWeights picks the weight vector and capacity preferences for the
// batch. Explicit vectors are re-validated; named personas were validated at
// startup but carry capacity preferences the vector path lacks.
func (e *Engine) resolveWeights(req Request) (persona.Weights, scoring.Params, error) {
	params := e.opts.Scoring

	if req.Weights != nil {
		if err := persona.Validate(req.Weights); err != nil {
			return nil, params, err
		}
		return req.Weights, params, nil
	}

	name := req.Persona
	if name == "" {
		name = "balanced"
	}
	profile, err := persona.Get(name)
	if err != nil {
		return nil, params, err
	}
	params.DefaultIdealMW = profile.IdealMW
	params.ToleranceFactor = profile.ToleranceFactor
	return profile.Weights, params, nil
}

// scoreCandidate gathers proximity and component scores for one candidate.
// Failures are recorded on the input, not returned: the batch continues.
func (e *Engine) scoreCandidate(ctx context.Context, c *model.Candidate, params scoring.Params) rank.Input {
	in := rank.Input{
		CandidateID: c.ID,
		Location:    geo.Coord{Lat: c.Latitude, Lng: c.Longitude},
		Distances:   make(map[string]*float64, len(geo.AllFeatureTypes)),
		Enriched:    true,
	}

	if err := c.Validate(); err != nil {
		in.Err = err.Error()
		in.Enriched = false
		return in
	}

	prox := make(model.ProximityResult, len(geo.AllFeatureTypes))
	for _, ft := range geo.AllFeatureTypes {
		_, dist, found, err := e.catalog.NearestTo(ctx, ft, in.Location, e.opts.MaxRadiusKm)
		switch {
		case err != nil:
			// Type unavailable upstream: leave the key absent so
			// "unknown" stays distinguishable from "confirmed far".
			in.Enriched = false
			zap.L().Debug("engine: proximity unavailable",
				zap.String("candidate", c.ID),
				zap.String("feature_type", string(ft)),
				zap.Error(err),
			)
		case !found:
			prox[ft] = nil
			in.Distances[string(ft)] = nil
		default:
			d := dist
			prox[ft] = &d
			in.Distances[string(ft)] = &d
		}
	}

	in.Scores = scoring.Compute(c, prox, params)
	return in
}

func countFailed(results []model.ScoringResult) int {
	n := 0
	for i := range results {
		if results[i].Error != "" {
			n++
		}
	}
	return n
}
