package search

import (
	"context"
	"fmt"
	"math"

	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/logger"
	"github.com/smoke-finder/search-core/pkg/models"
)

// Request is one complete search order: what to hit, how to throw, which
// strategy to run, and how many ranked solutions to return. Option fields
// left at zero fall back to the configured defaults.
type Request struct {
	Target     models.TargetPoint `json:"target"`
	ThrowType  models.ThrowType   `json:"throw_type"`
	Strategy   Kind               `json:"strategy"`
	MaxResults int                `json:"max_results"`
	Options    Options            `json:"options"`
}

// Finder is the stable call surface the presentation layer drives. It owns
// the oracle handles, the configured defaults and the ranking rules; each
// FindSolutions call is independent and safe to run concurrently with
// others as long as the oracle handles are not shared across finders.
type Finder struct {
	oracles  []Oracle
	stanceZ  float64
	speeds   models.SpeedTable
	defaults config.SearchDefaults
}

// NewFinder creates a finder over the given oracle handles. One handle means
// sequential evaluation; more enable the parallel pool with one owned handle
// per worker. stanceZ is the absolute hand height launches start from.
func NewFinder(oracles []Oracle, stanceZ float64, speeds models.SpeedTable, defaults config.SearchDefaults) (*Finder, error) {
	if len(oracles) == 0 {
		return nil, fmt.Errorf("at least one oracle handle is required")
	}
	if err := speeds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid speed table: %w", err)
	}
	return &Finder{
		oracles:  oracles,
		stanceZ:  stanceZ,
		speeds:   speeds,
		defaults: defaults,
	}, nil
}

// FindSolutions runs one search and returns the ranked, deduplicated
// solution list. A request that omits the acceptance radius gets the
// configured default. Malformed input fails before any oracle call; an
// exhausted search with zero accepted solutions returns an empty list with
// NoSolution set, never an error.
func (f *Finder) FindSolutions(ctx context.Context, req Request) (*Result, error) {
	if req.Target.AcceptanceRadius == 0 {
		req.Target.AcceptanceRadius = f.defaults.AcceptanceRadius
	}
	if err := f.validate(req); err != nil {
		return nil, err
	}

	opts := req.Options.merge(DefaultOptions(f.defaults))
	if opts.TargetSolutions == 0 {
		opts.TargetSolutions = req.MaxResults
	}

	speed, err := f.speeds.Speed(req.ThrowType)
	if err != nil {
		return nil, err
	}

	space := &Space{
		Target:       req.Target.Position,
		SearchRadius: opts.SearchRadius,
		PitchMin:     opts.PitchMin,
		PitchMax:     opts.PitchMax,
		YawSpread:    opts.YawSpread,
		StanceZ:      f.stanceZ,
		ThrowType:    req.ThrowType,
		Speed:        speed,
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}

	scorer := NewScorer(f.defaults.InvalidPenalty)
	if err := scorer.Validate(); err != nil {
		return nil, err
	}
	ranker, err := NewRanker(f.defaults.DedupPositionEps, f.defaults.DedupAngleEps, f.defaults.TieBreak)
	if err != nil {
		return nil, err
	}

	strategy, err := f.buildStrategy(req.Strategy, scorer, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("search starting",
		"strategy", strategy.Name(),
		"throw_type", req.ThrowType,
		"target", req.Target.Position,
		"max_results", req.MaxResults)

	result, err := strategy.Search(ctx, space, req.Target)
	if err != nil {
		return nil, fmt.Errorf("strategy %s failed: %w", strategy.Name(), err)
	}

	result.Strategy = strategy.Name()
	result.Solutions = ranker.Rank(result.Solutions, req.MaxResults)
	result.NoSolution = len(result.Solutions) == 0
	if math.IsInf(result.BestDistance, 1) {
		result.BestDistance = -1
	}

	logger.Info("search finished",
		"strategy", strategy.Name(),
		"solutions", len(result.Solutions),
		"evaluations", result.Evaluations,
		"best_distance", result.BestDistance,
		"truncated", result.Truncated)

	return result, nil
}

// validate rejects malformed requests before any search work starts.
func (f *Finder) validate(req Request) error {
	return req.Validate()
}

// Validate checks a request for malformed input: target, throw type,
// strategy kind and result count. Callers in front of the finder use it to
// reject bad requests synchronously.
func (req Request) Validate() error {
	if err := req.Target.Validate(); err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	if _, err := models.ParseThrowType(string(req.ThrowType)); err != nil {
		return err
	}
	if _, err := ParseKind(string(req.Strategy)); err != nil {
		return err
	}
	if req.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got %d", req.MaxResults)
	}
	return nil
}

// buildStrategy constructs the requested strategy over the finder's oracle
// pool.
func (f *Finder) buildStrategy(kind Kind, scorer *Scorer, opts Options) (Strategy, error) {
	evaluator := NewEvaluator(f.oracles)
	switch kind {
	case KindGrid:
		return NewGridStrategy(evaluator, scorer, opts), nil
	case KindEvolutionary:
		return NewEvolutionaryStrategy(evaluator, scorer, opts), nil
	case KindHybrid:
		return NewHybridStrategy(evaluator, scorer, opts), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind: %q", kind)
	}
}
