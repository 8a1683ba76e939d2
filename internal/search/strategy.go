package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/models"
)

// Kind identifies a search strategy.
type Kind string

const (
	// KindGrid exhaustively enumerates a discretized lattice.
	KindGrid Kind = "grid"
	// KindEvolutionary runs a genetic search over real-valued vectors.
	KindEvolutionary Kind = "evolutionary"
	// KindHybrid seeds an evolutionary search from a coarse grid pass.
	KindHybrid Kind = "hybrid"
)

// Kinds lists every valid strategy kind.
func Kinds() []Kind {
	return []Kind{KindGrid, KindEvolutionary, KindHybrid}
}

// ParseKind converts a string into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGrid, KindEvolutionary, KindHybrid:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown strategy kind: %q", s)
	}
}

// Options carries every strategy tuning knob. Zero values fall back to the
// documented defaults from DefaultOptions, so callers only set what they
// want to override.
type Options struct {
	// SearchRadius bounds the stance region around the target, in units.
	SearchRadius float64 `json:"search_radius,omitempty"`
	// PitchMin and PitchMax bound the aim pitch, in degrees.
	PitchMin float64 `json:"pitch_min,omitempty"`
	PitchMax float64 `json:"pitch_max,omitempty"`
	// YawSpread bounds yaw offsets to +/-YawSpread degrees off the direct
	// bearing to the target.
	YawSpread float64 `json:"yaw_spread,omitempty"`

	// GridStep is the XY lattice spacing, in units (grid and hybrid phase 1).
	GridStep float64 `json:"grid_step,omitempty"`
	// PitchSteps is the number of pitch samples per stance.
	PitchSteps int `json:"pitch_steps,omitempty"`
	// YawSteps is the number of yaw-offset samples per stance; 1 aims
	// straight at the target.
	YawSteps int `json:"yaw_steps,omitempty"`

	// PopulationSize is the fixed evolutionary population size.
	PopulationSize int `json:"population_size,omitempty"`
	// MaxGenerations caps the evolutionary run.
	MaxGenerations int `json:"max_generations,omitempty"`
	// EliteCount is the number of best individuals carried over unmodified
	// each generation.
	EliteCount int `json:"elite_count,omitempty"`
	// MutationRate is the per-dimension mutation probability.
	MutationRate float64 `json:"mutation_rate,omitempty"`
	// MutationStrength scales mutation magnitude as a fraction of each
	// dimension's range.
	MutationStrength float64 `json:"mutation_strength,omitempty"`
	// CrossoverRate is the probability an offspring blends two parents
	// instead of cloning one.
	CrossoverRate float64 `json:"crossover_rate,omitempty"`
	// Seed fixes the random source; zero selects a time-based seed.
	Seed int64 `json:"seed,omitempty"`
	// Convergence tunes plateau detection; nil uses the defaults.
	Convergence *ConvergenceConfig `json:"-"`
	// TargetSolutions stops the evolutionary search early once this many
	// accepted solutions exist (0 = run to convergence).
	TargetSolutions int `json:"target_solutions,omitempty"`
	// OnGeneration, when set, is called after each fully evaluated
	// generation with that generation's statistics.
	OnGeneration func(GenerationStats) `json:"-"`

	// CoarseFactor multiplies GridStep for the hybrid's phase-1 lattice.
	CoarseFactor float64 `json:"coarse_factor,omitempty"`
	// PromisingThreshold is the relative fitness band above the phase-1 best
	// within which lattice points seed phase 2.
	PromisingThreshold float64 `json:"promising_threshold,omitempty"`
	// SeedFraction is the share of the phase-2 population drawn from
	// promising lattice points; the rest is sampled randomly for diversity.
	SeedFraction float64 `json:"seed_fraction,omitempty"`

	// MaxEvaluations caps oracle calls for the whole search (0 = unlimited).
	MaxEvaluations int `json:"max_evaluations,omitempty"`
	// Deadline stops the search at a wall-clock instant (zero = none).
	Deadline time.Time `json:"-"`
}

// DefaultOptions builds the option set used when the caller overrides
// nothing, from the configured search defaults.
func DefaultOptions(d config.SearchDefaults) Options {
	return Options{
		SearchRadius:       d.SearchRadius,
		PitchMin:           d.PitchMin,
		PitchMax:           d.PitchMax,
		YawSpread:          45,
		GridStep:           d.GridStep,
		PitchSteps:         d.PitchSteps,
		YawSteps:           1,
		PopulationSize:     40,
		MaxGenerations:     50,
		EliteCount:         4,
		MutationRate:       0.25,
		MutationStrength:   0.15,
		CrossoverRate:      0.8,
		CoarseFactor:       2,
		PromisingThreshold: 0.5,
		SeedFraction:       0.5,
		MaxEvaluations:     d.MaxEvaluations,
	}
}

// merge fills zero-valued fields of o from the defaults.
func (o Options) merge(def Options) Options {
	if o.SearchRadius == 0 {
		o.SearchRadius = def.SearchRadius
	}
	if o.PitchMin == 0 && o.PitchMax == 0 {
		o.PitchMin, o.PitchMax = def.PitchMin, def.PitchMax
	}
	if o.YawSpread == 0 {
		o.YawSpread = def.YawSpread
	}
	if o.GridStep == 0 {
		o.GridStep = def.GridStep
	}
	if o.PitchSteps == 0 {
		o.PitchSteps = def.PitchSteps
	}
	if o.YawSteps == 0 {
		o.YawSteps = def.YawSteps
	}
	if o.PopulationSize == 0 {
		o.PopulationSize = def.PopulationSize
	}
	if o.MaxGenerations == 0 {
		o.MaxGenerations = def.MaxGenerations
	}
	if o.EliteCount == 0 {
		o.EliteCount = def.EliteCount
	}
	if o.MutationRate == 0 {
		o.MutationRate = def.MutationRate
	}
	if o.MutationStrength == 0 {
		o.MutationStrength = def.MutationStrength
	}
	if o.CrossoverRate == 0 {
		o.CrossoverRate = def.CrossoverRate
	}
	if o.CoarseFactor == 0 {
		o.CoarseFactor = def.CoarseFactor
	}
	if o.PromisingThreshold == 0 {
		o.PromisingThreshold = def.PromisingThreshold
	}
	if o.SeedFraction == 0 {
		o.SeedFraction = def.SeedFraction
	}
	if o.MaxEvaluations == 0 {
		o.MaxEvaluations = def.MaxEvaluations
	}
	return o
}

// withDeadline derives a context that expires at the budget deadline. The
// evaluators check their context before every dispatch, so an expired
// deadline stops oracle calls between evaluations rather than only at batch
// boundaries.
func withDeadline(ctx context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	if deadline.IsZero() {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline)
}

// Budget bounds a search by oracle calls and wall clock. Strategies consult
// it between evaluations, never mid-evaluation.
type Budget struct {
	MaxEvaluations int
	Deadline       time.Time
}

// Allow returns how many of the requested evaluations may still run given
// the count already used. Zero means the budget is exhausted.
func (b Budget) Allow(used, requested int) int {
	if !b.Deadline.IsZero() && !time.Now().Before(b.Deadline) {
		return 0
	}
	if b.MaxEvaluations <= 0 {
		return requested
	}
	remaining := b.MaxEvaluations - used
	if remaining <= 0 {
		return 0
	}
	if requested > remaining {
		return remaining
	}
	return requested
}

// GenerationStats is one slot of the evolutionary run's history arena.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	Accepted    int     `json:"accepted"`
	Evaluations int     `json:"evaluations"`
}

// Result is everything a strategy run produced: the accepted solutions in
// raw (unranked) form, diagnostics, and whether the run stopped short of
// exhausting its plan.
type Result struct {
	// Strategy is the kind string of the strategy that ran.
	Strategy string `json:"strategy,omitempty"`
	// Solutions holds every accepted solution seen across the whole run.
	// After ranking this is the final ordered, deduplicated list.
	Solutions []models.Solution `json:"solutions"`
	// NoSolution reports that the search finished with zero accepted
	// solutions. Not an error; BestDistance then carries the closest miss.
	NoSolution bool `json:"no_solution"`
	// Truncated reports that the search stopped early on budget, deadline or
	// cancellation rather than exhausting its plan.
	Truncated bool `json:"truncated"`
	// Evaluations counts oracle calls actually dispatched.
	Evaluations int `json:"evaluations"`
	// BestDistance is the smallest distance-to-target observed over valid
	// outcomes, accepted or not; +Inf while searching when no simulation was
	// valid yet, normalized to -1 in finished results so they serialize.
	// Lets the caller report a closest miss when Solutions is empty.
	BestDistance float64 `json:"best_distance"`
	// Generations holds per-generation statistics for evolutionary runs.
	Generations []GenerationStats `json:"generations,omitempty"`
}

// Strategy explores the configuration space and produces accepted solutions.
type Strategy interface {
	// Name returns the strategy's kind string.
	Name() string
	// Search runs the strategy to completion or budget exhaustion.
	Search(ctx context.Context, space *Space, target models.TargetPoint) (*Result, error)
}

// collector accumulates scored outcomes for one run: every accepted solution
// plus the closest-miss diagnostic.
type collector struct {
	scorer       *Scorer
	target       models.TargetPoint
	accepted     []models.Solution
	evaluations  int
	bestDistance float64
}

func newCollector(scorer *Scorer, target models.TargetPoint) *collector {
	return &collector{
		scorer:       scorer,
		target:       target,
		bestDistance: math.Inf(1),
	}
}

// observe scores one outcome, retaining it when accepted.
func (c *collector) observe(cfg models.LaunchConfiguration, outcome models.TrajectoryOutcome) (fitness float64, accepted bool) {
	c.evaluations++
	fitness, accepted = c.scorer.Score(outcome, c.target)
	if outcome.Valid {
		if d := outcome.FinalPosition.Distance(c.target.Position); d < c.bestDistance {
			c.bestDistance = d
		}
	}
	if accepted {
		c.accepted = append(c.accepted, NewSolution(cfg, outcome, fitness))
	}
	return fitness, accepted
}

// result snapshots the collector into a strategy result.
func (c *collector) result(truncated bool) *Result {
	return &Result{
		Solutions:    c.accepted,
		Truncated:    truncated,
		Evaluations:  c.evaluations,
		BestDistance: c.bestDistance,
	}
}
