package search

import (
	"context"
	"math"
	"sort"

	"github.com/smoke-finder/search-core/pkg/models"
)

// scoredVector pairs a lattice vector with the fitness its evaluation
// produced during the hybrid's coarse pass.
type scoredVector struct {
	vec     Vector
	fitness float64
}

// HybridStrategy runs two phases: a coarse, low-resolution grid pass to find
// promising sub-regions of the space, then an evolutionary search whose
// initial population is seeded from those regions plus random samples. The
// coarse pass keeps the evolutionary phase from converging on a poor local
// optimum; the evolutionary phase avoids the cost of a fine exhaustive grid.
type HybridStrategy struct {
	evaluator Evaluator
	scorer    *Scorer
	opts      Options
}

// NewHybridStrategy creates a hybrid strategy with the given evaluator,
// scorer and options.
func NewHybridStrategy(evaluator Evaluator, scorer *Scorer, opts Options) *HybridStrategy {
	return &HybridStrategy{evaluator: evaluator, scorer: scorer, opts: opts}
}

// Name implements Strategy.
func (h *HybridStrategy) Name() string {
	return string(KindHybrid)
}

// Search runs both phases under one shared budget. Accepted solutions from
// the coarse pass are kept alongside the evolutionary phase's.
func (h *HybridStrategy) Search(ctx context.Context, space *Space, target models.TargetPoint) (*Result, error) {
	ctx, cancel := withDeadline(ctx, h.opts.Deadline)
	defer cancel()

	coarse, phase1 := h.coarsePass(ctx, space, target)
	if phase1.Truncated {
		return phase1, nil
	}

	seeds := h.promisingSeeds(coarse)

	evoOpts := h.opts
	if evoOpts.MaxEvaluations > 0 {
		evoOpts.MaxEvaluations -= phase1.Evaluations
		if evoOpts.MaxEvaluations <= 0 {
			phase1.Truncated = true
			return phase1, nil
		}
	}

	evo := NewEvolutionaryStrategy(h.evaluator, h.scorer, evoOpts).WithSeeds(seeds)
	phase2, err := evo.Search(ctx, space, target)
	if err != nil {
		return nil, err
	}

	return mergeResults(phase1, phase2), nil
}

// coarsePass evaluates a lattice at CoarseFactor times the configured grid
// step, keeping every scored point for seeding.
func (h *HybridStrategy) coarsePass(ctx context.Context, space *Space, target models.TargetPoint) ([]scoredVector, *Result) {
	coarseOpts := h.opts
	coarseOpts.GridStep = h.opts.GridStep * h.opts.CoarseFactor

	lattice := buildLattice(space, coarseOpts)
	budget := Budget{MaxEvaluations: h.opts.MaxEvaluations, Deadline: h.opts.Deadline}
	coll := newCollector(h.scorer, target)
	scored := make([]scoredVector, 0, len(lattice))

	truncated := false
	for start := 0; start < len(lattice); start += gridBatchSize {
		if ctx.Err() != nil {
			truncated = true
			break
		}

		end := start + gridBatchSize
		if end > len(lattice) {
			end = len(lattice)
		}
		allowed := budget.Allow(coll.evaluations, end-start)
		if allowed == 0 {
			truncated = true
			break
		}
		if allowed < end-start {
			end = start + allowed
			truncated = true
		}

		batch := lattice[start:end]
		cfgs := make([]models.LaunchConfiguration, len(batch))
		for i, v := range batch {
			cfgs[i] = space.Decode(v)
		}
		outcomes := h.evaluator.EvaluateAll(ctx, cfgs)
		for i, outcome := range outcomes {
			fitness, _ := coll.observe(cfgs[i], outcome)
			scored = append(scored, scoredVector{vec: batch[i], fitness: fitness})
		}

		if truncated {
			break
		}
	}

	return scored, coll.result(truncated)
}

// promisingSeeds selects the lattice points whose fitness lies within the
// relative threshold band above the best observed, capped at SeedFraction of
// the population so random diversity keeps its share.
func (h *HybridStrategy) promisingSeeds(scored []scoredVector) []Vector {
	if len(scored) == 0 {
		return nil
	}

	best := math.MaxFloat64
	for _, sv := range scored {
		if sv.fitness < best {
			best = sv.fitness
		}
	}
	band := best * (1 + h.opts.PromisingThreshold)

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].fitness < scored[b].fitness
	})

	maxSeeds := int(h.opts.SeedFraction * float64(h.opts.PopulationSize))
	if maxSeeds < 1 {
		maxSeeds = 1
	}

	seeds := make([]Vector, 0, maxSeeds)
	for _, sv := range scored {
		if sv.fitness > band && len(seeds) > 0 {
			break
		}
		seeds = append(seeds, sv.vec)
		if len(seeds) == maxSeeds {
			break
		}
	}
	return seeds
}

// mergeResults folds both phases into one result.
func mergeResults(phase1, phase2 *Result) *Result {
	merged := &Result{
		Solutions:    append(phase1.Solutions, phase2.Solutions...),
		Truncated:    phase1.Truncated || phase2.Truncated,
		Evaluations:  phase1.Evaluations + phase2.Evaluations,
		BestDistance: math.Min(phase1.BestDistance, phase2.BestDistance),
		Generations:  phase2.Generations,
	}
	return merged
}
