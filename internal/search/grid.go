package search

import (
	"context"

	"github.com/smoke-finder/search-core/pkg/models"
)

// gridBatchSize is how many lattice points are dispatched per evaluator
// batch. Budget and cancellation are checked between batches.
const gridBatchSize = 64

// GridStrategy deterministically enumerates a discretized lattice over the
// configuration space: stance offsets on an XY grid clipped to the search
// disc, crossed with pitch (and optionally yaw-offset) increments. It is
// exhaustive at its resolution; run time scales multiplicatively with the
// per-dimension step counts.
type GridStrategy struct {
	evaluator Evaluator
	scorer    *Scorer
	opts      Options
}

// NewGridStrategy creates a grid strategy with the given evaluator, scorer
// and options.
func NewGridStrategy(evaluator Evaluator, scorer *Scorer, opts Options) *GridStrategy {
	return &GridStrategy{evaluator: evaluator, scorer: scorer, opts: opts}
}

// Name implements Strategy.
func (g *GridStrategy) Name() string {
	return string(KindGrid)
}

// Search enumerates the full lattice in a fixed order, evaluating in batches
// until the lattice is exhausted or the budget runs out.
func (g *GridStrategy) Search(ctx context.Context, space *Space, target models.TargetPoint) (*Result, error) {
	ctx, cancel := withDeadline(ctx, g.opts.Deadline)
	defer cancel()

	lattice := buildLattice(space, g.opts)
	budget := Budget{MaxEvaluations: g.opts.MaxEvaluations, Deadline: g.opts.Deadline}
	coll := newCollector(g.scorer, target)

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

		cfgs := make([]models.LaunchConfiguration, 0, end-start)
		for _, v := range lattice[start:end] {
			cfgs = append(cfgs, space.Decode(v))
		}
		outcomes := g.evaluator.EvaluateAll(ctx, cfgs)
		for i, outcome := range outcomes {
			coll.observe(cfgs[i], outcome)
		}

		if truncated {
			break
		}
	}

	return coll.result(truncated), nil
}

// buildLattice produces the grid's vectors in a stable enumeration order:
// stance east offset, then north offset, then pitch, then yaw offset. Stances
// outside the search disc are skipped so the region matches the other
// strategies' sampling bounds.
func buildLattice(space *Space, opts Options) []Vector {
	offsets := axisSteps(-space.SearchRadius, space.SearchRadius, opts.GridStep)
	pitches := linspace(space.PitchMin, space.PitchMax, opts.PitchSteps)
	yaws := []float64{0}
	if opts.YawSteps > 1 {
		yaws = linspace(-space.YawSpread, space.YawSpread, opts.YawSteps)
	}

	radiusSq := space.SearchRadius * space.SearchRadius
	lattice := make([]Vector, 0, len(offsets)*len(offsets)*len(pitches)*len(yaws))
	for _, dx := range offsets {
		for _, dy := range offsets {
			if dx*dx+dy*dy > radiusSq {
				continue
			}
			for _, pitch := range pitches {
				for _, yaw := range yaws {
					lattice = append(lattice, Vector{dx, dy, pitch, yaw})
				}
			}
		}
	}
	return lattice
}

// axisSteps enumerates min..max inclusive with the given step.
func axisSteps(min, max, step float64) []float64 {
	steps := make([]float64, 0, int((max-min)/step)+1)
	for v := min; v <= max+1e-9; v += step {
		steps = append(steps, v)
	}
	return steps
}

// linspace samples n evenly spaced values across [min, max] inclusive.
func linspace(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{(min + max) / 2}
	}
	vals := make([]float64, n)
	span := (max - min) / float64(n-1)
	for i := 0; i < n; i++ {
		vals[i] = min + float64(i)*span
	}
	return vals
}
