package search

import (
	"context"
	"math"
	"sort"

	"github.com/smoke-finder/search-core/pkg/models"
	"github.com/smoke-finder/search-core/pkg/utils"
)

// tournamentSize is the number of contenders per parent selection. Lower
// fitness wins, which makes selection rank-based and insensitive to the
// invalidity penalty's magnitude.
const tournamentSize = 3

// individual is one population slot: an encoded vector, its decoded
// configuration and, once the generation barrier has passed, its fitness.
type individual struct {
	vec       Vector
	cfg       models.LaunchConfiguration
	fitness   float64
	evaluated bool
}

// EvolutionaryStrategy maintains a fixed-size population of encoded launch
// configurations and improves it by tournament selection, blend crossover,
// Gaussian mutation and elitism. Accepted solutions are accumulated across
// every generation, not just the final population.
type EvolutionaryStrategy struct {
	evaluator   Evaluator
	scorer      *Scorer
	opts        Options
	seeds       []Vector
	convergence ConvergenceStrategy
}

// NewEvolutionaryStrategy creates an evolutionary strategy with the given
// evaluator, scorer and options.
func NewEvolutionaryStrategy(evaluator Evaluator, scorer *Scorer, opts Options) *EvolutionaryStrategy {
	return &EvolutionaryStrategy{
		evaluator:   evaluator,
		scorer:      scorer,
		opts:        opts,
		convergence: NewCombinedStrategy(opts.Convergence),
	}
}

// WithSeeds sets initial population vectors, clipped into the space. The
// hybrid strategy uses this to plant promising grid regions; remaining slots
// are filled with random samples for diversity.
func (e *EvolutionaryStrategy) WithSeeds(seeds []Vector) *EvolutionaryStrategy {
	e.seeds = seeds
	return e
}

// WithConvergence sets a custom convergence strategy.
func (e *EvolutionaryStrategy) WithConvergence(c ConvergenceStrategy) *EvolutionaryStrategy {
	e.convergence = c
	return e
}

// Name implements Strategy.
func (e *EvolutionaryStrategy) Name() string {
	return string(KindEvolutionary)
}

// Search runs the generational loop until convergence, the generation cap,
// or budget exhaustion.
func (e *EvolutionaryStrategy) Search(ctx context.Context, space *Space, target models.TargetPoint) (*Result, error) {
	ctx, cancel := withDeadline(ctx, e.opts.Deadline)
	defer cancel()

	rng := utils.NewRandSource(e.opts.Seed)
	budget := Budget{MaxEvaluations: e.opts.MaxEvaluations, Deadline: e.opts.Deadline}
	coll := newCollector(e.scorer, target)

	popSize := e.opts.PopulationSize
	eliteCount := e.opts.EliteCount
	if eliteCount >= popSize {
		eliteCount = popSize - 1
	}
	if eliteCount < 0 {
		eliteCount = 0
	}

	population := e.initialPopulation(space, rng, popSize)
	// Fixed-capacity history arena, one slot per generation.
	history := make([]GenerationStats, 0, e.opts.MaxGenerations)

	truncated := false

	for gen := 0; gen < e.opts.MaxGenerations; gen++ {
		if ctx.Err() != nil {
			truncated = true
			break
		}

		// Evaluate every not-yet-evaluated member; elites keep their fitness
		// from the previous generation.
		pending := make([]int, 0, popSize)
		for i := range population {
			if !population[i].evaluated {
				pending = append(pending, i)
			}
		}
		allowed := budget.Allow(coll.evaluations, len(pending))
		if allowed < len(pending) {
			// Budget ran out mid-generation: score what we may, then stop
			// without breeding from a partially evaluated population.
			pending = pending[:allowed]
			truncated = true
		}
		if len(pending) > 0 {
			cfgs := make([]models.LaunchConfiguration, len(pending))
			for i, idx := range pending {
				cfgs[i] = population[idx].cfg
			}
			outcomes := e.evaluator.EvaluateAll(ctx, cfgs)
			for i, idx := range pending {
				fitness, _ := coll.observe(cfgs[i], outcomes[i])
				population[idx].fitness = fitness
				population[idx].evaluated = true
			}
		}
		if truncated {
			break
		}

		stats := e.generationStats(gen, population, coll)
		history = append(history, stats)
		if e.opts.OnGeneration != nil {
			e.opts.OnGeneration(stats)
		}

		if e.opts.TargetSolutions > 0 && len(coll.accepted) >= e.opts.TargetSolutions {
			break
		}
		if converged, _ := e.convergence.CheckConvergence(history); converged {
			break
		}
		if gen == e.opts.MaxGenerations-1 {
			break
		}

		population = e.breed(space, rng, population, eliteCount)
	}

	result := coll.result(truncated)
	result.Generations = history
	return result, nil
}

// initialPopulation fills the population from seed vectors first, then
// uniform random samples.
func (e *EvolutionaryStrategy) initialPopulation(space *Space, rng *utils.RandSource, popSize int) []individual {
	population := make([]individual, popSize)
	for i := range population {
		var v Vector
		if i < len(e.seeds) {
			v = space.Clip(e.seeds[i])
		} else {
			v = space.Sample(rng)
		}
		population[i] = individual{vec: v, cfg: space.Decode(v)}
	}
	return population
}

// generationStats summarizes one fully evaluated generation.
func (e *EvolutionaryStrategy) generationStats(gen int, population []individual, coll *collector) GenerationStats {
	best := math.MaxFloat64
	sum := 0.0
	for i := range population {
		if population[i].fitness < best {
			best = population[i].fitness
		}
		sum += population[i].fitness
	}
	return GenerationStats{
		Generation:  gen,
		BestFitness: best,
		MeanFitness: sum / float64(len(population)),
		Accepted:    len(coll.accepted),
		Evaluations: coll.evaluations,
	}
}

// breed produces the next generation: the eliteCount best individuals carry
// over unmodified, the rest are offspring of tournament-selected parents.
func (e *EvolutionaryStrategy) breed(space *Space, rng *utils.RandSource, population []individual, eliteCount int) []individual {
	ranked := make([]int, len(population))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return population[ranked[a]].fitness < population[ranked[b]].fitness
	})

	next := make([]individual, 0, len(population))
	for _, idx := range ranked[:eliteCount] {
		next = append(next, population[idx])
	}

	for len(next) < len(population) {
		parentA := population[e.selectParent(rng, population)].vec
		parentB := population[e.selectParent(rng, population)].vec

		child := parentA
		if rng.BernoulliBool(e.opts.CrossoverRate) {
			child = blendCrossover(rng, parentA, parentB)
		}
		child = e.mutate(space, rng, child)
		child = space.Clip(child)

		next = append(next, individual{vec: child, cfg: space.Decode(child)})
	}
	return next
}

// selectParent runs one tournament and returns the winning index.
func (e *EvolutionaryStrategy) selectParent(rng *utils.RandSource, population []individual) int {
	best := rng.Intn(len(population))
	for i := 1; i < tournamentSize; i++ {
		contender := rng.Intn(len(population))
		if population[contender].fitness < population[best].fitness {
			best = contender
		}
	}
	return best
}

// blendCrossover mixes two parent vectors with an independent blend factor
// per dimension.
func blendCrossover(rng *utils.RandSource, a, b Vector) Vector {
	var child Vector
	for dim := 0; dim < Dimensions; dim++ {
		t := rng.Float64()
		child[dim] = t*a[dim] + (1-t)*b[dim]
	}
	return child
}

// mutate perturbs each dimension with probability MutationRate by a Gaussian
// step scaled to that dimension's range.
func (e *EvolutionaryStrategy) mutate(space *Space, rng *utils.RandSource, v Vector) Vector {
	for dim := 0; dim < Dimensions; dim++ {
		if !rng.BernoulliBool(e.opts.MutationRate) {
			continue
		}
		min, max := space.Bounds(dim)
		v[dim] += rng.NormFloat64(0, e.opts.MutationStrength*(max-min))
	}
	return v
}
