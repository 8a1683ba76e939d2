package search

import (
	"context"
	"sync"

	"github.com/smoke-finder/search-core/pkg/models"
)

// Oracle is the expensive trajectory simulator the strategies query. A single
// oracle handle may hold mutable world state, so each handle is driven by at
// most one evaluation at a time; concurrency comes from owning several
// handles, never from sharing one.
type Oracle interface {
	Simulate(cfg models.LaunchConfiguration) models.TrajectoryOutcome
}

// Evaluator runs a batch of independent oracle evaluations and returns one
// outcome per configuration, in input order. A batch is the synchronization
// unit: the caller only consumes results once the whole batch has completed,
// which gives evolutionary search its generation barrier. A cancelled context
// stops further dispatch; configurations never dispatched come back as
// invalid outcomes at their launch origin.
type Evaluator interface {
	EvaluateAll(ctx context.Context, cfgs []models.LaunchConfiguration) []models.TrajectoryOutcome
}

// NewEvaluator builds an evaluator over the given oracle handles. One handle
// yields the strictly ordered sequential evaluator; more yield a fixed-size
// pool with one owned handle per worker.
func NewEvaluator(oracles []Oracle) Evaluator {
	if len(oracles) == 1 {
		return &sequentialEvaluator{oracle: oracles[0]}
	}
	return &poolEvaluator{oracles: oracles}
}

// sequentialEvaluator drives a single oracle handle, one evaluation at a
// time. The default model: simplest and fully deterministic.
type sequentialEvaluator struct {
	oracle Oracle
}

func (e *sequentialEvaluator) EvaluateAll(ctx context.Context, cfgs []models.LaunchConfiguration) []models.TrajectoryOutcome {
	outcomes := make([]models.TrajectoryOutcome, len(cfgs))
	for i, cfg := range cfgs {
		if ctx.Err() != nil {
			outcomes[i] = cancelledOutcome(cfg)
			continue
		}
		outcomes[i] = e.oracle.Simulate(cfg)
	}
	return outcomes
}

// poolEvaluator dispatches a batch across a fixed set of workers, each
// owning one oracle handle. No state is shared between workers; the only
// synchronization is the dispatch channel and the completion barrier.
type poolEvaluator struct {
	oracles []Oracle
}

func (e *poolEvaluator) EvaluateAll(ctx context.Context, cfgs []models.LaunchConfiguration) []models.TrajectoryOutcome {
	outcomes := make([]models.TrajectoryOutcome, len(cfgs))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for _, oracle := range e.oracles {
		wg.Add(1)
		go func(o Oracle) {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					outcomes[idx] = cancelledOutcome(cfgs[idx])
					continue
				}
				outcomes[idx] = o.Simulate(cfgs[idx])
			}
		}(oracle)
	}

	for i := range cfgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// cancelledOutcome marks a never-dispatched configuration as an aborted
// simulation resting at its own origin. The scorer's invalidity penalty keeps
// it out of the accepted set.
func cancelledOutcome(cfg models.LaunchConfiguration) models.TrajectoryOutcome {
	return models.TrajectoryOutcome{
		FinalPosition: cfg.Origin,
		Valid:         false,
	}
}
