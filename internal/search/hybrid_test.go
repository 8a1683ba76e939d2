package search

import (
	"context"
	"testing"
)

func TestHybridFindsAcceptedSolutions(t *testing.T) {
	opts := testOptions()
	opts.TargetSolutions = 3
	hybrid := NewHybridStrategy(NewEvaluator([]Oracle{newPlaneOracle(50)}), NewScorer(1e6), opts)

	result, err := hybrid.Search(context.Background(), testSpace(), testTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Solutions) == 0 {
		t.Fatalf("expected accepted solutions for a reachable target")
	}
	target := testTarget()
	for i, sol := range result.Solutions {
		if !sol.Outcome.Valid || sol.Outcome.FinalPosition.Distance(target.Position) > target.AcceptanceRadius {
			t.Fatalf("solution %d violates the acceptance contract: %+v", i, sol.Outcome)
		}
	}
}

func TestHybridNeverUnderperformsCoarseGrid(t *testing.T) {
	// The hybrid's phase 1 is the coarse grid itself, so its best observed
	// distance can only match or beat a standalone coarse grid run.
	opts := testOptions()
	opts.TargetSolutions = 0

	coarseOpts := opts
	coarseOpts.GridStep = opts.GridStep * opts.CoarseFactor
	grid := NewGridStrategy(NewEvaluator([]Oracle{newPlaneOracle(50)}), NewScorer(1e6), coarseOpts)
	gridResult, err := grid.Search(context.Background(), testSpace(), testTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hybrid := NewHybridStrategy(NewEvaluator([]Oracle{newPlaneOracle(50)}), NewScorer(1e6), opts)
	hybridResult, err := hybrid.Search(context.Background(), testSpace(), testTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hybridResult.BestDistance > gridResult.BestDistance {
		t.Fatalf("hybrid best distance %f worse than coarse grid %f",
			hybridResult.BestDistance, gridResult.BestDistance)
	}
	if hybridResult.Evaluations <= gridResult.Evaluations {
		t.Fatalf("expected hybrid to spend evaluations on phase 2")
	}
}

func TestHybridBudgetConsumedInPhaseOne(t *testing.T) {
	opts := testOptions()
	opts.MaxEvaluations = 5
	hybrid := NewHybridStrategy(NewEvaluator([]Oracle{newPlaneOracle(50)}), NewScorer(1e6), opts)

	result, err := hybrid.Search(context.Background(), testSpace(), testTarget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Truncated {
		t.Fatalf("expected truncation with a 5-evaluation budget")
	}
	if result.Evaluations > 5 {
		t.Fatalf("budget exceeded: %d evaluations", result.Evaluations)
	}
	if len(result.Generations) != 0 {
		t.Fatalf("phase 2 must not run after phase 1 exhausts the budget")
	}
}

func TestPromisingSeedsSelection(t *testing.T) {
	opts := testOptions()
	opts.PopulationSize = 10
	opts.SeedFraction = 0.5
	opts.PromisingThreshold = 0.5
	hybrid := NewHybridStrategy(nil, NewScorer(1e6), opts)

	scored := []scoredVector{
		{vec: Vector{1}, fitness: 100},
		{vec: Vector{2}, fitness: 120},
		{vec: Vector{3}, fitness: 160}, // outside the 1.5x band
		{vec: Vector{4}, fitness: 90},  // best
	}
	seeds := hybrid.promisingSeeds(scored)
	if len(seeds) != 3 {
		t.Fatalf("expected 3 seeds within the band, got %d", len(seeds))
	}
	if seeds[0] != (Vector{4}) {
		t.Fatalf("expected best lattice point first, got %v", seeds[0])
	}

	if seeds := hybrid.promisingSeeds(nil); seeds != nil {
		t.Fatalf("expected no seeds from an empty pass")
	}
}
