package search

import (
	"fmt"

	"github.com/smoke-finder/search-core/pkg/models"
)

// Scorer converts oracle outcomes into the scalar fitness all strategies
// share. Lower is better. Invalid outcomes are penalized rather than
// discarded so they still contribute selection signal near map boundaries.
type Scorer struct {
	// InvalidPenalty is added to the fitness of aborted simulations. It must
	// exceed any plausible distance so invalid outcomes always rank worse
	// than any valid one.
	InvalidPenalty float64
}

// NewScorer creates a scorer with the given invalidity penalty.
func NewScorer(invalidPenalty float64) *Scorer {
	return &Scorer{InvalidPenalty: invalidPenalty}
}

// Score returns the fitness of an outcome against a target and whether the
// outcome counts as an accepted hit. Accepted requires a valid simulation
// whose resting position lies within the target's acceptance radius.
func (s *Scorer) Score(outcome models.TrajectoryOutcome, target models.TargetPoint) (fitness float64, accepted bool) {
	distance := outcome.FinalPosition.Distance(target.Position)
	fitness = distance
	if !outcome.Valid {
		fitness += s.InvalidPenalty
	}
	accepted = outcome.Valid && distance <= target.AcceptanceRadius
	return fitness, accepted
}

// NewSolution assembles the immutable solution record for one scored
// configuration, including the command payload the presentation layer sends
// to the game console.
func NewSolution(cfg models.LaunchConfiguration, outcome models.TrajectoryOutcome, score float64) models.Solution {
	return models.Solution{
		Config:   cfg,
		Outcome:  outcome,
		Score:    score,
		Commands: cfg.Commands(),
	}
}

// Validate rejects a non-positive penalty; a zero penalty would let aborted
// simulations outrank genuine near-misses.
func (s *Scorer) Validate() error {
	if s.InvalidPenalty <= 0 {
		return fmt.Errorf("invalid penalty must be positive, got %f", s.InvalidPenalty)
	}
	return nil
}
