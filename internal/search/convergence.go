package search

import (
	"fmt"
	"math"
)

// ConvergenceStrategy decides when an evolutionary run should stop based on
// its generation history.
type ConvergenceStrategy interface {
	// CheckConvergence checks if the run has converged based on history.
	CheckConvergence(history []GenerationStats) (converged bool, reason string)
	// Name returns the name of the convergence strategy.
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection.
type ConvergenceConfig struct {
	// NoImprovementGenerations is the number of generations without a new
	// best fitness before stopping.
	NoImprovementGenerations int
	// FitnessTolerance is the absolute tolerance within which two best
	// fitness values count as equal.
	FitnessTolerance float64
	// MinGenerations is the minimum history length before convergence can be
	// detected.
	MinGenerations int
	// PlateauGenerations is the number of generations with near-identical
	// best fitness (plateau) before stopping.
	PlateauGenerations int
}

// DefaultConvergenceConfig returns the default convergence configuration.
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementGenerations: 8,
		FitnessTolerance:         0.01,
		MinGenerations:           5,
		PlateauGenerations:       8,
	}
}

// NoImprovementStrategy stops when the best fitness has not improved for N
// generations.
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy.
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	if len(history) < s.config.MinGenerations {
		return false, ""
	}

	bestFitness := math.MaxFloat64
	bestGeneration := -1
	for i, gen := range history {
		if gen.BestFitness < bestFitness-s.config.FitnessTolerance {
			bestFitness = gen.BestFitness
			bestGeneration = i
		}
	}
	if bestGeneration < 0 {
		return false, ""
	}

	sinceBest := len(history) - 1 - bestGeneration
	if sinceBest >= s.config.NoImprovementGenerations {
		return true, fmt.Sprintf("no improvement for %d generations (best at generation %d)", sinceBest, bestGeneration)
	}
	return false, ""
}

// PlateauStrategy stops when the best fitness has stayed within tolerance
// across a window of recent generations.
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy.
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	if len(history) < s.config.MinGenerations || len(history) < s.config.PlateauGenerations {
		return false, ""
	}

	recent := history[len(history)-s.config.PlateauGenerations:]
	minFitness := recent[0].BestFitness
	maxFitness := recent[0].BestFitness
	for _, gen := range recent {
		if gen.BestFitness < minFitness {
			minFitness = gen.BestFitness
		}
		if gen.BestFitness > maxFitness {
			maxFitness = gen.BestFitness
		}
	}

	if spread := maxFitness - minFitness; spread <= s.config.FitnessTolerance {
		return true, fmt.Sprintf("best fitness plateaued for %d generations (spread: %.6f)", s.config.PlateauGenerations, spread)
	}
	return false, ""
}

// CombinedStrategy converges as soon as any member strategy does.
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates the default combined convergence strategy.
func NewCombinedStrategy(config *ConvergenceConfig) *CombinedStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &CombinedStrategy{
		strategies: []ConvergenceStrategy{
			NewNoImprovementStrategy(config),
			NewPlateauStrategy(config),
		},
	}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []GenerationStats) (converged bool, reason string) {
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(history); converged {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), reason)
		}
	}
	return false, ""
}

// AddStrategy adds a custom strategy to the combined strategy.
func (s *CombinedStrategy) AddStrategy(strategy ConvergenceStrategy) {
	s.strategies = append(s.strategies, strategy)
}
