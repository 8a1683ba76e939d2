package search

import (
	"testing"

	"github.com/smoke-finder/search-core/pkg/models"
)

func TestScoreAcceptedWithinRadius(t *testing.T) {
	s := NewScorer(1e6)
	target := models.TargetPoint{Position: models.Vec3{X: 100}, AcceptanceRadius: 50}

	fitness, accepted := s.Score(models.TrajectoryOutcome{
		FinalPosition: models.Vec3{X: 130},
		Valid:         true,
	}, target)
	if !accepted {
		t.Fatalf("expected acceptance within radius")
	}
	if fitness != 30 {
		t.Fatalf("expected fitness 30, got %f", fitness)
	}
}

func TestScoreValidOutsideRadius(t *testing.T) {
	s := NewScorer(1e6)
	target := models.TargetPoint{Position: models.Vec3{}, AcceptanceRadius: 50}

	fitness, accepted := s.Score(models.TrajectoryOutcome{
		FinalPosition: models.Vec3{X: 200},
		Valid:         true,
	}, target)
	if accepted {
		t.Fatalf("expected rejection outside radius")
	}
	if fitness != 200 {
		t.Fatalf("expected fitness 200, got %f", fitness)
	}
}

func TestScoreInvalidPenalized(t *testing.T) {
	s := NewScorer(1e6)
	target := models.TargetPoint{Position: models.Vec3{}, AcceptanceRadius: 1e9}

	// Even a dead-on but aborted simulation is penalized and never accepted.
	fitness, accepted := s.Score(models.TrajectoryOutcome{
		FinalPosition: models.Vec3{},
		Valid:         false,
	}, target)
	if accepted {
		t.Fatalf("invalid outcome must never be accepted")
	}
	if fitness < 1e6 {
		t.Fatalf("expected penalized fitness, got %f", fitness)
	}
}

func TestNewSolutionCarriesCommands(t *testing.T) {
	cfg := models.LaunchConfiguration{
		Origin:   models.Vec3{X: 1, Y: 2, Z: 3},
		YawDeg:   90,
		PitchDeg: -10,
	}
	sol := NewSolution(cfg, models.TrajectoryOutcome{Valid: true}, 12.5)
	if sol.Score != 12.5 {
		t.Fatalf("expected score carried, got %f", sol.Score)
	}
	if sol.Commands["setpos"] == "" || sol.Commands["setang"] == "" || sol.Commands["combined"] == "" {
		t.Fatalf("expected full command payload, got %v", sol.Commands)
	}
}
