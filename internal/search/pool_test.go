package search

import (
	"context"
	"testing"

	"github.com/smoke-finder/search-core/pkg/models"
)

func batchConfigs(n int) []models.LaunchConfiguration {
	cfgs := make([]models.LaunchConfiguration, n)
	for i := range cfgs {
		cfgs[i] = models.LaunchConfiguration{
			Origin:   models.Vec3{X: float64(i), Z: 72},
			PitchDeg: 10,
			Speed:    400,
		}
	}
	return cfgs
}

func TestSequentialEvaluatorOrder(t *testing.T) {
	oracle := newPlaneOracle(0)
	eval := NewEvaluator([]Oracle{oracle})

	cfgs := batchConfigs(10)
	outcomes := eval.EvaluateAll(context.Background(), cfgs)
	if len(outcomes) != len(cfgs) {
		t.Fatalf("expected %d outcomes, got %d", len(cfgs), len(outcomes))
	}
	if oracle.Calls() != len(cfgs) {
		t.Fatalf("expected %d oracle calls, got %d", len(cfgs), oracle.Calls())
	}
	for i, out := range outcomes {
		if !out.Valid {
			t.Fatalf("outcome %d unexpectedly invalid", i)
		}
		// Result i must belong to configuration i: same launch column X plus
		// the deterministic downrange offset.
		if out.FinalPosition.X <= float64(i) {
			t.Fatalf("outcome %d not matched to its configuration: %+v", i, out)
		}
	}
}

func TestPoolEvaluatorOrderAndBarrier(t *testing.T) {
	oracles := []Oracle{newPlaneOracle(0), newPlaneOracle(0), newPlaneOracle(0)}
	eval := NewEvaluator(oracles)

	cfgs := batchConfigs(50)
	outcomes := eval.EvaluateAll(context.Background(), cfgs)
	if len(outcomes) != len(cfgs) {
		t.Fatalf("expected %d outcomes, got %d", len(cfgs), len(outcomes))
	}
	for i, out := range outcomes {
		if !out.Valid {
			t.Fatalf("outcome %d unexpectedly invalid", i)
		}
		if out.FinalPosition.X <= float64(i) {
			t.Fatalf("outcome %d not matched to its configuration: %+v", i, out)
		}
	}

	total := 0
	for _, o := range oracles {
		total += o.(*planeOracle).Calls()
	}
	if total != len(cfgs) {
		t.Fatalf("expected every configuration simulated exactly once, got %d calls", total)
	}
}

func TestEvaluatorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := NewEvaluator([]Oracle{newPlaneOracle(0)})
	outcomes := eval.EvaluateAll(ctx, batchConfigs(5))
	if len(outcomes) != 5 {
		t.Fatalf("expected full-length outcome slice, got %d", len(outcomes))
	}
	for i, out := range outcomes {
		if out.Valid {
			t.Fatalf("outcome %d should be invalid after cancellation", i)
		}
		if out.FinalPosition != (models.Vec3{X: float64(i), Z: 72}) {
			t.Fatalf("cancelled outcome %d should rest at its origin, got %+v", i, out.FinalPosition)
		}
	}
}
