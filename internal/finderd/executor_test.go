package finderd

import (
	"testing"
	"time"

	"github.com/smoke-finder/search-core/internal/mapgeom"
	"github.com/smoke-finder/search-core/internal/search"
	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/models"
)

func testExecutor(t *testing.T) (*SearchStore, *SearchExecutor) {
	t.Helper()
	store := NewSearchStore()
	loader := mapgeom.NewLoader(t.TempDir())
	return store, NewSearchExecutor(store, loader, config.DefaultConfig())
}

// waitTerminal polls until the search leaves its running states.
func waitTerminal(t *testing.T, store *SearchStore, searchID string) *SearchRecord {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := store.Get(searchID)
		if !ok {
			t.Fatalf("search disappeared: %s", searchID)
		}
		if rec.Status.terminal() {
			return rec
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("search %s did not finish in time", searchID)
	return nil
}

func TestExecutorRunsSearchToCompletion(t *testing.T) {
	store, executor := testExecutor(t)

	input := testInput()
	input.Options = search.Options{Seed: 1, MaxEvaluations: 50}
	rec, err := store.Create("", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	started, err := executor.Start(rec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Status != StatusRunning {
		t.Fatalf("expected running status, got %s", started.Status)
	}

	final := waitTerminal(t, store, rec.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.Error)
	}
	if final.Result == nil {
		t.Fatalf("expected a result attached")
	}
	if final.Result.Evaluations == 0 || final.Result.Evaluations > 50 {
		t.Fatalf("evaluations outside budget: %d", final.Result.Evaluations)
	}
}

func TestExecutorStartValidation(t *testing.T) {
	store, executor := testExecutor(t)

	if _, err := executor.Start(""); err == nil {
		t.Fatalf("expected error for empty search ID")
	}
	if _, err := executor.Start("missing"); err == nil {
		t.Fatalf("expected error for unknown search")
	}

	input := testInput()
	input.Options = search.Options{Seed: 1, MaxEvaluations: 10}
	rec, _ := store.Create("", input)
	if _, err := executor.Start(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitTerminal(t, store, rec.ID)

	// Restarting a terminal search is rejected.
	if _, err := executor.Start(rec.ID); err == nil {
		t.Fatalf("expected error for terminal search")
	}
}

func TestExecutorStop(t *testing.T) {
	store, executor := testExecutor(t)

	// Evolutionary with no budget runs long enough to cancel.
	input := testInput()
	input.Strategy = search.KindEvolutionary
	input.Options = search.Options{Seed: 1, MaxGenerations: 10000, PopulationSize: 200, TargetSolutions: -1}
	rec, _ := store.Create("", input)
	if _, err := executor.Start(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := executor.Stop(rec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}

	final := waitTerminal(t, store, rec.ID)
	if final.Status != StatusCancelled {
		t.Fatalf("cancelled status must stick, got %s", final.Status)
	}
}

func TestExecutorInvalidRequestFails(t *testing.T) {
	store, executor := testExecutor(t)

	input := testInput()
	input.MaxResults = 0 // rejected by the finder before any evaluation
	rec, _ := store.Create("", input)
	if _, err := executor.Start(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := waitTerminal(t, store, rec.ID)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.Error == "" {
		t.Fatalf("expected an error message")
	}
}

func TestExecutorPublishesProgress(t *testing.T) {
	store, executor := testExecutor(t)

	input := testInput()
	input.Options = search.Options{Seed: 1, MaxEvaluations: 10}
	rec, _ := store.Create("", input)

	events, cancel := executor.Progress().Subscribe(rec.ID)
	defer cancel()

	if _, err := executor.Start(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitTerminal(t, store, rec.ID)

	sawRunning, sawCompleted := false, false
	timeout := time.After(5 * time.Second)
	for !sawCompleted {
		select {
		case evt := <-events:
			switch evt.Status {
			case StatusRunning:
				sawRunning = true
			case StatusCompleted:
				sawCompleted = true
			}
		case <-timeout:
			t.Fatalf("progress events missing: running=%v completed=%v", sawRunning, sawCompleted)
		}
	}
	if !sawRunning {
		t.Fatalf("expected a running event before completion")
	}
}

func TestExecutorUnknownThrowTypeFailsBeforeSimulation(t *testing.T) {
	store, executor := testExecutor(t)

	input := testInput()
	input.ThrowType = models.ThrowType("sidearm")
	rec, _ := store.Create("", input)
	if _, err := executor.Start(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := waitTerminal(t, store, rec.ID)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
}
