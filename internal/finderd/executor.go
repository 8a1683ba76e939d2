package finderd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smoke-finder/search-core/internal/mapgeom"
	"github.com/smoke-finder/search-core/internal/search"
	"github.com/smoke-finder/search-core/internal/sim"
	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/logger"
)

var (
	ErrSearchNotFound  = errors.New("search not found")
	ErrSearchTerminal  = errors.New("search is terminal")
	ErrSearchIDMissing = errors.New("search_id is required")
)

// SearchExecutor runs submitted searches asynchronously, one goroutine per
// search, with per-search cancellation. Each search builds its own oracle
// handles (one per configured worker) over the requested map, so concurrent
// searches never share simulator state.
type SearchExecutor struct {
	store    *SearchStore
	loader   *mapgeom.Loader
	cfg      *config.Config
	progress *ProgressHub
	notifier *Notifier

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewSearchExecutor creates an executor over the given store, map loader and
// daemon configuration.
func NewSearchExecutor(store *SearchStore, loader *mapgeom.Loader, cfg *config.Config) *SearchExecutor {
	return &SearchExecutor{
		store:    store,
		loader:   loader,
		cfg:      cfg,
		progress: NewProgressHub(),
		notifier: NewNotifier(),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Progress exposes the hub streaming endpoints subscribe to.
func (e *SearchExecutor) Progress() *ProgressHub {
	return e.progress
}

// Start begins executing a pending search asynchronously and returns the
// updated (running) record.
func (e *SearchExecutor) Start(searchID string) (*SearchRecord, error) {
	if searchID == "" {
		return nil, ErrSearchIDMissing
	}

	rec, ok := e.store.Get(searchID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, searchID)
	}

	switch rec.Status {
	case StatusRunning:
		return rec, nil
	case StatusCompleted, StatusFailed, StatusCancelled:
		return nil, fmt.Errorf("%w: %s", ErrSearchTerminal, searchID)
	}

	updated, err := e.store.SetStatus(searchID, StatusRunning, "")
	if err != nil {
		return nil, err
	}
	e.publish(updated)

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[searchID]; exists {
		old()
	}
	e.cancels[searchID] = cancel
	e.mu.Unlock()

	go e.runSearch(ctx, searchID)
	return updated, nil
}

// Stop requests cancellation for a running search and marks it cancelled.
// Whatever partial result the strategy produced stays attached.
func (e *SearchExecutor) Stop(searchID string) (*SearchRecord, error) {
	if searchID == "" {
		return nil, ErrSearchIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[searchID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	updated, err := e.store.SetStatus(searchID, StatusCancelled, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, searchID)
	}
	e.publish(updated)
	return updated, nil
}

func (e *SearchExecutor) cleanup(searchID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[searchID]; ok {
		cancel()
		delete(e.cancels, searchID)
	}
	e.mu.Unlock()
}

func (e *SearchExecutor) runSearch(ctx context.Context, searchID string) {
	defer e.cleanup(searchID)

	rec, ok := e.store.Get(searchID)
	if !ok {
		logger.Error("search not found", "search_id", searchID)
		return
	}

	finder, err := e.buildFinder(rec.Input.Map)
	if err != nil {
		e.fail(searchID, fmt.Sprintf("failed to prepare search: %v", err))
		return
	}

	// Generation-level progress feeds the websocket stream while the search
	// runs; lifecycle transitions are published separately.
	req := rec.Input.Request
	req.Options.OnGeneration = func(stats search.GenerationStats) {
		e.progress.Publish(ProgressEvent{
			SearchID:    searchID,
			Status:      StatusRunning,
			Generation:  stats.Generation,
			BestFitness: stats.BestFitness,
			Solutions:   stats.Accepted,
			Evaluations: stats.Evaluations,
			Timestamp:   nowUnixMs(),
		})
	}

	result, err := finder.FindSolutions(ctx, req)
	if err != nil {
		e.fail(searchID, err.Error())
		return
	}

	if err := e.store.SetResult(searchID, result); err != nil {
		logger.Error("failed to store result", "search_id", searchID, "error", err)
	}

	// A Stop between the last evaluation and here already marked the record
	// cancelled; SetStatus keeps terminal states untouched.
	updated, err := e.store.SetStatus(searchID, StatusCompleted, "")
	if err != nil {
		logger.Error("failed to set completed status", "search_id", searchID, "error", err)
		return
	}
	e.publish(updated)
	e.notifier.Notify(rec.Input.CallbackURL, updated)

	logger.Info("search completed",
		"search_id", searchID,
		"solutions", len(result.Solutions),
		"evaluations", result.Evaluations,
		"truncated", result.Truncated)
}

// buildFinder assembles the oracle pool and finder for one search: the map,
// one simulation engine per configured worker, and the configured speed
// table and defaults.
func (e *SearchExecutor) buildFinder(mapName string) (*search.Finder, error) {
	m, err := e.loader.Load(mapName)
	if err != nil {
		return nil, err
	}

	workers := e.cfg.Search.Workers
	if workers < 1 {
		workers = 1
	}
	oracles := make([]search.Oracle, workers)
	for i := range oracles {
		oracles[i] = sim.NewEngine(e.cfg.Physics, m)
	}

	speeds, err := e.cfg.SpeedTable()
	if err != nil {
		return nil, err
	}

	stanceZ := m.GroundZ + e.cfg.Physics.StanceHeight
	return search.NewFinder(oracles, stanceZ, speeds, e.cfg.Search)
}

func (e *SearchExecutor) fail(searchID, msg string) {
	logger.Error("search failed", "search_id", searchID, "error", msg)
	updated, err := e.store.SetStatus(searchID, StatusFailed, msg)
	if err != nil {
		logger.Error("failed to set failed status", "search_id", searchID, "error", err)
		return
	}
	e.publish(updated)
	e.notifier.Notify(updated.Input.CallbackURL, updated)
}

func (e *SearchExecutor) publish(rec *SearchRecord) {
	e.progress.Publish(NewProgressEvent(rec))
}
