package finderd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smoke-finder/search-core/internal/search"
	"github.com/smoke-finder/search-core/pkg/utils"
)

// SearchStatus is the lifecycle state of one submitted search.
type SearchStatus string

const (
	StatusPending   SearchStatus = "pending"
	StatusRunning   SearchStatus = "running"
	StatusCompleted SearchStatus = "completed"
	StatusFailed    SearchStatus = "failed"
	StatusCancelled SearchStatus = "cancelled"
)

// terminal reports whether a status is final.
func (s SearchStatus) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// SearchInput is the stored request: the core search order plus the map it
// runs against.
type SearchInput struct {
	Map string `json:"map,omitempty"`
	// CallbackURL, when set, receives a POST notification once the search
	// reaches a terminal state.
	CallbackURL string `json:"callback_url,omitempty"`
	search.Request
}

// SearchRecord tracks one search through its lifecycle. Result is nil until
// the search completes.
type SearchRecord struct {
	ID              string         `json:"id"`
	Status          SearchStatus   `json:"status"`
	Input           SearchInput    `json:"input"`
	Result          *search.Result `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	CreatedAtUnixMs int64          `json:"created_at_unix_ms"`
	StartedAtUnixMs int64          `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64          `json:"ended_at_unix_ms,omitempty"`
}

// SearchStore is the in-memory record of every submitted search.
type SearchStore struct {
	mu       sync.RWMutex
	searches map[string]*SearchRecord
}

func NewSearchStore() *SearchStore {
	return &SearchStore{
		searches: make(map[string]*SearchRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// snapshot copies a record so callers never hold a pointer the store mutates
// under its own lock. The Result pointer is shared; results are written once
// and read-only afterwards.
func snapshot(rec *SearchRecord) *SearchRecord {
	cp := *rec
	return &cp
}

// Create registers a new pending search. An empty ID gets a generated one.
func (s *SearchStore) Create(searchID string, input SearchInput) (*SearchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if searchID == "" {
		searchID = utils.GenerateSearchID()
	}
	if _, exists := s.searches[searchID]; exists {
		return nil, fmt.Errorf("search already exists: %s", searchID)
	}

	rec := &SearchRecord{
		ID:              searchID,
		Status:          StatusPending,
		Input:           input,
		CreatedAtUnixMs: nowUnixMs(),
	}
	s.searches[searchID] = rec
	return snapshot(rec), nil
}

// Get returns a copy of one record by ID.
func (s *SearchStore) Get(searchID string) (*SearchRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.searches[searchID]
	if !ok {
		return nil, false
	}
	return snapshot(rec), true
}

// List returns records newest-first with pagination and an optional status
// filter (empty matches everything).
func (s *SearchStore) List(limit, offset int, status SearchStatus) []*SearchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]*SearchRecord, 0, len(s.searches))
	for _, rec := range s.searches {
		if status != "" && rec.Status != status {
			continue
		}
		all = append(all, snapshot(rec))
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].CreatedAtUnixMs != all[b].CreatedAtUnixMs {
			return all[a].CreatedAtUnixMs > all[b].CreatedAtUnixMs
		}
		return all[a].ID > all[b].ID
	})

	if offset >= len(all) {
		return []*SearchRecord{}
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SetStatus transitions a search, stamping start/end times. Terminal records
// are never reopened.
func (s *SearchStore) SetStatus(searchID string, status SearchStatus, errMsg string) (*SearchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.searches[searchID]
	if !ok {
		return nil, fmt.Errorf("search not found: %s", searchID)
	}
	if rec.Status.terminal() {
		return snapshot(rec), nil
	}

	rec.Status = status
	if errMsg != "" {
		rec.Error = errMsg
	}

	switch status {
	case StatusRunning:
		if rec.StartedAtUnixMs == 0 {
			rec.StartedAtUnixMs = nowUnixMs()
		}
	case StatusCompleted, StatusFailed, StatusCancelled:
		rec.EndedAtUnixMs = nowUnixMs()
	}

	return snapshot(rec), nil
}

// SetResult attaches the finished search result.
func (s *SearchStore) SetResult(searchID string, result *search.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.searches[searchID]
	if !ok {
		return fmt.Errorf("search not found: %s", searchID)
	}
	rec.Result = result
	return nil
}
