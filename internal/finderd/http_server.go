package finderd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smoke-finder/search-core/internal/mapgeom"
	"github.com/smoke-finder/search-core/pkg/logger"
	"github.com/smoke-finder/search-core/pkg/models"
)

// HTTPServer is the daemon's REST and websocket surface.
type HTTPServer struct {
	mux      *http.ServeMux
	store    *SearchStore
	executor *SearchExecutor
	loader   *mapgeom.Loader
	upgrader websocket.Upgrader
}

// NewHTTPServer wires the routes over the given store, executor and map
// loader.
func NewHTTPServer(store *SearchStore, executor *SearchExecutor, loader *mapgeom.Loader) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		executor: executor,
		loader:   loader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/searches", s.handleSearches)
	s.mux.HandleFunc("/v1/searches/", s.handleSearchByID)
	s.mux.HandleFunc("/v1/maps/", s.handleMapByName)

	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSearches handles /v1/searches.
func (s *HTTPServer) handleSearches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSearch(w, r)
	case http.MethodGet:
		s.handleListSearches(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSearchByID handles /v1/searches/{id} and related endpoints.
func (s *HTTPServer) handleSearchByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/searches/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "search ID is required")
		return
	}

	if searchID, ok := strings.CutSuffix(path, ":cancel"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleCancelSearch(w, searchID)
		return
	}

	if searchID, ok := strings.CutSuffix(path, "/progress"); ok {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleProgress(w, r, searchID)
		return
	}

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetSearch(w, path)
}

// handleCreateSearch handles POST /v1/searches: validate, register and start
// the search in one step.
func (s *HTTPServer) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchID string `json:"search_id,omitempty"`
		SearchInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// An omitted acceptance radius falls back to the configured default;
	// applying it here keeps the stored record showing the effective value.
	if req.Request.Target.AcceptanceRadius == 0 {
		req.Request.Target.AcceptanceRadius = s.executor.cfg.Search.AcceptanceRadius
	}
	if err := req.Request.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Create(req.SearchID, req.SearchInput)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			s.writeError(w, http.StatusConflict, err.Error())
		} else {
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	started, err := s.executor.Start(rec.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("search created", "search_id", started.ID, "strategy", started.Input.Strategy)
	s.writeJSON(w, http.StatusCreated, map[string]any{"search": started})
}

// handleListSearches handles GET /v1/searches with pagination and an
// optional status filter.
func (s *HTTPServer) handleListSearches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	status := parseSearchStatus(r.URL.Query().Get("status"))

	records := s.store.List(limit, offset, status)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"searches": records,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(records),
		},
	})
}

// parseSearchStatus maps a query value to a status filter; unknown values
// mean no filter.
func parseSearchStatus(s string) SearchStatus {
	switch SearchStatus(strings.ToLower(s)) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return SearchStatus(strings.ToLower(s))
	default:
		return ""
	}
}

// handleGetSearch handles GET /v1/searches/{id}.
func (s *HTTPServer) handleGetSearch(w http.ResponseWriter, searchID string) {
	rec, ok := s.store.Get(searchID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "search not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"search": rec})
}

// handleCancelSearch handles POST /v1/searches/{id}:cancel.
func (s *HTTPServer) handleCancelSearch(w http.ResponseWriter, searchID string) {
	updated, err := s.executor.Stop(searchID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSearchNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrSearchIDMissing):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("search cancelled", "search_id", searchID)
	s.writeJSON(w, http.StatusOK, map[string]any{"search": updated})
}

// handleProgress handles GET /v1/searches/{id}/progress: upgrades to a
// websocket, sends the current state, then streams lifecycle events until
// the search reaches a terminal state or the client goes away.
func (s *HTTPServer) handleProgress(w http.ResponseWriter, r *http.Request, searchID string) {
	rec, ok := s.store.Get(searchID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "search not found")
		return
	}

	// Subscribe before snapshotting so no transition is missed in between.
	events, cancel := s.executor.Progress().Subscribe(searchID)
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "search_id", searchID, "error", err)
		return
	}
	defer conn.Close()

	snapshot := NewProgressEvent(rec)
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}
	if snapshot.Status.terminal() {
		return
	}

	for evt := range events {
		if err := conn.WriteJSON(evt); err != nil {
			return
		}
		if evt.Status.terminal() {
			return
		}
	}
}

// handleMapByName handles GET /v1/maps/{name} and /v1/maps/{name}/los.
func (s *HTTPServer) handleMapByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/v1/maps/")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "map name is required")
		return
	}

	if mapName, ok := strings.CutSuffix(name, "/los"); ok {
		s.handleLineOfSight(w, r, mapName)
		return
	}

	m, err := s.loader.Load(name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"map": m})
}

// handleLineOfSight handles GET /v1/maps/{name}/los?from=x,y,z&to=x,y,z: a
// straight-segment visibility check the presentation layer uses to preview
// throw positions.
func (s *HTTPServer) handleLineOfSight(w http.ResponseWriter, r *http.Request, mapName string) {
	from, err := parseVec3(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid from point: "+err.Error())
		return
	}
	to, err := parseVec3(r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid to point: "+err.Error())
		return
	}

	m, err := s.loader.Load(mapName)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"from":          from,
		"to":            to,
		"line_of_sight": !m.SegmentBlocked(from, to),
	})
}

// parseVec3 parses an "x,y,z" query value.
func parseVec3(raw string) (models.Vec3, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return models.Vec3{}, fmt.Errorf("expected x,y,z, got %q", raw)
	}
	coords := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return models.Vec3{}, fmt.Errorf("bad coordinate %q", part)
		}
		coords[i] = v
	}
	return models.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}
