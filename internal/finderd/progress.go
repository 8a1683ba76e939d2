package finderd

import (
	"sync"
	"time"
)

// ProgressEvent is one lifecycle update for a search, streamed to websocket
// subscribers.
type ProgressEvent struct {
	SearchID     string       `json:"search_id"`
	Status       SearchStatus `json:"status"`
	Generation   int          `json:"generation,omitempty"`
	BestFitness  float64      `json:"best_fitness,omitempty"`
	Solutions    int          `json:"solutions,omitempty"`
	Evaluations  int          `json:"evaluations,omitempty"`
	BestDistance float64      `json:"best_distance,omitempty"`
	Truncated    bool         `json:"truncated,omitempty"`
	Error        string       `json:"error,omitempty"`
	Timestamp    int64        `json:"timestamp"`
}

// NewProgressEvent snapshots a record into an event.
func NewProgressEvent(rec *SearchRecord) ProgressEvent {
	evt := ProgressEvent{
		SearchID:  rec.ID,
		Status:    rec.Status,
		Error:     rec.Error,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
	if rec.Result != nil {
		evt.Solutions = len(rec.Result.Solutions)
		evt.Evaluations = rec.Result.Evaluations
		evt.BestDistance = rec.Result.BestDistance
		evt.Truncated = rec.Result.Truncated
	}
	return evt
}

// ProgressHub fans search lifecycle events out to per-search subscribers.
// Slow subscribers drop events rather than blocking the executor.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan ProgressEvent]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string]map[chan ProgressEvent]struct{}),
	}
}

// Subscribe registers for one search's events. The returned cancel func must
// be called when the subscriber is done; it closes the channel.
func (h *ProgressHub) Subscribe(searchID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)

	h.mu.Lock()
	if h.subs[searchID] == nil {
		h.subs[searchID] = make(map[chan ProgressEvent]struct{})
	}
	h.subs[searchID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[searchID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, searchID)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its search.
func (h *ProgressHub) Publish(evt ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[evt.SearchID] {
		select {
		case ch <- evt:
		default:
			// Subscriber is not keeping up; drop rather than block.
		}
	}
}
