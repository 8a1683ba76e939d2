package finderd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smoke-finder/search-core/internal/search"
	"github.com/smoke-finder/search-core/pkg/logger"
)

// NotificationPayload is the JSON body posted to a search's callback URL
// when it reaches a terminal state.
type NotificationPayload struct {
	SearchID        string         `json:"search_id"`
	Status          SearchStatus   `json:"status"`
	CreatedAtUnixMs int64          `json:"created_at_unix_ms"`
	StartedAtUnixMs int64          `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64          `json:"ended_at_unix_ms,omitempty"`
	Error           string         `json:"error,omitempty"`
	Result          *search.Result `json:"result,omitempty"`
	Timestamp       int64          `json:"timestamp"`
}

// Notifier posts completion callbacks with retry and exponential backoff.
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewNotifier creates a notifier with the default client and retry policy.
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
}

// Notify posts the record to callbackURL asynchronously. A {search_id}
// template in the URL is replaced with the search's ID. No-op for an empty
// URL.
func (n *Notifier) Notify(callbackURL string, rec *SearchRecord) {
	if callbackURL == "" || rec == nil {
		return
	}

	payload := NotificationPayload{
		SearchID:        rec.ID,
		Status:          rec.Status,
		CreatedAtUnixMs: rec.CreatedAtUnixMs,
		StartedAtUnixMs: rec.StartedAtUnixMs,
		EndedAtUnixMs:   rec.EndedAtUnixMs,
		Error:           rec.Error,
		Result:          rec.Result,
		Timestamp:       time.Now().UTC().UnixMilli(),
	}
	finalURL := strings.ReplaceAll(callbackURL, "{search_id}", rec.ID)

	go n.send(finalURL, payload)
}

func (n *Notifier) send(callbackURL string, payload NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload",
			"callback_url", callbackURL, "search_id", payload.SearchID, "error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			logger.Debug("retrying notification",
				"callback_url", callbackURL, "search_id", payload.SearchID,
				"attempt", attempt, "delay", delay)
			time.Sleep(delay)
		}

		req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("notification sent",
				"search_id", payload.SearchID, "status", payload.Status,
				"status_code", resp.StatusCode)
			return
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	logger.Error("failed to send notification after retries",
		"callback_url", callbackURL, "search_id", payload.SearchID,
		"max_retries", n.maxRetries, "error", lastErr)
}
