// Package events delivers generation events to an external webhook.
package events

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// GenerationEvent is the JSON body sent to the webhook for each successful
// generation.
type GenerationEvent struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	Format          string `json:"type"`
	ErrorCorrection string `json:"error_correction"`
	Width           int    `json:"width"`
	Bytes           int    `json:"bytes"`
	Timestamp       int64  `json:"timestamp"`
}

// WebhookSender posts events to an HTTP endpoint. An event with the same
// content as one delivered within seenTTL is dropped, so repeated downloads of
// one code produce a single delivery.
type WebhookSender struct {
	url    string
	seen   map[string]time.Time // content key -> first seen time
	mu     sync.Mutex
	client *http.Client
	log    *slog.Logger
}

const seenTTL = 5 * time.Minute

// NewWebhookSender creates a sender for url. An empty url makes Send a no-op.
func NewWebhookSender(url string, log *slog.Logger) *WebhookSender {
	return &WebhookSender{
		url:  url,
		seen: make(map[string]time.Time),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (w *WebhookSender) Enabled() bool {
	return w.url != ""
}

// Send delivers evt. It returns nil without sending when no URL is configured
// or an event with the same content was already sent.
func (w *WebhookSender) Send(ctx context.Context, evt *GenerationEvent) error {
	if w.url == "" {
		return nil
	}

	key := evt.contentKey()
	w.mu.Lock()
	w.cleanupSeenLocked()
	if _, ok := w.seen[key]; ok {
		w.mu.Unlock()
		w.log.Debug("webhook skipping duplicate event", "id", evt.ID)
		return nil
	}
	w.seen[key] = time.Now()
	w.mu.Unlock()

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("webhook marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Error("webhook delivery failed", "error", err, "id", evt.ID)
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.log.Info("webhook delivered", "status", resp.StatusCode, "id", evt.ID)
	} else {
		w.log.Warn("webhook non-2xx response", "status", resp.StatusCode, "id", evt.ID)
	}
	return nil
}

// contentKey identifies what was generated, ignoring the id and timestamp.
func (evt *GenerationEvent) contentKey() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00", evt.Format, evt.ErrorCorrection, evt.Width, evt.Bytes)
	h.Write([]byte(evt.Text))
	return hex.EncodeToString(h.Sum(nil))
}

// cleanupSeenLocked removes stale dedup entries. The caller MUST hold w.mu.
func (w *WebhookSender) cleanupSeenLocked() {
	cutoff := time.Now().Add(-seenTTL)
	for id, t := range w.seen {
		if t.Before(cutoff) {
			delete(w.seen, id)
		}
	}
}
