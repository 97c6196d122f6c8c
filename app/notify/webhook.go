package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier delivers events as JSON POSTs. Delivery is fire-and-forget:
// a failed POST is logged and dropped, never retried into the pipeline.
type WebhookNotifier struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

func NewWebhookNotifier(url, userAgent string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

func (n *WebhookNotifier) Notify(event Event) {
	go func() {
		if err := n.deliver(event); err != nil {
			slog.Error("Webhook delivery failed", "kind", event.Kind(), "url", n.url, "error", err)
		}
	}()
}

func (n *WebhookNotifier) deliver(event Event) error {
	payload, err := json.Marshal(map[string]any{
		"kind":  event.Kind(),
		"event": event,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}
