// Package notify pushes sync milestones to an ntfy-style HTTP endpoint.
// Notifications are best effort: failures are logged by the caller and
// never affect the sync cycle.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier sends a plain-text push message.
type Notifier interface {
	Push(ctx context.Context, message string) error
}

// New returns an HTTP notifier for the given endpoint, or a no-op notifier
// when no endpoint is configured.
func New(url string) Notifier {
	if url == "" {
		return Nop{}
	}
	return &httpNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Push(context.Context, string) error { return nil }

type httpNotifier struct {
	url    string
	client *http.Client
}

func (n *httpNotifier) Push(ctx context.Context, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push notification: unexpected status %d", resp.StatusCode)
	}
	return nil
}
