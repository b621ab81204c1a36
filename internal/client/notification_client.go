package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// NotificationClient posts provider status events to the notification webhook
type NotificationClient struct {
	webhookURL  string
	internalKey string
	httpClient  *http.Client
}

// NewNotificationClient creates a new notification client
func NewNotificationClient(webhookURL, internalKey string) *NotificationClient {
	return &NotificationClient{
		webhookURL:  webhookURL,
		internalKey: internalKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyProvider sends a provider event. A client without a webhook URL drops events.
func (c *NotificationClient) NotifyProvider(ctx context.Context, event *models.ProviderEvent) error {
	if c.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Secret", c.internalKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	return nil
}
