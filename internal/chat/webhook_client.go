package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"orchid/internal/logger"
)

type webhookClient struct {
	webhookURL string
	httpClient *http.Client
	logger     logger.Logger
}

// NewWebhookClient creates a chat client that posts messages to a
// Slack-compatible incoming webhook
func NewWebhookClient(webhookURL string, log logger.Logger) Client {
	return &webhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.With(logger.String("component", "chat_webhook_client")),
	}
}

func (c *webhookClient) SendMessage(ctx context.Context, channel, message string) error {
	payload, err := json.Marshal(map[string]string{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to post chat message",
			logger.String("channel", channel),
			logger.Error(err))
		return fmt.Errorf("chat webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	c.logger.Debug("chat message sent",
		logger.String("channel", channel))

	return nil
}
