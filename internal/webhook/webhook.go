package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"orchid/internal/logger"
)

// Caller posts JSON payloads to arbitrary webhook URLs on behalf of
// call_webhook actions
type Caller interface {
	Post(ctx context.Context, url string, payload map[string]interface{}) (int, error)
}

type httpCaller struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewHTTPCaller creates a webhook caller with a bounded request timeout.
// The timeout lives here, at the collaborator boundary, so the dispatch
// loop itself needs no cancellation primitive.
func NewHTTPCaller(timeout time.Duration, log logger.Logger) Caller {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpCaller{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(logger.String("component", "webhook_caller")),
	}
}

func (c *httpCaller) Post(ctx context.Context, url string, payload map[string]interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("webhook call failed",
			logger.String("url", url),
			logger.Error(err))
		return 0, fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.logger.Debug("webhook called",
		logger.String("url", url),
		logger.Int("status_code", resp.StatusCode))

	return resp.StatusCode, nil
}
