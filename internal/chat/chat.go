package chat

import "context"

// Client defines the interface for chat channel notifications
// (Slack-compatible incoming webhooks)
type Client interface {
	SendMessage(ctx context.Context, channel, message string) error
}
