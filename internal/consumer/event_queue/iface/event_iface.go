package event_queue

import (
	"context"
)

// EventMessage is an inbound trigger event on the event queue
type EventMessage struct {
	TriggerType string                 `json:"trigger_type"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// EventConsumer processes inbound trigger events
type EventConsumer interface {
	// ProcessMessage runs the automation engine for one event
	// Returns true if processing succeeded (message should be deleted)
	ProcessMessage(ctx context.Context, message EventMessage) bool

	// SendMessage publishes an event to the queue
	SendMessage(ctx context.Context, message EventMessage) error
}
