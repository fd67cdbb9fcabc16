package event

import (
	"context"

	event "orchid/internal/consumer/event_queue/iface"
	"orchid/internal/domain"
	"orchid/internal/logger"
	queue "orchid/internal/queue/iface"
	"orchid/internal/service"
)

type eventConsumer struct {
	logger  logger.Logger
	queue   queue.Queue
	trigger service.TriggerService
}

// NewEventConsumer creates a consumer backed by the trigger service
func NewEventConsumer(log logger.Logger, q queue.Queue, trigger service.TriggerService) event.EventConsumer {
	return &eventConsumer{
		logger:  log.With(logger.String("component", "event_consumer")),
		queue:   q,
		trigger: trigger,
	}
}

// ProcessMessage implements EventConsumer
func (e *eventConsumer) ProcessMessage(ctx context.Context, message event.EventMessage) bool {
	if message.TriggerType == "" {
		e.logger.Warn("dropping event without trigger type",
			logger.String("entity_id", message.EntityID))
		return true
	}

	e.logger.Info("processing trigger event",
		logger.String("trigger_type", message.TriggerType),
		logger.String("entity_type", message.EntityType),
		logger.String("entity_id", message.EntityID))

	ctxEvent := domain.NewTriggerContext(
		domain.TriggerType(message.TriggerType),
		message.EntityType,
		message.EntityID,
		message.Data,
	)

	summary, err := e.trigger.Trigger(ctx, ctxEvent)
	if err != nil {
		// Rule lookup failed, leave the message for redelivery
		e.logger.Error("trigger failed",
			logger.String("trigger_type", message.TriggerType),
			logger.Error(err))
		return false
	}

	e.logger.Info("trigger event processed",
		logger.String("trigger_type", message.TriggerType),
		logger.Int("triggered", summary.Triggered),
		logger.Int("executed", summary.Executed))

	return true
}

// SendMessage publishes an event to the queue
func (e *eventConsumer) SendMessage(ctx context.Context, message event.EventMessage) error {
	if err := e.queue.Send(ctx, message); err != nil {
		e.logger.Error("failed to send event to queue",
			logger.String("trigger_type", message.TriggerType),
			logger.Error(err))
		return err
	}

	return nil
}
