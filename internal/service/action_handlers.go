package service

import (
	"context"
	"fmt"
	"time"

	"orchid/internal/chat"
	"orchid/internal/domain"
	"orchid/internal/logger"
	queue "orchid/internal/queue/iface"
	repository "orchid/internal/repository/iface"
	"orchid/internal/webhook"
)

// actionHandler performs the effect of a single action type. Config
// arrives raw; each handler decides which renderer mode its fields use.
type actionHandler interface {
	Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error)
}

// requireString extracts a mandatory non-empty string config key
func requireString(config map[string]interface{}, key string) (string, error) {
	value, ok := config[key].(string)
	if !ok {
		return "", fmt.Errorf("missing required config key %q", key)
	}
	if value == "" {
		return "", fmt.Errorf("config key %q must not be empty", key)
	}
	return value, nil
}

func optionalString(config map[string]interface{}, key string) string {
	value, _ := config[key].(string)
	return value
}

// notificationHandler creates an in-app notification
type notificationHandler struct {
	notificationRepo repository.NotificationRepository
	renderer         TemplateRenderer
}

func (h *notificationHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	recipient, err := requireString(config, "recipient")
	if err != nil {
		return nil, err
	}
	title, err := requireString(config, "title")
	if err != nil {
		return nil, err
	}

	// Plain message templates: unresolved placeholders render empty
	title = h.renderer.Render(title, event, RenderModeBlank)
	body := h.renderer.Render(optionalString(config, "body"), event, RenderModeBlank)

	notification := domain.NewNotification(recipient, title, body)
	if err := h.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return map[string]interface{}{"notification_id": notification.NotificationID}, nil
}

// chatMessageHandler posts to a chat channel webhook
type chatMessageHandler struct {
	chatClient chat.Client
	renderer   TemplateRenderer
}

func (h *chatMessageHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	channel, err := requireString(config, "channel")
	if err != nil {
		return nil, err
	}
	message, err := requireString(config, "message")
	if err != nil {
		return nil, err
	}

	message = h.renderer.Render(message, event, RenderModeBlank)

	if err := h.chatClient.SendMessage(ctx, channel, message); err != nil {
		return nil, fmt.Errorf("chat message failed: %w", err)
	}

	return map[string]interface{}{"channel": channel}, nil
}

// entityStatusHandler mutates the status of the event's business entity
type entityStatusHandler struct {
	entityRepo repository.EntityRepository
	renderer   TemplateRenderer
}

func (h *entityStatusHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	status, err := requireString(config, "status")
	if err != nil {
		return nil, err
	}

	entityType := optionalString(config, "entity_type")
	if entityType == "" {
		entityType = event.EntityType
	}
	entityID := optionalString(config, "entity_id")
	if entityID == "" {
		entityID = event.EntityID
	}
	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("no target entity for status update")
	}

	if err := h.entityRepo.UpdateStatus(ctx, entityType, entityID, status); err != nil {
		return nil, fmt.Errorf("entity status update failed: %w", err)
	}

	return map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   entityID,
		"status":      status,
	}, nil
}

// taskHandler creates a back-office task
type taskHandler struct {
	taskRepo repository.TaskRepository
	renderer TemplateRenderer
}

func (h *taskHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	title, err := requireString(config, "title")
	if err != nil {
		return nil, err
	}

	title = h.renderer.Render(title, event, RenderModeBlank)
	notes := h.renderer.Render(optionalString(config, "notes"), event, RenderModeBlank)
	assignee := optionalString(config, "assignee")

	task := domain.NewTask(title, notes, assignee, event.EntityType, event.EntityID)
	if err := h.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return map[string]interface{}{"task_id": task.TaskID}, nil
}

// enqueueJobHandler sends a job message to the outbound job queue
type enqueueJobHandler struct {
	jobQueue queue.Queue
	renderer TemplateRenderer
}

func (h *enqueueJobHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	jobName, err := requireString(config, "job_name")
	if err != nil {
		return nil, err
	}

	payload, _ := config["payload"].(map[string]interface{})
	payload = h.renderer.RenderConfig(payload, event)

	message := map[string]interface{}{
		"job_name":     jobName,
		"trigger_type": string(event.TriggerType),
		"entity_type":  event.EntityType,
		"entity_id":    event.EntityID,
		"payload":      payload,
	}

	if err := h.jobQueue.Send(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return map[string]interface{}{"job_name": jobName}, nil
}

// webhookHandler posts the rendered payload to an arbitrary URL.
// Unresolved placeholders stay verbatim in the payload so the receiver
// can detect them.
type webhookHandler struct {
	caller   webhook.Caller
	renderer TemplateRenderer
}

func (h *webhookHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	url, err := requireString(config, "url")
	if err != nil {
		return nil, err
	}

	payload, _ := config["payload"].(map[string]interface{})
	if payload == nil {
		payload = event.Data
	} else {
		payload = h.renderer.RenderConfig(payload, event)
	}

	statusCode, err := h.caller.Post(ctx, url, payload)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"status_code": statusCode}, nil
}

// logHandler emits a structured log line
type logHandler struct {
	renderer TemplateRenderer
	logger   logger.Logger
}

func (h *logHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	message, err := requireString(config, "message")
	if err != nil {
		return nil, err
	}

	message = h.renderer.Render(message, event, RenderModeBlank)

	h.logger.Info("rule log action",
		logger.String("message", message),
		logger.String("trigger_type", string(event.TriggerType)),
		logger.String("entity_id", event.EntityID))

	return map[string]interface{}{"message": message}, nil
}

// delayHandler computes a future execute-at timestamp. It never blocks;
// the timestamp is advisory metadata for callers that want deferred work.
type delayHandler struct{}

func (h *delayHandler) Handle(ctx context.Context, config map[string]interface{}, event *domain.TriggerContext) (map[string]interface{}, error) {
	durationStr, err := requireString(config, "duration")
	if err != nil {
		return nil, err
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid delay duration %q: %w", durationStr, err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("delay duration must be positive, got %q", durationStr)
	}

	executeAt := time.Now().Add(duration)

	return map[string]interface{}{
		"execute_at":    executeAt.Format(time.RFC3339),
		"delay_seconds": int(duration.Seconds()),
	}, nil
}
