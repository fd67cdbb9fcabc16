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

// ActionDispatcher runs a rule's action list against a trigger event.
type ActionDispatcher interface {
	// Dispatch runs a single action and reports its outcome. Errors are
	// folded into the result, never returned.
	Dispatch(ctx context.Context, action domain.Action, event *domain.TriggerContext) domain.ActionResult

	// DispatchAll runs actions in order and stops at the first failure.
	// Actions after the failing one produce no results and ok is false.
	DispatchAll(ctx context.Context, actions []domain.Action, event *domain.TriggerContext) (results []domain.ActionResult, ok bool)
}

type actionDispatcher struct {
	handlers map[domain.ActionType]actionHandler
	log      logger.Logger
}

func NewActionDispatcher(
	notificationRepo repository.NotificationRepository,
	taskRepo repository.TaskRepository,
	entityRepo repository.EntityRepository,
	chatClient chat.Client,
	jobQueue queue.Queue,
	webhookCaller webhook.Caller,
	renderer TemplateRenderer,
	log logger.Logger,
) ActionDispatcher {
	log = log.With(logger.String("component", "action_dispatcher"))

	handlers := map[domain.ActionType]actionHandler{
		domain.ActionTypeSendNotification:   &notificationHandler{notificationRepo: notificationRepo, renderer: renderer},
		domain.ActionTypeSendChatMessage:    &chatMessageHandler{chatClient: chatClient, renderer: renderer},
		domain.ActionTypeUpdateEntityStatus: &entityStatusHandler{entityRepo: entityRepo, renderer: renderer},
		domain.ActionTypeCreateTask:         &taskHandler{taskRepo: taskRepo, renderer: renderer},
		domain.ActionTypeEnqueueJob:         &enqueueJobHandler{jobQueue: jobQueue, renderer: renderer},
		domain.ActionTypeCallWebhook:        &webhookHandler{caller: webhookCaller, renderer: renderer},
		domain.ActionTypeLog:                &logHandler{renderer: renderer, logger: log},
		domain.ActionTypeDelay:              &delayHandler{},
	}

	return &actionDispatcher{
		handlers: handlers,
		log:      log,
	}
}

func (d *actionDispatcher) Dispatch(ctx context.Context, action domain.Action, event *domain.TriggerContext) domain.ActionResult {
	result := domain.ActionResult{
		ActionType: action.Type,
		Status:     domain.ActionResultSuccess,
	}

	handler, ok := d.handlers[action.Type]
	if !ok {
		result.Status = domain.ActionResultFailed
		result.Error = fmt.Sprintf("unknown action type: %s", action.Type)
		return result
	}

	start := time.Now()
	output, err := handler.Handle(ctx, action.Config, event)
	result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		result.Status = domain.ActionResultFailed
		result.Error = err.Error()
		d.log.Warn("action failed",
			logger.String("action_type", string(action.Type)),
			logger.String("entity_id", event.EntityID),
			logger.Error(err))
		return result
	}

	result.Result = output
	return result
}

func (d *actionDispatcher) DispatchAll(ctx context.Context, actions []domain.Action, event *domain.TriggerContext) ([]domain.ActionResult, bool) {
	results := make([]domain.ActionResult, 0, len(actions))

	for _, action := range actions {
		result := d.Dispatch(ctx, action, event)
		results = append(results, result)

		if result.Status == domain.ActionResultFailed {
			return results, false
		}
	}

	return results, true
}
