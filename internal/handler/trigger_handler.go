package handler

import (
	"context"

	"orchid/commons/error_handler"
	"orchid/commons/handler"
	"orchid/internal/domain"
	"orchid/internal/dto"
	"orchid/internal/logger"
	"orchid/internal/service"
)

type TriggerHandler struct {
	logger  logger.Logger
	trigger service.TriggerService
}

func NewTriggerHandler(log logger.Logger, trigger service.TriggerService) *TriggerHandler {
	return &TriggerHandler{
		logger:  log.With(logger.String("component", "trigger_handler")),
		trigger: trigger,
	}
}

// TriggerService fires the engine synchronously for a submitted event
func (h *TriggerHandler) TriggerService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.TriggerRequest],
) (dto.TriggerResponse, *error_handler.ErrorCollection) {
	req := ioutil.Body

	if !isKnownTriggerType(req.TriggerType) {
		return dto.TriggerResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "unknown trigger type: "+req.TriggerType, nil)
	}

	event := domain.NewTriggerContext(
		domain.TriggerType(req.TriggerType),
		req.EntityType,
		req.EntityID,
		req.Data,
	)

	summary, err := h.trigger.Trigger(ctx, event)
	if err != nil {
		h.logger.Error("trigger failed",
			logger.String("trigger_type", req.TriggerType),
			logger.Error(err),
		)
		return dto.TriggerResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to process trigger", nil)
	}

	return dto.TriggerResponse{
		Triggered: summary.Triggered,
		Executed:  summary.Executed,
		Results:   summary.Results,
	}, nil
}
