package handler

import (
	"context"
	"strconv"
	"time"

	"orchid/commons/error_handler"
	"orchid/commons/handler"
	"orchid/internal/domain"
	"orchid/internal/dto"
	"orchid/internal/logger"
	"orchid/internal/repository"
	"orchid/internal/repository/dynamodb"
	repositoryIface "orchid/internal/repository/iface"
	"orchid/internal/service"
)

type RuleHandler struct {
	logger        logger.Logger
	ruleRepo      repositoryIface.RuleRepository
	executionRepo repositoryIface.ExecutionRepository
	ruleManager   service.RuleManager
}

func NewRuleHandler(
	log logger.Logger,
	ruleRepo repositoryIface.RuleRepository,
	executionRepo repositoryIface.ExecutionRepository,
	ruleManager service.RuleManager,
) *RuleHandler {
	return &RuleHandler{
		logger:        log.With(logger.String("component", "rule_handler")),
		ruleRepo:      ruleRepo,
		executionRepo: executionRepo,
		ruleManager:   ruleManager,
	}
}

func (h *RuleHandler) CreateRuleService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.CreateRuleRequest],
) (dto.RuleResponse, *error_handler.ErrorCollection) {
	req := ioutil.Body

	if !isKnownTriggerType(req.TriggerType) {
		return dto.RuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "unknown trigger type: "+req.TriggerType, nil)
	}
	if errs := validateActions(req.Actions); errs != nil {
		return dto.RuleResponse{}, errs
	}

	rule := domain.NewRule(req.Name, domain.TriggerType(req.TriggerType), req.Priority, req.Conditions, req.Actions)
	rule.Description = req.Description
	rule.MaxExecutionsPerDay = req.MaxExecutionsPerDay
	rule.CooldownMinutes = req.CooldownMinutes

	if err := h.ruleRepo.Create(ctx, rule); err != nil {
		h.logger.Error("failed to save rule",
			logger.String("rule_id", rule.RuleID),
			logger.Error(err),
		)
		if dynamodb.IsDuplicateRuleError(err) {
			return dto.RuleResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "rule already exists", nil)
		}
		return dto.RuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to save rule", nil)
	}

	h.notifyRuleChange(ctx, rule.RuleID)

	return dto.NewRuleResponse(rule), nil
}

func (h *RuleHandler) GetRuleService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetRuleRequest],
) (dto.RuleResponse, *error_handler.ErrorCollection) {
	ruleID := ioutil.PathParams["id"]

	rule, err := h.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		if repository.IsNotFoundError(err) {
			return dto.RuleResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeNotFound, "rule not found", nil)
		}
		h.logger.Error("failed to get rule",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		return dto.RuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to get rule", nil)
	}

	return dto.NewRuleResponse(rule), nil
}

func (h *RuleHandler) UpdateRuleService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.UpdateRuleRequest],
) (dto.RuleResponse, *error_handler.ErrorCollection) {
	ruleID := ioutil.PathParams["id"]
	req := ioutil.Body

	rule, err := h.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return dto.RuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "rule not found", nil)
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Conditions != nil {
		rule.Conditions = req.Conditions
	}
	if req.Actions != nil {
		if errs := validateActions(req.Actions); errs != nil {
			return dto.RuleResponse{}, errs
		}
		rule.Actions = req.Actions
	}
	if req.MaxExecutionsPerDay != nil {
		rule.MaxExecutionsPerDay = req.MaxExecutionsPerDay
	}
	if req.CooldownMinutes != nil {
		rule.CooldownMinutes = req.CooldownMinutes
	}
	rule.UpdatedAt = time.Now().UnixMilli()

	if err := h.ruleRepo.Update(ctx, rule); err != nil {
		h.logger.Error("failed to update rule",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		return dto.RuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to update rule", nil)
	}

	h.notifyRuleChange(ctx, ruleID)

	return dto.NewRuleResponse(rule), nil
}

func (h *RuleHandler) DeleteRuleService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.DeleteRuleRequest],
) (dto.DeleteRuleResponse, *error_handler.ErrorCollection) {
	ruleID := ioutil.PathParams["id"]

	if _, err := h.ruleRepo.GetByID(ctx, ruleID); err != nil {
		return dto.DeleteRuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "rule not found", nil)
	}

	if err := h.ruleRepo.Delete(ctx, ruleID); err != nil {
		h.logger.Error("failed to delete rule",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		return dto.DeleteRuleResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to delete rule", nil)
	}

	// Cascade the ledger; the rule row is already gone so a failure here
	// only leaves orphaned history behind
	executionsDeleted := true
	if err := h.executionRepo.DeleteByRuleID(ctx, ruleID); err != nil {
		h.logger.Error("failed to delete executions for rule",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		executionsDeleted = false
	}

	h.notifyRuleChange(ctx, ruleID)

	return dto.DeleteRuleResponse{
		RuleID:            ruleID,
		Deleted:           true,
		ExecutionsDeleted: executionsDeleted,
	}, nil
}

func (h *RuleHandler) ListRulesService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListRulesRequest],
) (dto.ListRulesResponse, *error_handler.ErrorCollection) {
	limit := parseLimit(ioutil.QueryParams["limit"], 20)
	nextToken := ioutil.QueryParams["next_token"]

	result, err := h.ruleRepo.List(ctx, limit, nextToken)
	if err != nil {
		h.logger.Error("failed to list rules", logger.Error(err))
		return dto.ListRulesResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to list rules", nil)
	}

	rules := make([]dto.RuleResponse, 0, len(result.Rules))
	for _, rule := range result.Rules {
		rules = append(rules, dto.NewRuleResponse(rule))
	}

	return dto.ListRulesResponse{
		Rules: rules,
		Pagination: dto.PaginationResponse{
			Count:     len(rules),
			NextToken: result.NextToken,
		},
	}, nil
}

// notifyRuleChange bumps the shared refresh node after any rule mutation
func (h *RuleHandler) notifyRuleChange(ctx context.Context, ruleID string) {
	if err := h.ruleManager.NotifyChanged(ctx); err != nil {
		h.logger.Error("failed to notify rule change",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		// Non-fatal - cache will eventually sync
	}
}

func isKnownTriggerType(triggerType string) bool {
	for _, known := range domain.AllTriggerTypes {
		if domain.TriggerType(triggerType) == known {
			return true
		}
	}
	return false
}

func validateActions(actions []domain.Action) *error_handler.ErrorCollection {
	for _, action := range actions {
		switch action.Type {
		case domain.ActionTypeSendNotification,
			domain.ActionTypeSendChatMessage,
			domain.ActionTypeUpdateEntityStatus,
			domain.ActionTypeCreateTask,
			domain.ActionTypeEnqueueJob,
			domain.ActionTypeCallWebhook,
			domain.ActionTypeLog,
			domain.ActionTypeDelay:
		default:
			return error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "unknown action type: "+string(action.Type), nil)
		}
	}
	return nil
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
