package handler

import (
	"context"

	"orchid/commons/error_handler"
	"orchid/commons/handler"
	"orchid/internal/dto"
	"orchid/internal/logger"
	repositoryIface "orchid/internal/repository/iface"
)

type ExecutionHandler struct {
	logger        logger.Logger
	executionRepo repositoryIface.ExecutionRepository
}

func NewExecutionHandler(log logger.Logger, executionRepo repositoryIface.ExecutionRepository) *ExecutionHandler {
	return &ExecutionHandler{
		logger:        log.With(logger.String("component", "execution_handler")),
		executionRepo: executionRepo,
	}
}

// ListExecutionsService returns a rule's ledger, newest first
func (h *ExecutionHandler) ListExecutionsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListExecutionsRequest],
) (dto.ListExecutionsResponse, *error_handler.ErrorCollection) {
	ruleID := ioutil.QueryParams["rule_id"]
	if ruleID == "" {
		return dto.ListExecutionsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "rule_id query parameter is required", nil)
	}

	limit := parseLimit(ioutil.QueryParams["limit"], 20)
	nextToken := ioutil.QueryParams["next_token"]

	result, err := h.executionRepo.ListByRuleID(ctx, ruleID, limit, nextToken)
	if err != nil {
		h.logger.Error("failed to list executions",
			logger.String("rule_id", ruleID),
			logger.Error(err),
		)
		return dto.ListExecutionsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to list executions", nil)
	}

	executions := make([]dto.ExecutionResponse, 0, len(result.Executions))
	for _, execution := range result.Executions {
		executions = append(executions, dto.NewExecutionResponse(execution))
	}

	return dto.ListExecutionsResponse{
		Executions: executions,
		Pagination: dto.PaginationResponse{
			Count:     len(executions),
			NextToken: result.NextToken,
		},
	}, nil
}
