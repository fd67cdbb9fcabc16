package dto

import "orchid/internal/domain"

// ExecutionResponse is the wire shape of one ledger entry
type ExecutionResponse struct {
	ExecutionID   string                 `json:"execution_id"`
	RuleID        string                 `json:"rule_id"`
	TriggerType   string                 `json:"trigger_type"`
	EntityType    string                 `json:"entity_type,omitempty"`
	EntityID      string                 `json:"entity_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Status        string                 `json:"status"`
	ActionResults []domain.ActionResult  `json:"action_results,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty"`
	CreatedAt     int64                  `json:"created_at"`
	CompletedAt   int64                  `json:"completed_at,omitempty"`
}

// NewExecutionResponse maps a domain execution onto the wire shape
func NewExecutionResponse(execution *domain.Execution) ExecutionResponse {
	return ExecutionResponse{
		ExecutionID:   execution.ExecutionID,
		RuleID:        execution.RuleID,
		TriggerType:   string(execution.TriggerType),
		EntityType:    execution.EntityType,
		EntityID:      execution.EntityID,
		Payload:       execution.Payload,
		Status:        string(execution.Status),
		ActionResults: execution.ActionResults,
		ErrorMessage:  execution.ErrorMessage,
		DurationMs:    execution.DurationMs,
		CreatedAt:     execution.CreatedAt,
		CompletedAt:   execution.CompletedAt,
	}
}

// ListExecutionsRequest represents request to list executions
type ListExecutionsRequest struct {
	// No body fields - rule_id, limit and next_token come from query params
}

// ListExecutionsResponse represents a page of executions for a rule
type ListExecutionsResponse struct {
	Executions []ExecutionResponse `json:"executions"`
	Pagination PaginationResponse  `json:"pagination"`
}
