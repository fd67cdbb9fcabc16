package dto

import "orchid/internal/domain"

// RuleResponse is the wire shape of a rule in every rule endpoint
type RuleResponse struct {
	RuleID              string             `json:"rule_id"`
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	TriggerType         string             `json:"trigger_type"`
	IsActive            bool               `json:"is_active"`
	Priority            int                `json:"priority"`
	Conditions          []domain.Condition `json:"conditions"`
	Actions             []domain.Action    `json:"actions"`
	MaxExecutionsPerDay *int               `json:"max_executions_per_day,omitempty"`
	CooldownMinutes     *int               `json:"cooldown_minutes,omitempty"`
	ExecutionCount      int                `json:"execution_count"`
	LastExecutedAt      int64              `json:"last_executed_at,omitempty"`
	LastError           string             `json:"last_error,omitempty"`
	CreatedAt           int64              `json:"created_at"`
	UpdatedAt           int64              `json:"updated_at"`
}

// NewRuleResponse maps a domain rule onto the wire shape
func NewRuleResponse(rule *domain.Rule) RuleResponse {
	return RuleResponse{
		RuleID:              rule.RuleID,
		Name:                rule.Name,
		Description:         rule.Description,
		TriggerType:         string(rule.TriggerType),
		IsActive:            rule.IsActive,
		Priority:            rule.Priority,
		Conditions:          rule.Conditions,
		Actions:             rule.Actions,
		MaxExecutionsPerDay: rule.MaxExecutionsPerDay,
		CooldownMinutes:     rule.CooldownMinutes,
		ExecutionCount:      rule.ExecutionCount,
		LastExecutedAt:      rule.LastExecutedAt,
		LastError:           rule.LastError,
		CreatedAt:           rule.CreatedAt,
		UpdatedAt:           rule.UpdatedAt,
	}
}

// CreateRuleRequest represents request to create a rule
type CreateRuleRequest struct {
	Name                string             `json:"name" binding:"required"`
	Description         string             `json:"description"`
	TriggerType         string             `json:"trigger_type" binding:"required"`
	Priority            int                `json:"priority"`
	Conditions          []domain.Condition `json:"conditions"`
	Actions             []domain.Action    `json:"actions" binding:"required"`
	MaxExecutionsPerDay *int               `json:"max_executions_per_day"`
	CooldownMinutes     *int               `json:"cooldown_minutes"`
}

// GetRuleRequest represents request to get a rule by path param
type GetRuleRequest struct {
	// No body fields - rule_id comes from path params
}

// UpdateRuleRequest represents request to update a rule. Pointer fields
// are applied only when present.
type UpdateRuleRequest struct {
	Name                *string            `json:"name"`
	Description         *string            `json:"description"`
	IsActive            *bool              `json:"is_active"`
	Priority            *int               `json:"priority"`
	Conditions          []domain.Condition `json:"conditions"`
	Actions             []domain.Action    `json:"actions"`
	MaxExecutionsPerDay *int               `json:"max_executions_per_day"`
	CooldownMinutes     *int               `json:"cooldown_minutes"`
}

// DeleteRuleRequest represents request to delete a rule
type DeleteRuleRequest struct {
	// No body fields - rule_id comes from path params
}

// DeleteRuleResponse confirms the deletion and its cascade
type DeleteRuleResponse struct {
	RuleID            string `json:"rule_id"`
	Deleted           bool   `json:"deleted"`
	ExecutionsDeleted bool   `json:"executions_deleted"`
}

// ListRulesRequest represents request to list rules
type ListRulesRequest struct {
	// No body fields - limit and next_token come from query params
}

// ListRulesResponse represents a page of rules
type ListRulesResponse struct {
	Rules      []RuleResponse     `json:"rules"`
	Pagination PaginationResponse `json:"pagination"`
}
