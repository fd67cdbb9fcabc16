package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerType represents the business event category a rule responds to
type TriggerType string

const (
	TriggerTypeOrderCreated TriggerType = "order_created"
	TriggerTypeOrderShipped TriggerType = "order_shipped"
	TriggerTypeKeywordMatch TriggerType = "keyword_match"
	TriggerTypeFirstMessage TriggerType = "first_message"
	TriggerTypeScheduled    TriggerType = "scheduled"
	TriggerTypeManual       TriggerType = "manual"
)

// AllTriggerTypes lists every supported trigger type
var AllTriggerTypes = []TriggerType{
	TriggerTypeOrderCreated,
	TriggerTypeOrderShipped,
	TriggerTypeKeywordMatch,
	TriggerTypeFirstMessage,
	TriggerTypeScheduled,
	TriggerTypeManual,
}

// ConditionOperator represents a condition comparison operator
type ConditionOperator string

const (
	OperatorEquals         ConditionOperator = "equals"
	OperatorNotEquals      ConditionOperator = "not_equals"
	OperatorContains       ConditionOperator = "contains"
	OperatorNotContains    ConditionOperator = "not_contains"
	OperatorGreaterThan    ConditionOperator = "greater_than"
	OperatorLessThan       ConditionOperator = "less_than"
	OperatorGreaterOrEqual ConditionOperator = "greater_or_equal"
	OperatorLessOrEqual    ConditionOperator = "less_or_equal"
	OperatorIn             ConditionOperator = "in"
	OperatorNotIn          ConditionOperator = "not_in"
	OperatorIsNull         ConditionOperator = "is_null"
	OperatorIsNotNull      ConditionOperator = "is_not_null"

	// OperatorExpression evaluates Value as an expr-lang program against
	// the event data and expects a boolean result.
	OperatorExpression ConditionOperator = "expression"
)

// LogicOperator chains a condition with the one that follows it
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Condition represents a single predicate over event data.
// Logic decides how the NEXT condition in the list attaches to the
// running result; it is ignored on the last condition.
type Condition struct {
	Field    string            `json:"field" dynamodbav:"field"`
	Operator ConditionOperator `json:"operator" dynamodbav:"operator"`
	Value    interface{}       `json:"value,omitempty" dynamodbav:"value,omitempty"`
	Logic    LogicOperator     `json:"logic,omitempty" dynamodbav:"logic,omitempty"`
}

// PriorityOrder controls the direction rules are ordered by priority
type PriorityOrder string

const (
	PriorityAscending  PriorityOrder = "ASC"
	PriorityDescending PriorityOrder = "DESC"
)

// Rule represents a stored automation definition
type Rule struct {
	RuleID      string      `json:"rule_id" dynamodbav:"rule_id"`
	Name        string      `json:"name" dynamodbav:"name"`
	Description string      `json:"description,omitempty" dynamodbav:"description,omitempty"`
	TriggerType TriggerType `json:"trigger_type" dynamodbav:"trigger_type"`
	IsActive    bool        `json:"is_active" dynamodbav:"is_active"`
	Priority    int         `json:"priority" dynamodbav:"priority"`
	Conditions  []Condition `json:"conditions" dynamodbav:"conditions"`
	Actions     []Action    `json:"actions" dynamodbav:"actions"`

	// Rate limits, both optional
	MaxExecutionsPerDay *int `json:"max_executions_per_day,omitempty" dynamodbav:"max_executions_per_day,omitempty"`
	CooldownMinutes     *int `json:"cooldown_minutes,omitempty" dynamodbav:"cooldown_minutes,omitempty"`

	// Rolling stats, mutated only by the execution ledger
	ExecutionCount int    `json:"execution_count" dynamodbav:"execution_count"`
	LastExecutedAt int64  `json:"last_executed_at,omitempty" dynamodbav:"last_executed_at,omitempty"`
	LastError      string `json:"last_error,omitempty" dynamodbav:"last_error,omitempty"`

	CreatedAt int64 `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt int64 `json:"updated_at" dynamodbav:"updated_at"`
}

// NewRule creates a new active rule
func NewRule(name string, triggerType TriggerType, priority int, conditions []Condition, actions []Action) *Rule {
	now := time.Now().UnixMilli()

	if conditions == nil {
		conditions = []Condition{}
	}
	if actions == nil {
		actions = []Action{}
	}

	return &Rule{
		RuleID:      uuid.New().String(),
		Name:        name,
		TriggerType: triggerType,
		IsActive:    true,
		Priority:    priority,
		Conditions:  conditions,
		Actions:     actions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CooldownWindow returns the cooldown duration, or zero when unset
func (r *Rule) CooldownWindow() time.Duration {
	if r.CooldownMinutes == nil {
		return 0
	}
	return time.Duration(*r.CooldownMinutes) * time.Minute
}
