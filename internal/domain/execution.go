package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the overall status of a rule execution
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusSkipped   ExecutionStatus = "SKIPPED"
)

// Execution represents the audit record of one rule's attempted run
// against one event. Created RUNNING and written exactly once more with
// a terminal status.
type Execution struct {
	ExecutionID   string                 `json:"execution_id" dynamodbav:"execution_id"`
	RuleID        string                 `json:"rule_id" dynamodbav:"rule_id"`
	TriggerType   TriggerType            `json:"trigger_type" dynamodbav:"trigger_type"`
	EntityType    string                 `json:"entity_type,omitempty" dynamodbav:"entity_type,omitempty"`
	EntityID      string                 `json:"entity_id,omitempty" dynamodbav:"entity_id,omitempty"`
	Payload       map[string]interface{} `json:"payload" dynamodbav:"payload"`
	Status        ExecutionStatus        `json:"status" dynamodbav:"status"`
	ActionResults []ActionResult         `json:"action_results,omitempty" dynamodbav:"action_results,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty" dynamodbav:"duration_ms,omitempty"`
	CreatedAt     int64                  `json:"created_at" dynamodbav:"created_at"`
	CompletedAt   int64                  `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`

	// Composite key for GSI-1: rule_id#entity_id, used by cooldown lookups
	RuleEntityKey string `json:"-" dynamodbav:"rule_entity_key"`
}

// NewExecution creates a RUNNING execution for a rule and event
func NewExecution(rule *Rule, event *TriggerContext) *Execution {
	return &Execution{
		ExecutionID:   uuid.New().String(),
		RuleID:        rule.RuleID,
		TriggerType:   event.TriggerType,
		EntityType:    event.EntityType,
		EntityID:      event.EntityID,
		Payload:       event.Data,
		Status:        ExecutionStatusRunning,
		CreatedAt:     time.Now().UnixMilli(),
		RuleEntityKey: rule.RuleID + "#" + event.EntityID,
	}
}

// MarkCompleted marks the execution as completed with its action results
func (e *Execution) MarkCompleted(results []ActionResult, durationMs int64) {
	e.Status = ExecutionStatusCompleted
	e.ActionResults = results
	e.DurationMs = durationMs
	e.CompletedAt = time.Now().UnixMilli()
}

// MarkFailed marks the execution as failed with the partial action results
func (e *Execution) MarkFailed(results []ActionResult, errorMsg string, durationMs int64) {
	e.Status = ExecutionStatusFailed
	e.ActionResults = results
	e.ErrorMessage = errorMsg
	e.DurationMs = durationMs
	e.CompletedAt = time.Now().UnixMilli()
}

// MarkSkipped marks the execution as considered but not matched
func (e *Execution) MarkSkipped() {
	e.Status = ExecutionStatusSkipped
	e.CompletedAt = time.Now().UnixMilli()
}

// IsTerminal reports whether the execution has reached a final status
func (e *Execution) IsTerminal() bool {
	return e.Status != ExecutionStatusRunning
}
