package domain

// ActionType represents the type of a rule action
type ActionType string

const (
	ActionTypeSendNotification   ActionType = "send_notification"
	ActionTypeSendChatMessage    ActionType = "send_chat_message"
	ActionTypeUpdateEntityStatus ActionType = "update_entity_status"
	ActionTypeCreateTask         ActionType = "create_task"
	ActionTypeEnqueueJob         ActionType = "enqueue_job"
	ActionTypeCallWebhook        ActionType = "call_webhook"
	ActionTypeLog                ActionType = "log"
	ActionTypeDelay              ActionType = "delay"
)

// Action represents one side-effecting step a matched rule performs.
// Config is interpreted per action type; string values may carry
// {{field.path}} placeholders resolved against event data at execution time.
type Action struct {
	Type   ActionType             `json:"type" dynamodbav:"type"`
	Config map[string]interface{} `json:"config" dynamodbav:"config"`
}

// ActionResultStatus represents the outcome of a single action
type ActionResultStatus string

const (
	ActionResultSuccess ActionResultStatus = "success"
	ActionResultFailed  ActionResultStatus = "failed"
	ActionResultSkipped ActionResultStatus = "skipped"
)

// ActionResult represents the per-action outcome of a dispatch
type ActionResult struct {
	ActionType ActionType             `json:"action_type" dynamodbav:"action_type"`
	Status     ActionResultStatus     `json:"status" dynamodbav:"status"`
	Result     map[string]interface{} `json:"result,omitempty" dynamodbav:"result,omitempty"`
	Error      string                 `json:"error,omitempty" dynamodbav:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms" dynamodbav:"duration_ms"`
}
