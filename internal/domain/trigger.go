package domain

// TriggerContext represents one business event offered to the engine for
// rule matching. It is constructed fresh per call and never persisted as
// its own entity.
type TriggerContext struct {
	TriggerType TriggerType            `json:"trigger_type"`
	EntityType  string                 `json:"entity_type,omitempty"`
	EntityID    string                 `json:"entity_id,omitempty"`
	Data        map[string]interface{} `json:"data"`
}

// NewTriggerContext creates a trigger context for an event
func NewTriggerContext(triggerType TriggerType, entityType, entityID string, data map[string]interface{}) *TriggerContext {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &TriggerContext{
		TriggerType: triggerType,
		EntityType:  entityType,
		EntityID:    entityID,
		Data:        data,
	}
}

// RuleOutcome summarizes one evaluated rule inside a trigger summary
type RuleOutcome struct {
	RuleID      string          `json:"rule_id"`
	RuleName    string          `json:"rule_name"`
	ExecutionID string          `json:"execution_id,omitempty"`
	Matched     bool            `json:"matched"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
}

// TriggerSummary is the structured result of one Trigger call
type TriggerSummary struct {
	Triggered int           `json:"triggered"` // candidate rules considered
	Executed  int           `json:"executed"`  // rules that matched and ran actions
	Results   []RuleOutcome `json:"results"`
}
