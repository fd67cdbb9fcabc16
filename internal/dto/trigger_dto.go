package dto

import "orchid/internal/domain"

// TriggerRequest represents a manually submitted trigger event
type TriggerRequest struct {
	TriggerType string                 `json:"trigger_type" binding:"required"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Data        map[string]interface{} `json:"data"`
}

// TriggerResponse summarizes what the engine did with the event
type TriggerResponse struct {
	Triggered int                  `json:"triggered"`
	Executed  int                  `json:"executed"`
	Results   []domain.RuleOutcome `json:"results"`
}
