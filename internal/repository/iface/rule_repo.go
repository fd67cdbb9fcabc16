package repository

import (
	"context"

	"orchid/internal/domain"
)

// RulePaginationResult contains a page of rules
type RulePaginationResult struct {
	Rules     []*domain.Rule
	NextToken string // Base64 encoded LastEvaluatedKey
}

// RuleRepository defines operations for automation rules
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.Rule) error
	Update(ctx context.Context, rule *domain.Rule) error
	Delete(ctx context.Context, ruleID string) error
	GetByID(ctx context.Context, ruleID string) (*domain.Rule, error)

	// FindActiveRules returns all active rules for a trigger type.
	// Ordering is the selector's concern, not the store's.
	FindActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error)

	List(ctx context.Context, limit int, nextToken string) (*RulePaginationResult, error)

	// IncrementStats updates a rule's rolling stats after an attempt:
	// bumps execution_count and last_executed_at, clears last_error when
	// ok or sets it to errorMessage otherwise.
	IncrementStats(ctx context.Context, ruleID string, ok bool, errorMessage string) error
}
