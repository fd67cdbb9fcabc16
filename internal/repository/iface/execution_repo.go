package repository

import (
	"context"
	"time"

	"orchid/internal/domain"
)

// ExecutionPaginationResult contains a page of executions
type ExecutionPaginationResult struct {
	Executions []*domain.Execution
	NextToken  string // Base64 encoded LastEvaluatedKey
}

// ExecutionRepository defines operations for the execution ledger
type ExecutionRepository interface {
	Create(ctx context.Context, execution *domain.Execution) error
	Update(ctx context.Context, execution *domain.Execution) error
	GetByID(ctx context.Context, executionID string) (*domain.Execution, error)
	ListByRuleID(ctx context.Context, ruleID string, limit int, nextToken string) (*ExecutionPaginationResult, error)

	// CountCompletedSince counts COMPLETED executions of a rule created at
	// or after the given instant. Used by the daily cap gate.
	CountCompletedSince(ctx context.Context, ruleID string, since time.Time) (int, error)

	// FindRecentForEntity returns the most recent execution of a rule
	// against an entity created at or after the given instant, or nil when
	// none exists. Used by the cooldown gate.
	FindRecentForEntity(ctx context.Context, ruleID, entityID string, since time.Time) (*domain.Execution, error)

	// DeleteByRuleID removes a rule's whole execution history (cascade on
	// rule deletion).
	DeleteByRuleID(ctx context.Context, ruleID string) error
}
