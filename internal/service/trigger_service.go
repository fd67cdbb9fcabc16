package service

import (
	"context"
	"fmt"
	"time"

	"orchid/internal/domain"
	"orchid/internal/logger"
	repository "orchid/internal/repository/iface"
)

// TriggerService is the single entry point for firing automation rules
// against a trigger event. HTTP handlers, queue consumers and the
// scheduler all funnel through Trigger.
type TriggerService interface {
	Trigger(ctx context.Context, event *domain.TriggerContext) (*domain.TriggerSummary, error)
}

type triggerService struct {
	selector      RuleSelector
	evaluator     ConditionEvaluator
	dispatcher    ActionDispatcher
	ruleRepo      repository.RuleRepository
	executionRepo repository.ExecutionRepository
	log           logger.Logger
}

func NewTriggerService(
	selector RuleSelector,
	evaluator ConditionEvaluator,
	dispatcher ActionDispatcher,
	ruleRepo repository.RuleRepository,
	executionRepo repository.ExecutionRepository,
	log logger.Logger,
) TriggerService {
	return &triggerService{
		selector:      selector,
		evaluator:     evaluator,
		dispatcher:    dispatcher,
		ruleRepo:      ruleRepo,
		executionRepo: executionRepo,
		log:           log.With(logger.String("component", "trigger_service")),
	}
}

// Trigger runs every eligible rule for the event in priority order.
// It errors only when the candidate set cannot be loaded; per-rule
// failures are recorded in that rule's outcome and processing continues.
func (s *triggerService) Trigger(ctx context.Context, event *domain.TriggerContext) (*domain.TriggerSummary, error) {
	candidates, err := s.selector.SelectCandidates(ctx, event.TriggerType)
	if err != nil {
		return nil, err
	}

	summary := &domain.TriggerSummary{
		Triggered: len(candidates),
		Results:   make([]domain.RuleOutcome, 0, len(candidates)),
	}

	for _, rule := range candidates {
		if limited, reason := s.selector.IsRateLimited(ctx, rule, event); limited {
			s.log.Info("rule rate limited",
				logger.String("rule_id", rule.RuleID),
				logger.String("reason", reason))
			continue
		}

		outcome := s.runRule(ctx, rule, event)
		if outcome.Status == domain.ExecutionStatusCompleted {
			summary.Executed++
		}
		summary.Results = append(summary.Results, outcome)
	}

	s.log.Info("trigger processed",
		logger.String("trigger_type", string(event.TriggerType)),
		logger.String("entity_id", event.EntityID),
		logger.Int("triggered", summary.Triggered),
		logger.Int("executed", summary.Executed))

	return summary, nil
}

// runRule records one execution attempt for a single rule
func (s *triggerService) runRule(ctx context.Context, rule *domain.Rule, event *domain.TriggerContext) domain.RuleOutcome {
	outcome := domain.RuleOutcome{
		RuleID:   rule.RuleID,
		RuleName: rule.Name,
	}

	execution := domain.NewExecution(rule, event)
	if err := s.executionRepo.Create(ctx, execution); err != nil {
		outcome.Status = domain.ExecutionStatusFailed
		outcome.Error = fmt.Sprintf("failed to create execution record: %v", err)
		s.log.Error("failed to create execution record",
			logger.String("rule_id", rule.RuleID),
			logger.Error(err))
		return outcome
	}
	outcome.ExecutionID = execution.ExecutionID

	matched := s.evaluator.EvaluateAll(ctx, rule.Conditions, event)
	outcome.Matched = matched

	if !matched {
		execution.MarkSkipped()
		outcome.Status = domain.ExecutionStatusSkipped
		s.persistExecution(ctx, execution, &outcome)
		// A skipped evaluation still counts as an attempt
		s.updateStats(ctx, rule.RuleID, true, "")
		return outcome
	}

	start := time.Now()
	results, ok := s.dispatcher.DispatchAll(ctx, rule.Actions, event)
	durationMs := time.Since(start).Milliseconds()

	if ok {
		execution.MarkCompleted(results, durationMs)
		outcome.Status = domain.ExecutionStatusCompleted
	} else {
		errorMsg := firstActionError(results)
		execution.MarkFailed(results, errorMsg, durationMs)
		outcome.Status = domain.ExecutionStatusFailed
		outcome.Error = errorMsg
	}

	s.persistExecution(ctx, execution, &outcome)
	s.updateStats(ctx, rule.RuleID, ok, outcome.Error)

	return outcome
}

func (s *triggerService) updateStats(ctx context.Context, ruleID string, ok bool, errorMessage string) {
	if err := s.ruleRepo.IncrementStats(ctx, ruleID, ok, errorMessage); err != nil {
		s.log.Warn("failed to update rule stats",
			logger.String("rule_id", ruleID),
			logger.Error(err))
	}
}

// persistExecution updates the execution row and folds persistence
// failures into the outcome without aborting the trigger
func (s *triggerService) persistExecution(ctx context.Context, execution *domain.Execution, outcome *domain.RuleOutcome) {
	if err := s.executionRepo.Update(ctx, execution); err != nil {
		if outcome.Error == "" {
			outcome.Error = fmt.Sprintf("failed to persist execution: %v", err)
		}
		s.log.Error("failed to persist execution",
			logger.String("execution_id", execution.ExecutionID),
			logger.Error(err))
	}
}

func firstActionError(results []domain.ActionResult) string {
	for _, result := range results {
		if result.Status == domain.ActionResultFailed {
			return fmt.Sprintf("action %s failed: %s", result.ActionType, result.Error)
		}
	}
	return "action dispatch failed"
}
