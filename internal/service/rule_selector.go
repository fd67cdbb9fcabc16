package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"orchid/internal/domain"
	"orchid/internal/logger"
	repository "orchid/internal/repository/iface"
)

// OrderingPolicy maps a trigger type to the priority direction used when
// selecting its rules. Trigger types absent from the map use Default.
type OrderingPolicy struct {
	Default   domain.PriorityOrder
	PerFlavor map[domain.TriggerType]domain.PriorityOrder
}

func DefaultOrderingPolicy() OrderingPolicy {
	return OrderingPolicy{Default: domain.PriorityAscending}
}

func (p OrderingPolicy) orderFor(triggerType domain.TriggerType) domain.PriorityOrder {
	if order, ok := p.PerFlavor[triggerType]; ok {
		return order
	}
	if p.Default == "" {
		return domain.PriorityAscending
	}
	return p.Default
}

// RuleSelector produces the ordered, rate-limit-filtered set of rules
// eligible for a trigger event.
type RuleSelector interface {
	// SelectCandidates returns active rules for the event's trigger type
	// in priority order, before rate limiting.
	SelectCandidates(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error)

	// IsRateLimited reports whether a rule must be skipped for this event
	// because of its daily cap or its per-entity cooldown.
	IsRateLimited(ctx context.Context, rule *domain.Rule, event *domain.TriggerContext) (bool, string)
}

type ruleSelector struct {
	ruleManager   RuleManager
	executionRepo repository.ExecutionRepository
	ordering      OrderingPolicy
	log           logger.Logger
}

func NewRuleSelector(
	ruleManager RuleManager,
	executionRepo repository.ExecutionRepository,
	ordering OrderingPolicy,
	log logger.Logger,
) RuleSelector {
	return &ruleSelector{
		ruleManager:   ruleManager,
		executionRepo: executionRepo,
		ordering:      ordering,
		log:           log.With(logger.String("component", "rule_selector")),
	}
}

func (s *ruleSelector) SelectCandidates(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error) {
	rules, err := s.ruleManager.ActiveRules(ctx, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for trigger type %s: %w", triggerType, err)
	}

	descending := s.ordering.orderFor(triggerType) == domain.PriorityDescending
	sort.SliceStable(rules, func(i, j int) bool {
		if descending {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].Priority < rules[j].Priority
	})

	return rules, nil
}

func (s *ruleSelector) IsRateLimited(ctx context.Context, rule *domain.Rule, event *domain.TriggerContext) (bool, string) {
	if rule.MaxExecutionsPerDay != nil && *rule.MaxExecutionsPerDay > 0 {
		since := startOfDay(time.Now())
		count, err := s.executionRepo.CountCompletedSince(ctx, rule.RuleID, since)
		if err != nil {
			// A broken counter must not let a capped rule run unbounded
			s.log.Error("daily cap lookup failed, skipping rule",
				logger.String("rule_id", rule.RuleID),
				logger.Error(err))
			return true, "daily cap check failed"
		}
		if count >= *rule.MaxExecutionsPerDay {
			return true, fmt.Sprintf("daily cap of %d reached", *rule.MaxExecutionsPerDay)
		}
	}

	if rule.CooldownMinutes != nil && *rule.CooldownMinutes > 0 && event.EntityID != "" {
		since := time.Now().Add(-rule.CooldownWindow())
		recent, err := s.executionRepo.FindRecentForEntity(ctx, rule.RuleID, event.EntityID, since)
		if err != nil {
			s.log.Error("cooldown lookup failed, skipping rule",
				logger.String("rule_id", rule.RuleID),
				logger.String("entity_id", event.EntityID),
				logger.Error(err))
			return true, "cooldown check failed"
		}
		if recent != nil {
			return true, fmt.Sprintf("cooldown of %dm active for entity %s", *rule.CooldownMinutes, event.EntityID)
		}
	}

	return false, ""
}

// startOfDay truncates to local midnight. Daily caps reset on the
// server's calendar day, not on a rolling 24h window.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
