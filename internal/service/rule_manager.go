package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	cache "orchid/internal/cache/iface"
	coordinator "orchid/internal/coordinator/iface"
	"orchid/internal/domain"
	"orchid/internal/logger"
	repository "orchid/internal/repository/iface"
)

const ruleRefreshNode = "/rules/refresh"

// RuleManager serves active rules per trigger type, cache-first, with a
// ZK watch that invalidates every instance when any instance mutates a
// rule.
type RuleManager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error)
	RefreshCache(ctx context.Context) error
	// NotifyChanged bumps the shared refresh node after a rule mutation
	NotifyChanged(ctx context.Context) error
}

type ruleManager struct {
	ruleRepo    repository.RuleRepository
	cache       cache.Cache
	coordinator coordinator.Coordinator
	logger      logger.Logger
	mu          sync.RWMutex
	stopCh      chan struct{}
}

func NewRuleManager(
	ruleRepo repository.RuleRepository,
	cache cache.Cache,
	coordinator coordinator.Coordinator,
	log logger.Logger,
) RuleManager {
	return &ruleManager{
		ruleRepo:    ruleRepo,
		cache:       cache,
		coordinator: coordinator,
		logger:      log.With(logger.String("component", "rule_manager")),
		stopCh:      make(chan struct{}),
	}
}

// Start warms the cache and registers the refresh watch
func (m *ruleManager) Start(ctx context.Context) error {
	if err := m.RefreshCache(ctx); err != nil {
		return fmt.Errorf("failed initial cache load: %w", err)
	}

	err := m.coordinator.WatchNode(ruleRefreshNode, m.handleRefreshTrigger)
	if err != nil {
		m.logger.Warn("failed to setup ZK refresh watch",
			logger.Error(err))
		// Non-fatal - continue without watch
	}

	return nil
}

func (m *ruleManager) Stop(ctx context.Context) error {
	close(m.stopCh)
	return nil
}

// ActiveRules returns active rules for a trigger type (cache-first)
func (m *ruleManager) ActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cacheKey := m.getCacheKey(triggerType)

	cached, err := m.cache.Get(ctx, cacheKey)
	if err == nil {
		var rules []*domain.Rule
		if err := json.Unmarshal([]byte(cached), &rules); err == nil {
			return rules, nil
		}
	}

	rules, err := m.ruleRepo.FindActiveRules(ctx, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}

	m.cacheRules(ctx, triggerType, rules)

	return rules, nil
}

// RefreshCache reloads every trigger type's rules from the repository
func (m *ruleManager) RefreshCache(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	grouped := make(map[domain.TriggerType][]*domain.Rule)
	nextToken := ""
	for {
		result, err := m.ruleRepo.List(ctx, 50, nextToken)
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}
		for _, rule := range result.Rules {
			if !rule.IsActive {
				continue
			}
			grouped[rule.TriggerType] = append(grouped[rule.TriggerType], rule)
		}
		if result.NextToken == "" {
			break
		}
		nextToken = result.NextToken
	}

	// Overwrite populated trigger types and drop the rest, so a trigger
	// type whose last active rule was disabled does not keep serving the
	// stale cached list
	for _, triggerType := range domain.AllTriggerTypes {
		rules, ok := grouped[triggerType]
		if !ok {
			if err := m.cache.Delete(ctx, m.getCacheKey(triggerType)); err != nil {
				m.logger.Warn("failed to drop stale rule cache entry",
					logger.String("trigger_type", string(triggerType)),
					logger.Error(err))
			}
			continue
		}
		m.cacheRules(ctx, triggerType, rules)
	}

	return nil
}

// NotifyChanged updates the refresh node so all instances reload
func (m *ruleManager) NotifyChanged(ctx context.Context) error {
	stamp := []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))
	if err := m.coordinator.UpdateNode(ruleRefreshNode, stamp); err != nil {
		if createErr := m.coordinator.CreateNode(ruleRefreshNode, stamp); createErr != nil {
			return fmt.Errorf("failed to notify rule change: %w", err)
		}
	}
	return nil
}

// handleRefreshTrigger handles ZK refresh notifications
func (m *ruleManager) handleRefreshTrigger(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.RefreshCache(ctx); err != nil {
		m.logger.Error("failed to refresh cache on ZK trigger",
			logger.Error(err))
	}
}

// cacheRules stores rules in cache
func (m *ruleManager) cacheRules(ctx context.Context, triggerType domain.TriggerType, rules []*domain.Rule) {
	cacheKey := m.getCacheKey(triggerType)

	data, err := json.Marshal(rules)
	if err != nil {
		m.logger.Error("failed to marshal rules",
			logger.String("trigger_type", string(triggerType)),
			logger.Error(err))
		return
	}

	// Cache without TTL (invalidated via ZK watch)
	if err := m.cache.Set(ctx, cacheKey, string(data), 0); err != nil {
		m.logger.Error("failed to cache rules",
			logger.String("trigger_type", string(triggerType)),
			logger.Error(err))
		return
	}
}

func (m *ruleManager) getCacheKey(triggerType domain.TriggerType) string {
	return fmt.Sprintf("rule:%s", triggerType)
}
