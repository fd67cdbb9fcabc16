package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"orchid/internal/domain"
	"orchid/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value.(string)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return nil, nil
}

func (c *fakeCache) Close() error { return nil }

type fakeCoordinator struct {
	mu       sync.Mutex
	nodes    map[string][]byte
	handlers map[string]func([]byte)
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{
		nodes:    make(map[string][]byte),
		handlers: make(map[string]func([]byte)),
	}
}

func (c *fakeCoordinator) CreateNode(path string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[path] = data
	return nil
}

func (c *fakeCoordinator) GetNode(path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.nodes[path]
	if !ok {
		return nil, errors.New("node not found")
	}
	return data, nil
}

func (c *fakeCoordinator) UpdateNode(path string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[path]; !ok {
		return errors.New("node not found")
	}
	c.nodes[path] = data
	return nil
}

func (c *fakeCoordinator) WatchNode(path string, handler func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[path] = handler
	return nil
}

func (c *fakeCoordinator) Close() error { return nil }

func (c *fakeCoordinator) fireWatch(path string) {
	c.mu.Lock()
	handler := c.handlers[path]
	data := c.nodes[path]
	c.mu.Unlock()
	if handler != nil {
		handler(data)
	}
}

func newManagerFixture(t *testing.T, rules ...*domain.Rule) (RuleManager, *fakeRuleRepo, *fakeCache, *fakeCoordinator) {
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	repo := newFakeRuleRepo(rules...)
	cache := newFakeCache()
	coord := newFakeCoordinator()
	return NewRuleManager(repo, cache, coord, log), repo, cache, coord
}

func TestActiveRulesCacheMiss(t *testing.T) {
	rule := ruleWithActions("notify", domain.TriggerTypeOrderShipped, 1)
	manager, _, cache, _ := newManagerFixture(t, rule)

	rules, err := manager.ActiveRules(context.Background(), domain.TriggerTypeOrderShipped)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.RuleID, rules[0].RuleID)

	// Miss populated the cache
	cached, err := cache.Get(context.Background(), "rule:order_shipped")
	require.NoError(t, err)
	assert.Contains(t, cached, rule.RuleID)
}

func TestActiveRulesCacheHit(t *testing.T) {
	cachedRule := ruleWithActions("cached", domain.TriggerTypeOrderCreated, 1)
	manager, _, cache, _ := newManagerFixture(t)

	data, err := json.Marshal([]*domain.Rule{cachedRule})
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), "rule:order_created", string(data), 0))

	// Repository is empty, so the result can only come from the cache
	rules, err := manager.ActiveRules(context.Background(), domain.TriggerTypeOrderCreated)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, cachedRule.RuleID, rules[0].RuleID)
}

func TestRefreshCacheGroupsByTriggerType(t *testing.T) {
	shipped := ruleWithActions("shipped", domain.TriggerTypeOrderShipped, 1)
	created := ruleWithActions("created", domain.TriggerTypeOrderCreated, 1)
	inactive := ruleWithActions("disabled", domain.TriggerTypeOrderShipped, 2)
	inactive.IsActive = false

	manager, _, cache, _ := newManagerFixture(t, shipped, created, inactive)

	require.NoError(t, manager.RefreshCache(context.Background()))

	shippedCached, err := cache.Get(context.Background(), "rule:order_shipped")
	require.NoError(t, err)
	assert.Contains(t, shippedCached, shipped.RuleID)
	assert.NotContains(t, shippedCached, inactive.RuleID)

	createdCached, err := cache.Get(context.Background(), "rule:order_created")
	require.NoError(t, err)
	assert.Contains(t, createdCached, created.RuleID)
}

func TestRefreshCacheDropsEmptiedTriggerTypes(t *testing.T) {
	rule := ruleWithActions("only one", domain.TriggerTypeOrderCreated, 1)
	manager, repo, cache, _ := newManagerFixture(t, rule)

	require.NoError(t, manager.RefreshCache(context.Background()))
	_, err := cache.Get(context.Background(), "rule:order_created")
	require.NoError(t, err)

	// Disabling the last rule of a trigger type must evict its cache
	// entry, not leave the stale list behind
	rule.IsActive = false
	require.NoError(t, repo.Update(context.Background(), rule))
	require.NoError(t, manager.RefreshCache(context.Background()))

	_, err = cache.Get(context.Background(), "rule:order_created")
	assert.Error(t, err)

	rules, err := manager.ActiveRules(context.Background(), domain.TriggerTypeOrderCreated)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestNotifyChangedCreatesThenUpdatesStamp(t *testing.T) {
	manager, _, _, coord := newManagerFixture(t)

	// First notification falls back to creating the stamp node
	require.NoError(t, manager.NotifyChanged(context.Background()))
	first, err := coord.GetNode("/rules/refresh")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	time.Sleep(2 * time.Millisecond)

	require.NoError(t, manager.NotifyChanged(context.Background()))
	second, err := coord.GetNode("/rules/refresh")
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second))
}

func TestRefreshWatchReloadsCache(t *testing.T) {
	rule := ruleWithActions("initial", domain.TriggerTypeKeywordMatch, 1)
	manager, repo, cache, coord := newManagerFixture(t, rule)

	require.NoError(t, manager.Start(context.Background()))
	defer manager.Stop(context.Background())

	// Another instance adds a rule and bumps the stamp
	added := ruleWithActions("added", domain.TriggerTypeKeywordMatch, 2)
	require.NoError(t, repo.Create(context.Background(), added))
	require.NoError(t, manager.NotifyChanged(context.Background()))
	coord.fireWatch("/rules/refresh")

	cached, err := cache.Get(context.Background(), "rule:keyword_match")
	require.NoError(t, err)
	assert.Contains(t, cached, rule.RuleID)
	assert.Contains(t, cached, added.RuleID)
}
