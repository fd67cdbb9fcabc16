package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orchid/internal/domain"
	repository "orchid/internal/repository/iface"
)

// In-memory collaborators shared by the service tests.

type fakeRuleRepo struct {
	mu    sync.Mutex
	rules map[string]*domain.Rule
	stats []statsCall
}

type statsCall struct {
	ruleID       string
	ok           bool
	errorMessage string
}

func newFakeRuleRepo(rules ...*domain.Rule) *fakeRuleRepo {
	repo := &fakeRuleRepo{rules: make(map[string]*domain.Rule)}
	for _, rule := range rules {
		repo.rules[rule.RuleID] = rule
	}
	return repo
}

func (r *fakeRuleRepo) Create(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.RuleID] = rule
	return nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.RuleID] = rule
	return nil
}

func (r *fakeRuleRepo) Delete(ctx context.Context, ruleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rules, ruleID)
	return nil
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, ruleID string) (*domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[ruleID]
	if !ok {
		return nil, errors.New("rule not found")
	}
	return rule, nil
}

func (r *fakeRuleRepo) FindActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rules []*domain.Rule
	for _, rule := range r.rules {
		if rule.IsActive && rule.TriggerType == triggerType {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (r *fakeRuleRepo) List(ctx context.Context, limit int, nextToken string) (*repository.RulePaginationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &repository.RulePaginationResult{}
	for _, rule := range r.rules {
		result.Rules = append(result.Rules, rule)
	}
	return result, nil
}

func (r *fakeRuleRepo) IncrementStats(ctx context.Context, ruleID string, ok bool, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, statsCall{ruleID: ruleID, ok: ok, errorMessage: errorMessage})
	return nil
}

type fakeExecutionRepo struct {
	mu         sync.Mutex
	executions map[string]*domain.Execution
	countErr   error
	recentErr  error
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{executions: make(map[string]*domain.Execution)}
}

func (r *fakeExecutionRepo) Create(ctx context.Context, execution *domain.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *execution
	r.executions[execution.ExecutionID] = &copied
	return nil
}

func (r *fakeExecutionRepo) Update(ctx context.Context, execution *domain.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *execution
	r.executions[execution.ExecutionID] = &copied
	return nil
}

func (r *fakeExecutionRepo) GetByID(ctx context.Context, executionID string) (*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	execution, ok := r.executions[executionID]
	if !ok {
		return nil, errors.New("execution not found")
	}
	return execution, nil
}

func (r *fakeExecutionRepo) ListByRuleID(ctx context.Context, ruleID string, limit int, nextToken string) (*repository.ExecutionPaginationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &repository.ExecutionPaginationResult{}
	for _, execution := range r.executions {
		if execution.RuleID == ruleID {
			result.Executions = append(result.Executions, execution)
		}
	}
	return result, nil
}

func (r *fakeExecutionRepo) CountCompletedSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, execution := range r.executions {
		if execution.RuleID == ruleID &&
			execution.Status == domain.ExecutionStatusCompleted &&
			execution.CreatedAt >= since.UnixMilli() {
			count++
		}
	}
	return count, nil
}

func (r *fakeExecutionRepo) FindRecentForEntity(ctx context.Context, ruleID, entityID string, since time.Time) (*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	for _, execution := range r.executions {
		if execution.RuleID == ruleID &&
			execution.EntityID == entityID &&
			execution.CreatedAt >= since.UnixMilli() {
			return execution, nil
		}
	}
	return nil, nil
}

func (r *fakeExecutionRepo) DeleteByRuleID(ctx context.Context, ruleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, execution := range r.executions {
		if execution.RuleID == ruleID {
			delete(r.executions, id)
		}
	}
	return nil
}

func (r *fakeExecutionRepo) byStatus(status domain.ExecutionStatus) []*domain.Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Execution
	for _, execution := range r.executions {
		if execution.Status == status {
			matched = append(matched, execution)
		}
	}
	return matched
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	err           error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notifications = append(r.notifications, notification)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks []*domain.Task
	err   error
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tasks = append(r.tasks, task)
	return nil
}

type statusUpdate struct {
	entityType string
	entityID   string
	status     string
}

type fakeEntityRepo struct {
	mu      sync.Mutex
	updates []statusUpdate
	err     error
}

func (r *fakeEntityRepo) UpdateStatus(ctx context.Context, entityType, entityID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.updates = append(r.updates, statusUpdate{entityType: entityType, entityID: entityID, status: status})
	return nil
}

type chatMessage struct {
	channel string
	message string
}

type fakeChatClient struct {
	mu       sync.Mutex
	messages []chatMessage
	err      error
}

func (c *fakeChatClient) SendMessage(ctx context.Context, channel, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, chatMessage{channel: channel, message: message})
	return nil
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []interface{}
	err      error
}

func (q *fakeQueue) Send(ctx context.Context, message interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, message)
	return nil
}

func (q *fakeQueue) StartConsumer(ctx context.Context) error { return nil }
func (q *fakeQueue) StopConsumer(ctx context.Context) error  { return nil }

type webhookCall struct {
	url     string
	payload map[string]interface{}
}

type fakeWebhookCaller struct {
	mu     sync.Mutex
	calls  []webhookCall
	status int
	err    error
}

func (c *fakeWebhookCaller) Post(ctx context.Context, url string, payload map[string]interface{}) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.calls = append(c.calls, webhookCall{url: url, payload: payload})
	if c.status == 0 {
		return 200, nil
	}
	return c.status, nil
}

// fakeRuleManager serves a fixed rule set without cache or coordination
type fakeRuleManager struct {
	rules map[domain.TriggerType][]*domain.Rule
	err   error
}

func (m *fakeRuleManager) Start(ctx context.Context) error { return nil }
func (m *fakeRuleManager) Stop(ctx context.Context) error  { return nil }

func (m *fakeRuleManager) ActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules[triggerType], nil
}

func (m *fakeRuleManager) RefreshCache(ctx context.Context) error  { return nil }
func (m *fakeRuleManager) NotifyChanged(ctx context.Context) error { return nil }

func intPtr(v int) *int { return &v }

func ruleWithActions(name string, triggerType domain.TriggerType, priority int, actions ...domain.Action) *domain.Rule {
	return domain.NewRule(name, triggerType, priority, nil, actions)
}

func completedExecution(rule *domain.Rule, entityID string, at time.Time) *domain.Execution {
	execution := domain.NewExecution(rule, domain.NewTriggerContext(rule.TriggerType, "order", entityID, nil))
	execution.ExecutionID = fmt.Sprintf("%s-%d", execution.ExecutionID, at.UnixNano())
	execution.CreatedAt = at.UnixMilli()
	execution.MarkCompleted(nil, 1)
	return execution
}
