package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"orchid/internal/domain"
	"orchid/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type triggerFixture struct {
	trigger       TriggerService
	ruleRepo      *fakeRuleRepo
	executionRepo *fakeExecutionRepo
	ruleManager   *fakeRuleManager
	chatClient    *fakeChatClient
	taskRepo      *fakeTaskRepo
}

func newTriggerFixture(t *testing.T, rules ...*domain.Rule) *triggerFixture {
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	grouped := make(map[domain.TriggerType][]*domain.Rule)
	for _, rule := range rules {
		grouped[rule.TriggerType] = append(grouped[rule.TriggerType], rule)
	}

	f := &triggerFixture{
		ruleRepo:      newFakeRuleRepo(rules...),
		executionRepo: newFakeExecutionRepo(),
		ruleManager:   &fakeRuleManager{rules: grouped},
		chatClient:    &fakeChatClient{},
		taskRepo:      &fakeTaskRepo{},
	}

	selector := NewRuleSelector(f.ruleManager, f.executionRepo, DefaultOrderingPolicy(), log)
	evaluator := NewConditionEvaluator(log)
	dispatcher := NewActionDispatcher(
		&fakeNotificationRepo{},
		f.taskRepo,
		&fakeEntityRepo{},
		f.chatClient,
		&fakeQueue{},
		&fakeWebhookCaller{},
		NewTemplateRenderer(),
		log,
	)

	f.trigger = NewTriggerService(selector, evaluator, dispatcher, f.ruleRepo, f.executionRepo, log)
	return f
}

func logAction(message string) domain.Action {
	return domain.Action{Type: domain.ActionTypeLog, Config: map[string]interface{}{"message": message}}
}

func TestTriggerMatchedRuleCompletes(t *testing.T) {
	rule := domain.NewRule("paid orders", domain.TriggerTypeOrderCreated, 1,
		[]domain.Condition{{Field: "status", Operator: domain.OperatorEquals, Value: "paid"}},
		[]domain.Action{logAction("order {{order_id}}")},
	)
	f := newTriggerFixture(t, rule)

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-1", map[string]interface{}{
		"status":   "paid",
		"order_id": "A-1",
	})

	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 1, summary.Executed)
	require.Len(t, summary.Results, 1)
	outcome := summary.Results[0]
	assert.True(t, outcome.Matched)
	assert.Equal(t, domain.ExecutionStatusCompleted, outcome.Status)
	assert.NotEmpty(t, outcome.ExecutionID)

	execution, err := f.executionRepo.GetByID(context.Background(), outcome.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, execution.Status)
	require.Len(t, execution.ActionResults, 1)
	assert.Equal(t, domain.ActionResultSuccess, execution.ActionResults[0].Status)

	require.Len(t, f.ruleRepo.stats, 1)
	assert.True(t, f.ruleRepo.stats[0].ok)
}

func TestTriggerUnmatchedRuleSkips(t *testing.T) {
	rule := domain.NewRule("big orders", domain.TriggerTypeOrderCreated, 1,
		[]domain.Condition{{Field: "total", Operator: domain.OperatorGreaterThan, Value: 1000}},
		[]domain.Action{logAction("big order")},
	)
	f := newTriggerFixture(t, rule)

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-2", map[string]interface{}{
		"total": float64(50),
	})

	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 0, summary.Executed)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Matched)
	assert.Equal(t, domain.ExecutionStatusSkipped, summary.Results[0].Status)

	// A considered-but-unmatched rule still leaves a ledger entry
	skipped := f.executionRepo.byStatus(domain.ExecutionStatusSkipped)
	require.Len(t, skipped, 1)
	assert.Empty(t, skipped[0].ActionResults)

	// A skipped evaluation still counts as an attempt in rolling stats,
	// with no error recorded
	require.Len(t, f.ruleRepo.stats, 1)
	assert.Equal(t, rule.RuleID, f.ruleRepo.stats[0].ruleID)
	assert.True(t, f.ruleRepo.stats[0].ok)
	assert.Empty(t, f.ruleRepo.stats[0].errorMessage)
}

func TestTriggerFailFastRecordsPartialResults(t *testing.T) {
	rule := domain.NewRule("notify chain", domain.TriggerTypeOrderShipped, 1, nil,
		[]domain.Action{
			logAction("first"),
			{Type: domain.ActionTypeSendChatMessage, Config: map[string]interface{}{"channel": "#ops", "message": "x"}},
			{Type: domain.ActionTypeCreateTask, Config: map[string]interface{}{"title": "never"}},
		},
	)
	f := newTriggerFixture(t, rule)
	f.chatClient.err = errors.New("gateway timeout")

	event := domain.NewTriggerContext(domain.TriggerTypeOrderShipped, "order", "order-3", nil)

	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Executed)
	require.Len(t, summary.Results, 1)
	outcome := summary.Results[0]
	assert.True(t, outcome.Matched)
	assert.Equal(t, domain.ExecutionStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Error, "send_chat_message")

	execution, err := f.executionRepo.GetByID(context.Background(), outcome.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusFailed, execution.Status)
	// Two results: the success and the failure; the third action is absent
	require.Len(t, execution.ActionResults, 2)
	assert.Empty(t, f.taskRepo.tasks)

	require.Len(t, f.ruleRepo.stats, 1)
	assert.False(t, f.ruleRepo.stats[0].ok)
	assert.Contains(t, f.ruleRepo.stats[0].errorMessage, "gateway timeout")
}

func TestTriggerPriorityOrderAcrossRules(t *testing.T) {
	first := domain.NewRule("first", domain.TriggerTypeOrderCreated, 1, nil, []domain.Action{logAction("a")})
	second := domain.NewRule("second", domain.TriggerTypeOrderCreated, 5, nil, []domain.Action{logAction("b")})
	f := newTriggerFixture(t, second, first)

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-4", nil)
	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Triggered)
	assert.Equal(t, 2, summary.Executed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "first", summary.Results[0].RuleName)
	assert.Equal(t, "second", summary.Results[1].RuleName)
}

func TestTriggerRateLimitedRuleLeavesNoRecord(t *testing.T) {
	rule := domain.NewRule("capped", domain.TriggerTypeOrderCreated, 1, nil, []domain.Action{logAction("x")})
	rule.MaxExecutionsPerDay = intPtr(1)
	f := newTriggerFixture(t, rule)

	ctx := context.Background()
	f.executionRepo.Create(ctx, completedExecution(rule, "earlier", time.Now()))

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-5", nil)
	summary, err := f.trigger.Trigger(ctx, event)
	require.NoError(t, err)

	// The candidate counts as triggered but produces no outcome and no
	// new ledger entry
	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 0, summary.Executed)
	assert.Empty(t, summary.Results)

	running := f.executionRepo.byStatus(domain.ExecutionStatusRunning)
	assert.Empty(t, running)
	skipped := f.executionRepo.byStatus(domain.ExecutionStatusSkipped)
	assert.Empty(t, skipped)
	assert.Empty(t, f.ruleRepo.stats)
}

func TestTriggerNoMatchingRules(t *testing.T) {
	f := newTriggerFixture(t)

	event := domain.NewTriggerContext(domain.TriggerTypeKeywordMatch, "chat", "chat-1", nil)
	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Triggered)
	assert.Equal(t, 0, summary.Executed)
	assert.Empty(t, summary.Results)
}

func TestTriggerRuleLookupFailure(t *testing.T) {
	f := newTriggerFixture(t)
	f.ruleManager.err = errors.New("store unavailable")

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-6", nil)
	_, err := f.trigger.Trigger(context.Background(), event)
	assert.Error(t, err)
}

func TestTriggerInactiveRulesExcluded(t *testing.T) {
	active := domain.NewRule("active", domain.TriggerTypeOrderCreated, 1, nil, []domain.Action{logAction("a")})
	inactive := domain.NewRule("inactive", domain.TriggerTypeOrderCreated, 2, nil, []domain.Action{logAction("b")})
	inactive.IsActive = false

	// Rule manager only serves active rules; mirror that here
	f := newTriggerFixture(t, active)
	f.ruleRepo.Create(context.Background(), inactive)

	event := domain.NewTriggerContext(domain.TriggerTypeOrderCreated, "order", "order-7", nil)
	summary, err := f.trigger.Trigger(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Triggered)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "active", summary.Results[0].RuleName)
}
