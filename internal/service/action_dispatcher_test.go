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

type dispatcherFixture struct {
	dispatcher       ActionDispatcher
	notificationRepo *fakeNotificationRepo
	taskRepo         *fakeTaskRepo
	entityRepo       *fakeEntityRepo
	chatClient       *fakeChatClient
	jobQueue         *fakeQueue
	webhookCaller    *fakeWebhookCaller
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	f := &dispatcherFixture{
		notificationRepo: &fakeNotificationRepo{},
		taskRepo:         &fakeTaskRepo{},
		entityRepo:       &fakeEntityRepo{},
		chatClient:       &fakeChatClient{},
		jobQueue:         &fakeQueue{},
		webhookCaller:    &fakeWebhookCaller{},
	}
	f.dispatcher = NewActionDispatcher(
		f.notificationRepo,
		f.taskRepo,
		f.entityRepo,
		f.chatClient,
		f.jobQueue,
		f.webhookCaller,
		NewTemplateRenderer(),
		log,
	)
	return f
}

func shipmentEvent() *domain.TriggerContext {
	return domain.NewTriggerContext(domain.TriggerTypeOrderShipped, "order", "order-42", map[string]interface{}{
		"order_id": "A-42",
		"customer": map[string]interface{}{"name": "Noor"},
	})
}

func TestDispatchSendNotification(t *testing.T) {
	f := newDispatcherFixture(t)

	action := domain.Action{
		Type: domain.ActionTypeSendNotification,
		Config: map[string]interface{}{
			"recipient": "ops-team",
			"title":     "Order {{order_id}} shipped",
			"body":      "Customer: {{customer.name}}, carrier: {{shipment.carrier}}",
		},
	}

	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultSuccess, result.Status)
	require.Len(t, f.notificationRepo.notifications, 1)
	notification := f.notificationRepo.notifications[0]
	assert.Equal(t, "ops-team", notification.Recipient)
	assert.Equal(t, "Order A-42 shipped", notification.Title)
	// Message templates blank unresolved placeholders
	assert.Equal(t, "Customer: Noor, carrier: ", notification.Body)
	assert.Equal(t, notification.NotificationID, result.Result["notification_id"])
}

func TestDispatchSendChatMessage(t *testing.T) {
	f := newDispatcherFixture(t)

	action := domain.Action{
		Type: domain.ActionTypeSendChatMessage,
		Config: map[string]interface{}{
			"channel": "#fulfilment",
			"message": "{{order_id}} is on its way",
		},
	}

	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultSuccess, result.Status)
	require.Len(t, f.chatClient.messages, 1)
	assert.Equal(t, "#fulfilment", f.chatClient.messages[0].channel)
	assert.Equal(t, "A-42 is on its way", f.chatClient.messages[0].message)
}

func TestDispatchUpdateEntityStatus(t *testing.T) {
	f := newDispatcherFixture(t)

	t.Run("defaults to event entity", func(t *testing.T) {
		action := domain.Action{
			Type:   domain.ActionTypeUpdateEntityStatus,
			Config: map[string]interface{}{"status": "shipped"},
		}

		result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

		assert.Equal(t, domain.ActionResultSuccess, result.Status)
		require.Len(t, f.entityRepo.updates, 1)
		assert.Equal(t, statusUpdate{entityType: "order", entityID: "order-42", status: "shipped"}, f.entityRepo.updates[0])
	})

	t.Run("fails without a target entity", func(t *testing.T) {
		action := domain.Action{
			Type:   domain.ActionTypeUpdateEntityStatus,
			Config: map[string]interface{}{"status": "shipped"},
		}
		event := domain.NewTriggerContext(domain.TriggerTypeManual, "", "", nil)

		result := f.dispatcher.Dispatch(context.Background(), action, event)

		assert.Equal(t, domain.ActionResultFailed, result.Status)
		assert.Contains(t, result.Error, "no target entity")
	})
}

func TestDispatchCreateTask(t *testing.T) {
	f := newDispatcherFixture(t)

	action := domain.Action{
		Type: domain.ActionTypeCreateTask,
		Config: map[string]interface{}{
			"title":    "Check order {{order_id}}",
			"assignee": "warehouse",
		},
	}

	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultSuccess, result.Status)
	require.Len(t, f.taskRepo.tasks, 1)
	task := f.taskRepo.tasks[0]
	assert.Equal(t, "Check order A-42", task.Title)
	assert.Equal(t, "warehouse", task.Assignee)
	assert.Equal(t, "order-42", task.EntityID)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)
}

func TestDispatchEnqueueJob(t *testing.T) {
	f := newDispatcherFixture(t)

	action := domain.Action{
		Type: domain.ActionTypeEnqueueJob,
		Config: map[string]interface{}{
			"job_name": "sync_inventory",
			"payload":  map[string]interface{}{"order": "{{order_id}}"},
		},
	}

	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultSuccess, result.Status)
	require.Len(t, f.jobQueue.messages, 1)
	message := f.jobQueue.messages[0].(map[string]interface{})
	assert.Equal(t, "sync_inventory", message["job_name"])
	assert.Equal(t, "order_shipped", message["trigger_type"])
	payload := message["payload"].(map[string]interface{})
	assert.Equal(t, "A-42", payload["order"])
}

func TestDispatchCallWebhook(t *testing.T) {
	f := newDispatcherFixture(t)

	t.Run("renders payload in keep mode", func(t *testing.T) {
		action := domain.Action{
			Type: domain.ActionTypeCallWebhook,
			Config: map[string]interface{}{
				"url": "https://hooks.example.com/ship",
				"payload": map[string]interface{}{
					"order":   "{{order_id}}",
					"missing": "{{not.there}}",
				},
			},
		}

		result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

		assert.Equal(t, domain.ActionResultSuccess, result.Status)
		assert.Equal(t, 200, result.Result["status_code"])
		require.Len(t, f.webhookCaller.calls, 1)
		payload := f.webhookCaller.calls[0].payload
		assert.Equal(t, "A-42", payload["order"])
		assert.Equal(t, "{{not.there}}", payload["missing"])
	})

	t.Run("defaults payload to event data", func(t *testing.T) {
		f := newDispatcherFixture(t)
		action := domain.Action{
			Type:   domain.ActionTypeCallWebhook,
			Config: map[string]interface{}{"url": "https://hooks.example.com/ship"},
		}

		result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

		assert.Equal(t, domain.ActionResultSuccess, result.Status)
		require.Len(t, f.webhookCaller.calls, 1)
		assert.Equal(t, "A-42", f.webhookCaller.calls[0].payload["order_id"])
	})
}

func TestDispatchDelay(t *testing.T) {
	f := newDispatcherFixture(t)

	t.Run("computes execute_at without blocking", func(t *testing.T) {
		action := domain.Action{
			Type:   domain.ActionTypeDelay,
			Config: map[string]interface{}{"duration": "15m"},
		}

		start := time.Now()
		result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())
		assert.Less(t, time.Since(start), time.Second, "delay action must not sleep")

		assert.Equal(t, domain.ActionResultSuccess, result.Status)
		assert.Equal(t, 900, result.Result["delay_seconds"])

		executeAt, err := time.Parse(time.RFC3339, result.Result["execute_at"].(string))
		require.NoError(t, err)
		assert.WithinDuration(t, start.Add(15*time.Minute), executeAt, 5*time.Second)
	})

	t.Run("rejects bad durations", func(t *testing.T) {
		for _, duration := range []string{"", "soon", "-5m"} {
			action := domain.Action{
				Type:   domain.ActionTypeDelay,
				Config: map[string]interface{}{"duration": duration},
			}
			result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())
			assert.Equal(t, domain.ActionResultFailed, result.Status, "duration %q", duration)
		}
	})
}

func TestDispatchMissingConfig(t *testing.T) {
	f := newDispatcherFixture(t)

	tests := []struct {
		name   string
		action domain.Action
	}{
		{
			name:   "notification without recipient",
			action: domain.Action{Type: domain.ActionTypeSendNotification, Config: map[string]interface{}{"title": "x"}},
		},
		{
			name:   "chat without channel",
			action: domain.Action{Type: domain.ActionTypeSendChatMessage, Config: map[string]interface{}{"message": "x"}},
		},
		{
			name:   "webhook without url",
			action: domain.Action{Type: domain.ActionTypeCallWebhook, Config: map[string]interface{}{}},
		},
		{
			name:   "log without message",
			action: domain.Action{Type: domain.ActionTypeLog, Config: map[string]interface{}{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.dispatcher.Dispatch(context.Background(), tt.action, shipmentEvent())
			assert.Equal(t, domain.ActionResultFailed, result.Status)
			assert.Contains(t, result.Error, "missing required config key")
		})
	}
}

func TestDispatchEmptyConfigValue(t *testing.T) {
	f := newDispatcherFixture(t)

	// An explicitly empty value is reported as empty, not absent
	action := domain.Action{Type: domain.ActionTypeCallWebhook, Config: map[string]interface{}{"url": ""}}
	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultFailed, result.Status)
	assert.Contains(t, result.Error, `config key "url" must not be empty`)
}

func TestDispatchUnknownActionType(t *testing.T) {
	f := newDispatcherFixture(t)

	action := domain.Action{Type: "launch_rocket", Config: map[string]interface{}{}}
	result := f.dispatcher.Dispatch(context.Background(), action, shipmentEvent())

	assert.Equal(t, domain.ActionResultFailed, result.Status)
	assert.Contains(t, result.Error, "unknown action type")
}

func TestDispatchAllFailFast(t *testing.T) {
	f := newDispatcherFixture(t)
	f.chatClient.err = errors.New("chat gateway down")

	actions := []domain.Action{
		{Type: domain.ActionTypeLog, Config: map[string]interface{}{"message": "first"}},
		{Type: domain.ActionTypeSendChatMessage, Config: map[string]interface{}{"channel": "#ops", "message": "second"}},
		{Type: domain.ActionTypeCreateTask, Config: map[string]interface{}{"title": "third"}},
	}

	results, ok := f.dispatcher.DispatchAll(context.Background(), actions, shipmentEvent())

	assert.False(t, ok)
	// The failing action stops the list; the third action never runs
	require.Len(t, results, 2)
	assert.Equal(t, domain.ActionResultSuccess, results[0].Status)
	assert.Equal(t, domain.ActionResultFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "chat gateway down")
	assert.Empty(t, f.taskRepo.tasks, "actions after the failure must not run")
}

func TestDispatchAllSuccess(t *testing.T) {
	f := newDispatcherFixture(t)

	actions := []domain.Action{
		{Type: domain.ActionTypeLog, Config: map[string]interface{}{"message": "order {{order_id}}"}},
		{Type: domain.ActionTypeCreateTask, Config: map[string]interface{}{"title": "inspect"}},
	}

	results, ok := f.dispatcher.DispatchAll(context.Background(), actions, shipmentEvent())

	assert.True(t, ok)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, domain.ActionResultSuccess, result.Status)
	}
}
