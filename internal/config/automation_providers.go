package config

import (
	"context"
	"os"

	"orchid/commons/routes"
	"orchid/commons/server"
	cache "orchid/internal/cache/iface"
	"orchid/internal/chat"
	event "orchid/internal/consumer/event_queue/iface"
	eventImpl "orchid/internal/consumer/event_queue/impl"
	coordinator "orchid/internal/coordinator/iface"
	"orchid/internal/handler"
	"orchid/internal/logger"
	queue "orchid/internal/queue/iface"
	"orchid/internal/queue/sqs"
	"orchid/internal/repository/dynamodb"
	repository "orchid/internal/repository/iface"
	internalRoutes "orchid/internal/routes"
	"orchid/internal/service"
	"orchid/internal/webhook"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Repository Providers

func ProvideRuleRepository(client *awsdynamodb.Client, log logger.Logger) repository.RuleRepository {
	return dynamodb.NewRuleRepository(client, log)
}

func ProvideExecutionRepository(client *awsdynamodb.Client, log logger.Logger) repository.ExecutionRepository {
	return dynamodb.NewExecutionRepository(client, log)
}

func ProvideNotificationRepository(client *awsdynamodb.Client, log logger.Logger) repository.NotificationRepository {
	return dynamodb.NewNotificationRepository(client, log)
}

func ProvideTaskRepository(client *awsdynamodb.Client, log logger.Logger) repository.TaskRepository {
	return dynamodb.NewTaskRepository(client, log)
}

func ProvideEntityRepository(client *awsdynamodb.Client, log logger.Logger) repository.EntityRepository {
	return dynamodb.NewEntityRepository(client, log)
}

// Service Providers

func ProvideConditionEvaluator(log logger.Logger) service.ConditionEvaluator {
	return service.NewConditionEvaluator(log)
}

func ProvideTemplateRenderer() service.TemplateRenderer {
	return service.NewTemplateRenderer()
}

func ProvideRuleManager(
	ruleRepo repository.RuleRepository,
	cache cache.Cache,
	coordinator coordinator.Coordinator,
	log logger.Logger,
) service.RuleManager {
	return service.NewRuleManager(ruleRepo, cache, coordinator, log)
}

func ProvideOrderingPolicy() service.OrderingPolicy {
	return service.DefaultOrderingPolicy()
}

func ProvideRuleSelector(
	ruleManager service.RuleManager,
	executionRepo repository.ExecutionRepository,
	ordering service.OrderingPolicy,
	log logger.Logger,
) service.RuleSelector {
	return service.NewRuleSelector(ruleManager, executionRepo, ordering, log)
}

// ActionDispatcherParams pulls the named job queue out of the graph
type ActionDispatcherParams struct {
	fx.In

	NotificationRepo repository.NotificationRepository
	TaskRepo         repository.TaskRepository
	EntityRepo       repository.EntityRepository
	ChatClient       chat.Client
	JobQueue         queue.Queue `name:"job_queue"`
	WebhookCaller    webhook.Caller
	Renderer         service.TemplateRenderer
	Logger           logger.Logger
}

func ProvideActionDispatcher(params ActionDispatcherParams) service.ActionDispatcher {
	return service.NewActionDispatcher(
		params.NotificationRepo,
		params.TaskRepo,
		params.EntityRepo,
		params.ChatClient,
		params.JobQueue,
		params.WebhookCaller,
		params.Renderer,
		params.Logger,
	)
}

func ProvideTriggerService(
	selector service.RuleSelector,
	evaluator service.ConditionEvaluator,
	dispatcher service.ActionDispatcher,
	ruleRepo repository.RuleRepository,
	executionRepo repository.ExecutionRepository,
	log logger.Logger,
) service.TriggerService {
	return service.NewTriggerService(selector, evaluator, dispatcher, ruleRepo, executionRepo, log)
}

func ProvideScheduledTriggerService(
	trigger service.TriggerService,
	cache cache.Cache,
	log logger.Logger,
) service.ScheduledTriggerService {
	nodeID, err := os.Hostname()
	if err != nil || nodeID == "" {
		nodeID = "NODE1"
	}
	return service.NewScheduledTriggerService(trigger, cache, nodeID, log)
}

// Queue Providers

// EventQueueResult provides the inbound event queue and its consumer
type EventQueueResult struct {
	fx.Out

	Queue    queue.Queue `name:"event_queue"`
	Consumer event.EventConsumer
}

func ProvideEventQueueAndConsumer(
	sqsClient *awssqs.Client,
	trigger service.TriggerService,
	log logger.Logger,
) EventQueueResult {
	// The processor closes over the consumer created after the queue
	var consumer event.EventConsumer

	q := sqs.NewSQSQueue(
		sqsClient,
		sqs.QueueConfig{
			QueueURL:        envOrDefault("EVENT_QUEUE_URL", "http://localhost:4566/000000000000/event-queue"),
			WorkerCount:     1,
			MaxMessages:     1,
			WaitTimeSeconds: 20,
		},
		queue.MessageProcessorFunc[event.EventMessage](func(ctx context.Context, msg event.EventMessage) bool {
			return consumer.ProcessMessage(ctx, msg)
		}),
		log,
	)

	consumer = eventImpl.NewEventConsumer(log, q, trigger)

	return EventQueueResult{
		Queue:    q,
		Consumer: consumer,
	}
}

// JobQueueResult provides the outbound queue used by enqueue_job actions
type JobQueueResult struct {
	fx.Out

	Queue queue.Queue `name:"job_queue"`
}

func ProvideJobQueue(sqsClient *awssqs.Client, log logger.Logger) JobQueueResult {
	q := sqs.NewSQSQueue(
		sqsClient,
		sqs.QueueConfig{
			QueueURL: envOrDefault("JOB_QUEUE_URL", "http://localhost:4566/000000000000/job-queue"),
		},
		// Jobs are consumed by downstream workers, never by this service
		queue.MessageProcessorFunc[map[string]interface{}](func(ctx context.Context, msg map[string]interface{}) bool {
			return true
		}),
		log,
	)

	return JobQueueResult{Queue: q}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// HTTP Providers

func ProvideAutomationHealthHandler(log logger.Logger) *handler.HealthHandler {
	return handler.NewHealthHandler(log, "automation")
}

func ProvideRuleHandler(
	log logger.Logger,
	ruleRepo repository.RuleRepository,
	executionRepo repository.ExecutionRepository,
	ruleManager service.RuleManager,
) *handler.RuleHandler {
	return handler.NewRuleHandler(log, ruleRepo, executionRepo, ruleManager)
}

func ProvideTriggerHandler(log logger.Logger, trigger service.TriggerService) *handler.TriggerHandler {
	return handler.NewTriggerHandler(log, trigger)
}

func ProvideExecutionHandler(log logger.Logger, executionRepo repository.ExecutionRepository) *handler.ExecutionHandler {
	return handler.NewExecutionHandler(log, executionRepo)
}

func ProvideAutomationRouterConfig(log logger.Logger) routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName: "automation",
		Version:     "v1",
	}
}

func ProvideAutomationServerConfig() server.ServerConfig {
	return server.ServerConfig{
		Port: envOrDefault("HTTP_PORT", "8090"),
	}
}

func ProvideAutomationRouteInitializer(
	healthHandler *handler.HealthHandler,
	ruleHandler *handler.RuleHandler,
	triggerHandler *handler.TriggerHandler,
	executionHandler *handler.ExecutionHandler,
) func(*gin.Engine, routes.RouteDependencies) {
	return func(router *gin.Engine, deps routes.RouteDependencies) {
		internalRoutes.InitHealthRoutes(router, healthHandler, deps.Logger)
		internalRoutes.InitRuleRoutes(router, ruleHandler, deps.Logger)
		internalRoutes.InitTriggerRoutes(router, triggerHandler, deps.Logger)
		internalRoutes.InitExecutionRoutes(router, executionHandler, deps.Logger)
	}
}

// Lifecycle Management

func ManageRuleManagerLifecycle(lc fx.Lifecycle, ruleManager service.RuleManager, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting rule manager")
			return ruleManager.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping rule manager")
			return ruleManager.Stop(ctx)
		},
	})
}

// EventQueueLifecycleParams names the queue that gets consumer hooks
type EventQueueLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Queue     queue.Queue `name:"event_queue"`
	Logger    logger.Logger
}

func ManageEventQueueLifecycle(params EventQueueLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("starting event queue consumer")
			return params.Queue.StartConsumer(ctx)
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("stopping event queue consumer")
			return params.Queue.StopConsumer(ctx)
		},
	})
}

func ManageScheduledTriggerLifecycle(lc fx.Lifecycle, scheduled service.ScheduledTriggerService, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting scheduled trigger service")
			return scheduled.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping scheduled trigger service")
			return scheduled.Stop(ctx)
		},
	})
}
