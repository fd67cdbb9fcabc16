package main

import (
	"orchid/commons/config"
	"orchid/commons/server"
	internalConfig "orchid/internal/config"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.WithLogger(config.ProvideFxLogger),
		fx.Provide(
			config.ProvideLogger,
			config.ProvideRouteDependencies,
			config.ProvideSQSClient,
			config.ProvideDynamoDBClient,
			config.ProvideChatClient,
			config.ProvideWebhookCaller,
			config.ProvideZooKeeperCoordinator,
			config.ProvideRedisCache,
			internalConfig.ProvideRuleRepository,
			internalConfig.ProvideExecutionRepository,
			internalConfig.ProvideNotificationRepository,
			internalConfig.ProvideTaskRepository,
			internalConfig.ProvideEntityRepository,
			internalConfig.ProvideConditionEvaluator,
			internalConfig.ProvideTemplateRenderer,
			internalConfig.ProvideRuleManager,
			internalConfig.ProvideOrderingPolicy,
			internalConfig.ProvideRuleSelector,
			internalConfig.ProvideActionDispatcher,
			internalConfig.ProvideTriggerService,
			internalConfig.ProvideScheduledTriggerService,
			internalConfig.ProvideEventQueueAndConsumer,
			internalConfig.ProvideJobQueue,
			internalConfig.ProvideAutomationHealthHandler,
			internalConfig.ProvideRuleHandler,
			internalConfig.ProvideTriggerHandler,
			internalConfig.ProvideExecutionHandler,
			internalConfig.ProvideAutomationRouterConfig,
			internalConfig.ProvideAutomationServerConfig,
			internalConfig.ProvideAutomationRouteInitializer,
			config.ProvideRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(
			internalConfig.ManageRuleManagerLifecycle,
			internalConfig.ManageEventQueueLifecycle,
			internalConfig.ManageScheduledTriggerLifecycle,
			func(*server.HTTPServer) {},
		),
	).Run()
}
