package config

import (
	"context"
	"os"
	"time"

	"orchid/commons/routes"
	cache "orchid/internal/cache/iface"
	redisCache "orchid/internal/cache/redis"
	"orchid/internal/chat"
	coordinator "orchid/internal/coordinator/iface"
	zkCoordinator "orchid/internal/coordinator/zk"
	"orchid/internal/logger"
	"orchid/internal/webhook"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx/fxevent"
)

// envOrDefault reads an environment variable with a local-dev fallback
func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// ProvideLogger creates and configures the logger for the application
func ProvideLogger() (logger.Logger, error) {
	return logger.NewZapLoggerForDev()
}

// ProvideFxLogger creates the FX event logger using the application logger
func ProvideFxLogger(log logger.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{
		Logger: log.(*logger.ZapLogger).Logger(),
	}
}

// ProvideRouteDependencies creates route dependencies
func ProvideRouteDependencies(log logger.Logger) routes.RouteDependencies {
	return routes.RouteDependencies{
		Logger: log,
	}
}

// ProvideRouter creates and configures the Gin router with all routes
func ProvideRouter(
	config routes.RouterConfig,
	deps routes.RouteDependencies,
	routeInitializer func(*gin.Engine, routes.RouteDependencies),
) *gin.Engine {
	router := routes.NewRouter(config, deps)
	routeInitializer(router, deps)
	return router
}

// ProvideSQSClient provides an SQS client (for LocalStack or AWS)
func ProvideSQSClient() (*sqs.Client, error) {
	endpoint := envOrDefault("SQS_ENDPOINT", "http://localhost:4566")
	region := envOrDefault("AWS_REGION", "us-east-1")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if endpoint != "" {
					return aws.Endpoint{
						URL:           endpoint,
						SigningRegion: region,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			})),
	)
	if err != nil {
		return nil, err
	}

	return sqs.NewFromConfig(cfg), nil
}

// ProvideChatClient provides a chat client. Without a webhook URL the
// mock client logs messages instead of delivering them.
func ProvideChatClient(log logger.Logger) chat.Client {
	webhookURL := os.Getenv("CHAT_WEBHOOK_URL")
	if webhookURL == "" {
		return chat.NewMockClient(log)
	}
	return chat.NewWebhookClient(webhookURL, log)
}

// ProvideWebhookCaller provides the outbound webhook HTTP caller
func ProvideWebhookCaller(log logger.Logger) webhook.Caller {
	return webhook.NewHTTPCaller(15*time.Second, log)
}

// ProvideZooKeeperCoordinator provides a ZooKeeper coordinator for distributed coordination
func ProvideZooKeeperCoordinator(log logger.Logger) (coordinator.Coordinator, error) {
	servers := []string{envOrDefault("ZK_SERVERS", "localhost:2181")}
	sessionTimeout := 60 * time.Second

	coord, err := zkCoordinator.NewZKCoordinator(servers, sessionTimeout, log)
	if err != nil {
		return nil, err
	}

	return coord, nil
}

// ProvideRedisCache provides a Redis cache client
func ProvideRedisCache(log logger.Logger) (cache.Cache, error) {
	addr := envOrDefault("REDIS_ADDR", "localhost:6379")
	password := "" // No password for local development
	db := 0        // Default DB

	cache, err := redisCache.NewRedisCache(addr, password, db, log)
	if err != nil {
		return nil, err
	}

	return cache, nil
}

// ProvideDynamoDBClient provides DynamoDB client
func ProvideDynamoDBClient() (*awsdynamodb.Client, error) {
	endpoint := envOrDefault("DYNAMODB_ENDPOINT", "http://localhost:9000")
	region := envOrDefault("AWS_REGION", "us-east-1")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:           endpoint,
					SigningRegion: region,
				}, nil
			})),
	)
	if err != nil {
		return nil, err
	}

	return awsdynamodb.NewFromConfig(cfg), nil
}
