package dynamodb

import (
	"context"
	"fmt"
	"time"

	"orchid/internal/domain"
	"orchid/internal/logger"
	repository "orchid/internal/repository/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type notificationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewNotificationRepository creates a new DynamoDB notification repository
func NewNotificationRepository(client *dynamodb.Client, log logger.Logger) repository.NotificationRepository {
	return &notificationRepository{
		client:    client,
		tableName: "notifications",
		logger:    log.With(logger.String("component", "notification_repository")),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	item, err := attributevalue.MarshalMap(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to create notification", logger.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	r.logger.Debug("notification created",
		logger.String("notification_id", notification.NotificationID),
		logger.String("recipient", notification.Recipient))

	return nil
}

type taskRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewTaskRepository creates a new DynamoDB task repository
func NewTaskRepository(client *dynamodb.Client, log logger.Logger) repository.TaskRepository {
	return &taskRepository{
		client:    client,
		tableName: "tasks",
		logger:    log.With(logger.String("component", "task_repository")),
	}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	item, err := attributevalue.MarshalMap(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to create task", logger.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task created",
		logger.String("task_id", task.TaskID))

	return nil
}

type entityRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewEntityRepository creates a new DynamoDB entity repository
func NewEntityRepository(client *dynamodb.Client, log logger.Logger) repository.EntityRepository {
	return &entityRepository{
		client:    client,
		tableName: "entities",
		logger:    log.With(logger.String("component", "entity_repository")),
	}
}

func (r *entityRepository) UpdateStatus(ctx context.Context, entityType, entityID, status string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"entity_type": &types.AttributeValueMemberS{Value: entityType},
			"entity_id":   &types.AttributeValueMemberS{Value: entityID},
		},
		UpdateExpression: aws.String("SET #status = :status, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":now":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().UnixMilli())},
		},
	})

	if err != nil {
		r.logger.Error("failed to update entity status",
			logger.String("entity_type", entityType),
			logger.String("entity_id", entityID),
			logger.Error(err))
		return fmt.Errorf("failed to update entity status: %w", err)
	}

	r.logger.Debug("entity status updated",
		logger.String("entity_type", entityType),
		logger.String("entity_id", entityID),
		logger.String("status", status))

	return nil
}
