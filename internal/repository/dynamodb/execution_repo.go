package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
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

type executionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewExecutionRepository creates a new DynamoDB execution repository
func NewExecutionRepository(client *dynamodb.Client, log logger.Logger) repository.ExecutionRepository {
	return &executionRepository{
		client:    client,
		tableName: "rule_executions",
		logger:    log.With(logger.String("component", "execution_repository")),
	}
}

func (r *executionRepository) Create(ctx context.Context, execution *domain.Execution) error {
	item, err := attributevalue.MarshalMap(execution)
	if err != nil {
		r.logger.Error("failed to marshal execution", logger.Error(err))
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to create execution", logger.Error(err))
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

func (r *executionRepository) Update(ctx context.Context, execution *domain.Execution) error {
	item, err := attributevalue.MarshalMap(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to update execution", logger.Error(err))
		return fmt.Errorf("failed to update execution: %w", err)
	}

	return nil
}

func (r *executionRepository) GetByID(ctx context.Context, executionID string) (*domain.Execution, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"execution_id": &types.AttributeValueMemberS{Value: executionID},
		},
	})

	if err != nil {
		r.logger.Error("failed to get execution", logger.Error(err))
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, executionID)
	}

	var execution domain.Execution
	if err := attributevalue.UnmarshalMap(result.Item, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}

	return &execution, nil
}

func (r *executionRepository) ListByRuleID(ctx context.Context, ruleID string, limit int, nextToken string) (*repository.ExecutionPaginationResult, error) {
	queryInput := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("rule_id_index"),
		KeyConditionExpression: aws.String("rule_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: ruleID},
		},
		ScanIndexForward: aws.Bool(false), // newest first by created_at (sort key)
		Limit:            aws.Int32(int32(limit)),
	}

	if nextToken != "" {
		exclusiveStartKey, err := decodeNextToken(nextToken)
		if err != nil {
			return nil, fmt.Errorf("invalid next token: %w", err)
		}
		queryInput.ExclusiveStartKey = exclusiveStartKey
	}

	result, err := r.client.Query(ctx, queryInput)
	if err != nil {
		r.logger.Error("failed to query executions", logger.Error(err))
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	executions := make([]*domain.Execution, 0, len(result.Items))
	for _, item := range result.Items {
		var execution domain.Execution
		if err := attributevalue.UnmarshalMap(item, &execution); err != nil {
			r.logger.Warn("failed to unmarshal execution", logger.Error(err))
			continue
		}
		executions = append(executions, &execution)
	}

	var encodedNextToken string
	if result.LastEvaluatedKey != nil {
		encodedNextToken, err = encodeNextToken(result.LastEvaluatedKey)
		if err != nil {
			r.logger.Warn("failed to encode next token", logger.Error(err))
		}
	}

	return &repository.ExecutionPaginationResult{
		Executions: executions,
		NextToken:  encodedNextToken,
	}, nil
}

func (r *executionRepository) CountCompletedSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("rule_id_index"),
		KeyConditionExpression: aws.String("rule_id = :id AND created_at >= :since"),
		FilterExpression:       aws.String("#status = :completed"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":        &types.AttributeValueMemberS{Value: ruleID},
			":since":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", since.UnixMilli())},
			":completed": &types.AttributeValueMemberS{Value: string(domain.ExecutionStatusCompleted)},
		},
		Select: types.SelectCount,
	})

	if err != nil {
		r.logger.Error("failed to count executions",
			logger.String("rule_id", ruleID),
			logger.Error(err))
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}

	return int(result.Count), nil
}

func (r *executionRepository) FindRecentForEntity(ctx context.Context, ruleID, entityID string, since time.Time) (*domain.Execution, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("rule_entity_index"),
		KeyConditionExpression: aws.String("rule_entity_key = :key AND created_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key":   &types.AttributeValueMemberS{Value: ruleID + "#" + entityID},
			":since": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", since.UnixMilli())},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})

	if err != nil {
		r.logger.Error("failed to query recent execution",
			logger.String("rule_id", ruleID),
			logger.String("entity_id", entityID),
			logger.Error(err))
		return nil, fmt.Errorf("failed to query recent execution: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	var execution domain.Execution
	if err := attributevalue.UnmarshalMap(result.Items[0], &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}

	return &execution, nil
}

func (r *executionRepository) DeleteByRuleID(ctx context.Context, ruleID string) error {
	r.logger.Debug("deleting executions for rule",
		logger.String("rule_id", ruleID))

	// Page through the rule's executions and delete each row
	nextToken := ""
	for {
		page, err := r.ListByRuleID(ctx, ruleID, 100, nextToken)
		if err != nil {
			return fmt.Errorf("failed to list executions for delete: %w", err)
		}

		for _, execution := range page.Executions {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"execution_id": &types.AttributeValueMemberS{Value: execution.ExecutionID},
				},
			})
			if err != nil {
				return fmt.Errorf("failed to delete execution %s: %w", execution.ExecutionID, err)
			}
		}

		if page.NextToken == "" {
			return nil
		}
		nextToken = page.NextToken
	}
}

// Helper functions for pagination token encoding/decoding
func encodeNextToken(lastEvaluatedKey map[string]types.AttributeValue) (string, error) {
	if lastEvaluatedKey == nil {
		return "", nil
	}

	simpleMap := make(map[string]string)
	for key, value := range lastEvaluatedKey {
		switch v := value.(type) {
		case *types.AttributeValueMemberS:
			simpleMap[key] = "S:" + v.Value
		case *types.AttributeValueMemberN:
			simpleMap[key] = "N:" + v.Value
		case *types.AttributeValueMemberB:
			simpleMap[key] = "B:" + base64.StdEncoding.EncodeToString(v.Value)
		default:
			return "", fmt.Errorf("unsupported attribute type: %T", value)
		}
	}

	jsonData, err := json.Marshal(simpleMap)
	if err != nil {
		return "", fmt.Errorf("failed to json marshal: %w", err)
	}

	return base64.StdEncoding.EncodeToString(jsonData), nil
}

func decodeNextToken(nextToken string) (map[string]types.AttributeValue, error) {
	if nextToken == "" {
		return nil, nil
	}

	jsonData, err := base64.StdEncoding.DecodeString(nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode next token: %w", err)
	}

	var simpleMap map[string]string
	if err := json.Unmarshal(jsonData, &simpleMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal next token: %w", err)
	}

	result := make(map[string]types.AttributeValue)
	for key, value := range simpleMap {
		if len(value) < 2 || value[1] != ':' {
			return nil, fmt.Errorf("invalid token format for key %s", key)
		}

		prefix := value[:1]
		data := value[2:]

		switch prefix {
		case "S":
			result[key] = &types.AttributeValueMemberS{Value: data}
		case "N":
			result[key] = &types.AttributeValueMemberN{Value: data}
		case "B":
			decoded, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode binary data for key %s: %w", key, err)
			}
			result[key] = &types.AttributeValueMemberB{Value: decoded}
		default:
			return nil, fmt.Errorf("unsupported attribute type prefix: %s", prefix)
		}
	}

	return result, nil
}
