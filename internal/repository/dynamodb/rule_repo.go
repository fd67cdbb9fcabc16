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

type ruleRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewRuleRepository creates a new DynamoDB rule repository
func NewRuleRepository(client *dynamodb.Client, log logger.Logger) repository.RuleRepository {
	return &ruleRepository{
		client:    client,
		tableName: "automation_rules",
		logger:    log.With(logger.String("component", "rule_repository")),
	}
}

func (r *ruleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	r.logger.Debug("creating rule",
		logger.String("rule_id", rule.RuleID),
		logger.String("name", rule.Name))

	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		r.logger.Error("failed to marshal rule", logger.Error(err))
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(rule_id)"),
	})

	if err != nil {
		if IsDuplicateRuleError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.RuleID)
		}
		r.logger.Error("failed to create rule", logger.Error(err))
		return fmt.Errorf("failed to create rule: %w", err)
	}

	r.logger.Info("rule created",
		logger.String("rule_id", rule.RuleID),
		logger.String("trigger_type", string(rule.TriggerType)))

	return nil
}

func (r *ruleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	r.logger.Debug("updating rule",
		logger.String("rule_id", rule.RuleID))

	rule.UpdatedAt = time.Now().UnixMilli()

	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to update rule", logger.Error(err))
		return fmt.Errorf("failed to update rule: %w", err)
	}

	r.logger.Info("rule updated",
		logger.String("rule_id", rule.RuleID))

	return nil
}

func (r *ruleRepository) Delete(ctx context.Context, ruleID string) error {
	r.logger.Debug("deleting rule",
		logger.String("rule_id", ruleID))

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"rule_id": &types.AttributeValueMemberS{Value: ruleID},
		},
	})

	if err != nil {
		r.logger.Error("failed to delete rule", logger.Error(err))
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	r.logger.Info("rule deleted",
		logger.String("rule_id", ruleID))

	return nil
}

func (r *ruleRepository) GetByID(ctx context.Context, ruleID string) (*domain.Rule, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"rule_id": &types.AttributeValueMemberS{Value: ruleID},
		},
	})

	if err != nil {
		r.logger.Error("failed to get rule", logger.Error(err))
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ruleID)
	}

	var rule domain.Rule
	if err := attributevalue.UnmarshalMap(result.Item, &rule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule: %w", err)
	}

	return &rule, nil
}

func (r *ruleRepository) FindActiveRules(ctx context.Context, triggerType domain.TriggerType) ([]*domain.Rule, error) {
	r.logger.Debug("finding active rules",
		logger.String("trigger_type", string(triggerType)))

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("trigger_type_index"),
		KeyConditionExpression: aws.String("trigger_type = :type"),
		FilterExpression:       aws.String("is_active = :active"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":type":   &types.AttributeValueMemberS{Value: string(triggerType)},
			":active": &types.AttributeValueMemberBOOL{Value: true},
		},
	})

	if err != nil {
		r.logger.Error("failed to query rules", logger.Error(err))
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	rules := make([]*domain.Rule, 0, len(result.Items))
	for _, item := range result.Items {
		var rule domain.Rule
		if err := attributevalue.UnmarshalMap(item, &rule); err != nil {
			r.logger.Warn("failed to unmarshal rule", logger.Error(err))
			continue
		}
		rules = append(rules, &rule)
	}

	r.logger.Debug("active rules retrieved",
		logger.String("trigger_type", string(triggerType)),
		logger.Int("count", len(rules)))

	return rules, nil
}

func (r *ruleRepository) List(ctx context.Context, limit int, nextToken string) (*repository.RulePaginationResult, error) {
	r.logger.Debug("listing rules",
		logger.Int("limit", limit))

	scanInput := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(int32(limit)),
	}

	if nextToken != "" {
		exclusiveStartKey, err := decodeNextToken(nextToken)
		if err != nil {
			return nil, fmt.Errorf("invalid next token: %w", err)
		}
		scanInput.ExclusiveStartKey = exclusiveStartKey
	}

	result, err := r.client.Scan(ctx, scanInput)
	if err != nil {
		r.logger.Error("failed to list rules", logger.Error(err))
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]*domain.Rule, 0, len(result.Items))
	for _, item := range result.Items {
		var rule domain.Rule
		if err := attributevalue.UnmarshalMap(item, &rule); err != nil {
			r.logger.Warn("failed to unmarshal rule", logger.Error(err))
			continue
		}
		rules = append(rules, &rule)
	}

	var encodedNextToken string
	if result.LastEvaluatedKey != nil {
		encodedNextToken, err = encodeNextToken(result.LastEvaluatedKey)
		if err != nil {
			r.logger.Warn("failed to encode next token", logger.Error(err))
		}
	}

	return &repository.RulePaginationResult{
		Rules:     rules,
		NextToken: encodedNextToken,
	}, nil
}

func (r *ruleRepository) IncrementStats(ctx context.Context, ruleID string, ok bool, errorMessage string) error {
	now := time.Now().UnixMilli()

	updateExpr := "SET execution_count = if_not_exists(execution_count, :zero) + :one, last_executed_at = :now, last_error = :err"
	lastError := errorMessage
	if ok {
		lastError = ""
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"rule_id": &types.AttributeValueMemberS{Value: ruleID},
		},
		UpdateExpression: aws.String(updateExpr),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":now":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			":err":  &types.AttributeValueMemberS{Value: lastError},
		},
	})

	if err != nil {
		r.logger.Error("failed to increment rule stats",
			logger.String("rule_id", ruleID),
			logger.Error(err))
		return fmt.Errorf("failed to increment rule stats: %w", err)
	}

	return nil
}
