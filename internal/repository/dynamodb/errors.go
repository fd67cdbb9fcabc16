package dynamodb

import (
	"errors"

	"orchid/internal/repository"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound aliases the store-agnostic sentinel so callers can test
// with repository.IsNotFoundError without knowing the backing store
var ErrNotFound = repository.ErrNotFound

// ErrDuplicateRule indicates that a rule with the same id already exists
var ErrDuplicateRule = errors.New("duplicate rule: rule with same id already exists")

// IsNotFoundError checks if an error indicates a resource was not found
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateRuleError checks if an error indicates a duplicate rule
func IsDuplicateRuleError(err error) bool {
	if errors.Is(err, ErrDuplicateRule) {
		return true
	}
	// Also check for the underlying DynamoDB conditional check failed error
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
