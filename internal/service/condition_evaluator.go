package service

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"orchid/internal/domain"
	"orchid/internal/logger"

	"github.com/expr-lang/expr"
)

// ConditionEvaluator evaluates rule conditions against an event.
// Malformed conditions (unknown operator, bad expression, non-list value
// for a membership test) evaluate to the operator's "not matched" default
// rather than aborting the batch.
type ConditionEvaluator interface {
	EvaluateAll(ctx context.Context, conditions []domain.Condition, event *domain.TriggerContext) bool
	Evaluate(ctx context.Context, condition domain.Condition, event *domain.TriggerContext) bool
}

type conditionEvaluator struct {
	logger logger.Logger
}

// NewConditionEvaluator creates a new condition evaluator
func NewConditionEvaluator(log logger.Logger) ConditionEvaluator {
	return &conditionEvaluator{
		logger: log.With(logger.String("component", "condition_evaluator")),
	}
}

// EvaluateAll combines a condition list into a single boolean. An empty
// list matches unconditionally. The list evaluates left to right with no
// operator precedence: the logic operator stored on condition i-1 decides
// how condition i attaches to the running result.
func (e *conditionEvaluator) EvaluateAll(ctx context.Context, conditions []domain.Condition, event *domain.TriggerContext) bool {
	if len(conditions) == 0 {
		return true
	}

	result := e.Evaluate(ctx, conditions[0], event)
	for i := 1; i < len(conditions); i++ {
		passed := e.Evaluate(ctx, conditions[i], event)
		if conditions[i-1].Logic == domain.LogicOr {
			result = result || passed
		} else {
			result = result && passed
		}
	}

	return result
}

// Evaluate evaluates a single condition
func (e *conditionEvaluator) Evaluate(ctx context.Context, condition domain.Condition, event *domain.TriggerContext) bool {
	if condition.Operator == domain.OperatorExpression {
		return e.evaluateExpression(condition, event)
	}

	fieldValue, found := ResolveField(event.Data, condition.Field)

	switch condition.Operator {
	case domain.OperatorEquals:
		return valuesEqual(fieldValue, condition.Value)
	case domain.OperatorNotEquals:
		return !valuesEqual(fieldValue, condition.Value)
	case domain.OperatorContains:
		return containsValue(fieldValue, condition.Value)
	case domain.OperatorNotContains:
		return !containsValue(fieldValue, condition.Value)
	case domain.OperatorGreaterThan:
		return compareNumeric(fieldValue, condition.Value, func(a, b float64) bool { return a > b })
	case domain.OperatorLessThan:
		return compareNumeric(fieldValue, condition.Value, func(a, b float64) bool { return a < b })
	case domain.OperatorGreaterOrEqual:
		return compareNumeric(fieldValue, condition.Value, func(a, b float64) bool { return a >= b })
	case domain.OperatorLessOrEqual:
		return compareNumeric(fieldValue, condition.Value, func(a, b float64) bool { return a <= b })
	case domain.OperatorIn:
		return inList(fieldValue, condition.Value)
	case domain.OperatorNotIn:
		return !inList(fieldValue, condition.Value)
	case domain.OperatorIsNull:
		return !found || fieldValue == nil
	case domain.OperatorIsNotNull:
		return found && fieldValue != nil
	default:
		e.logger.Warn("unknown condition operator",
			logger.String("operator", string(condition.Operator)),
			logger.String("field", condition.Field))
		return false
	}
}

// evaluateExpression evaluates the condition value as an expr-lang program
// against the event data. Anything other than a clean boolean result counts
// as not matched.
func (e *conditionEvaluator) evaluateExpression(condition domain.Condition, event *domain.TriggerContext) bool {
	expression, ok := condition.Value.(string)
	if !ok {
		e.logger.Warn("expression condition value is not a string")
		return false
	}

	env := make(map[string]interface{}, len(event.Data)+3)
	for k, v := range event.Data {
		env[k] = v
	}
	env["trigger_type"] = string(event.TriggerType)
	env["entity_type"] = event.EntityType
	env["entity_id"] = event.EntityID

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		e.logger.Warn("failed to compile expression",
			logger.String("expression", expression),
			logger.Error(err))
		return false
	}

	result, err := expr.Run(program, env)
	if err != nil {
		e.logger.Warn("failed to evaluate expression",
			logger.String("expression", expression),
			logger.Error(err))
		return false
	}

	boolResult, ok := result.(bool)
	if !ok {
		e.logger.Warn("expression did not return boolean",
			logger.String("expression", expression))
		return false
	}

	return boolResult
}

// valuesEqual implements strict equality, normalizing mixed numeric types
// the way JSON decoding produces them (float64 vs int). Strings never
// coerce to numbers here; "5" is not equal to 5.
func valuesEqual(a, b interface{}) bool {
	if na, oka := asNumber(a); oka {
		nb, okb := asNumber(b)
		return okb && na == nb
	}
	return reflect.DeepEqual(a, b)
}

// asNumber converts genuine numeric types to float64, never strings
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// containsValue implements the contains operator: case-insensitive substring
// for strings, element membership for lists, false for anything else
func containsValue(fieldValue, target interface{}) bool {
	switch v := fieldValue.(type) {
	case string:
		needle, ok := target.(string)
		if !ok {
			needle = stringify(target)
		}
		return strings.Contains(strings.ToLower(v), strings.ToLower(needle))
	case []interface{}:
		for _, item := range v {
			if valuesEqual(item, target) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// inList implements the in operator: membership of the field value inside
// a list-typed condition value. A non-list value never matches.
func inList(fieldValue, listValue interface{}) bool {
	list, ok := listValue.([]interface{})
	if !ok {
		return false
	}
	for _, item := range list {
		if valuesEqual(fieldValue, item) {
			return true
		}
	}
	return false
}

// compareNumeric coerces both sides to numeric and applies cmp.
// A side that does not coerce makes the comparison false.
func compareNumeric(a, b interface{}, cmp func(a, b float64) bool) bool {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	if !oka || !okb {
		return false
	}
	return cmp(na, nb)
}

// toFloat64 coerces values for ordering comparisons: genuine numerics
// plus numeric strings. Anything else never compares true.
func toFloat64(v interface{}) (float64, bool) {
	if n, ok := asNumber(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}
