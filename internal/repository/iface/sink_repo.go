package repository

import (
	"context"

	"orchid/internal/domain"
)

// NotificationRepository stores in-app notifications created by actions
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

// TaskRepository stores back-office tasks created by actions
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
}

// EntityRepository mutates business entities on behalf of
// update_entity_status actions
type EntityRepository interface {
	UpdateStatus(ctx context.Context, entityType, entityID, status string) error
}
