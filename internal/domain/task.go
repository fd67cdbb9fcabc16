package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a back-office task
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "OPEN"
	TaskStatusDone TaskStatus = "DONE"
)

// Task represents a back-office task created by a create_task action
type Task struct {
	TaskID     string     `json:"task_id" dynamodbav:"task_id"`
	Title      string     `json:"title" dynamodbav:"title"`
	Notes      string     `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	Assignee   string     `json:"assignee,omitempty" dynamodbav:"assignee,omitempty"`
	EntityType string     `json:"entity_type,omitempty" dynamodbav:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty" dynamodbav:"entity_id,omitempty"`
	Status     TaskStatus `json:"status" dynamodbav:"status"`
	CreatedAt  int64      `json:"created_at" dynamodbav:"created_at"`
}

// NewTask creates an open task
func NewTask(title, notes, assignee, entityType, entityID string) *Task {
	return &Task{
		TaskID:     uuid.New().String(),
		Title:      title,
		Notes:      notes,
		Assignee:   assignee,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     TaskStatusOpen,
		CreatedAt:  time.Now().UnixMilli(),
	}
}

// Notification represents an in-app notification created by a
// send_notification action
type Notification struct {
	NotificationID string `json:"notification_id" dynamodbav:"notification_id"`
	Recipient      string `json:"recipient" dynamodbav:"recipient"`
	Title          string `json:"title" dynamodbav:"title"`
	Body           string `json:"body,omitempty" dynamodbav:"body,omitempty"`
	Read           bool   `json:"read" dynamodbav:"read"`
	CreatedAt      int64  `json:"created_at" dynamodbav:"created_at"`
}

// NewNotification creates an unread notification
func NewNotification(recipient, title, body string) *Notification {
	return &Notification{
		NotificationID: uuid.New().String(),
		Recipient:      recipient,
		Title:          title,
		Body:           body,
		CreatedAt:      time.Now().UnixMilli(),
	}
}
