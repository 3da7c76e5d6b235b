// Package store defines the persistence port used by the service layer.
//
// Every write made by one service operation goes through a single Tx and
// commits atomically or not at all. Implementations live in
// internal/repository (PostgreSQL) and internal/store/memory.
package store

import (
	"context"
	"time"

	"github.com/mtlprog/teamtask/internal/domain"
)

// Store opens transactions.
type Store interface {
	// InTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of record operations available inside a transaction.
// Getters return the matching domain Err*NotFound error when a record is absent.
type Tx interface {
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	GetMembership(ctx context.Context, projectID, userID string) (*domain.ProjectMembership, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	// GetTaskForUpdate loads a task and locks its row until the transaction ends.
	GetTaskForUpdate(ctx context.Context, taskID string) (*domain.Task, error)
	// CreateTask populates ID and Version. Zero timestamps are set to now.
	CreateTask(ctx context.Context, task *domain.Task) error
	// UpdateTask writes all mutable fields when task.Version matches the
	// stored version, then increments task.Version. A mismatch returns
	// domain.ErrTaskVersionMismatch.
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	// ListTasks returns one page of matching tasks and the total match count.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, int, error)
	// CountTasksByStatus counts a project's tasks per status.
	CountTasksByStatus(ctx context.Context, projectID string) (map[domain.TaskStatus]int, error)

	CreateHistoryEvent(ctx context.Context, event *domain.HistoryEvent) error
	// LatestHistoryEventAt returns the newest event time of a task, or nil.
	LatestHistoryEventAt(ctx context.Context, taskID string) (*time.Time, error)
	// ListHistoryEvents returns events in insertion order.
	ListHistoryEvents(ctx context.Context, taskID string) ([]*domain.HistoryEvent, error)
	DeleteHistoryEvents(ctx context.Context, taskID string) (int64, error)

	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, taskID string) ([]*domain.Comment, error)
	DeleteComments(ctx context.Context, taskID string) (int64, error)

	CreateAttachment(ctx context.Context, attachment *domain.Attachment) error
	GetAttachment(ctx context.Context, attachmentID string) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, taskID string) ([]*domain.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID string) error
	DeleteAttachments(ctx context.Context, taskID string) (int64, error)

	CreateNotification(ctx context.Context, notification *domain.Notification) error
}

// Sortable task fields accepted in TaskFilter.Sort.
const (
	SortPriority  = "priority"
	SortStatus    = "status"
	SortDueDate   = "due_date"
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortTitle     = "title"
)

// SortFields lists every accepted sort field.
var SortFields = []string{SortPriority, SortStatus, SortDueDate, SortCreatedAt, SortUpdatedAt, SortTitle}

// TaskFilter selects tasks for board and personal listings.
type TaskFilter struct {
	ProjectID  *string
	AssigneeID *string
	Unassigned bool
	Statuses   []domain.TaskStatus
	Priorities []domain.TaskPriority
	// OverdueAt keeps open tasks whose due date is before it.
	OverdueAt *time.Time
	// Sort holds field names, a leading "-" sorts descending. Priority sorts
	// Critical first and status sorts by urgency (Blocked first). Tasks without
	// a due date sort last. Ties are broken by creation time.
	Sort   []string
	Limit  int
	Offset int
}

// NotificationStore is the recipient-facing side of notifications.
// Every method is scoped to the recipient; rows owned by someone else are
// reported as domain.ErrNotificationNotFound.
type NotificationStore interface {
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, recipientID, notificationID string) error
}
