package domain

import "time"

// TaskStatus represents the board column a task sits in.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "ToDo"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusInReview   TaskStatus = "InReview"
	TaskStatusDone       TaskStatus = "Done"
	TaskStatusBlocked    TaskStatus = "Blocked"
)

// TaskStatuses lists every status in board order.
var TaskStatuses = []TaskStatus{
	TaskStatusToDo,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusDone,
	TaskStatusBlocked,
}

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusInReview,
		TaskStatusDone, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// UrgencyRank orders statuses for personal task lists, most urgent first.
func (s TaskStatus) UrgencyRank() int {
	switch s {
	case TaskStatusBlocked:
		return 0
	case TaskStatusInProgress:
		return 1
	case TaskStatusInReview:
		return 2
	case TaskStatusToDo:
		return 3
	case TaskStatusDone:
		return 4
	default:
		return 5
	}
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "Low"
	TaskPriorityMedium   TaskPriority = "Medium"
	TaskPriorityHigh     TaskPriority = "High"
	TaskPriorityCritical TaskPriority = "Critical"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	default:
		return false
	}
}

// Rank orders priorities, Critical first.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityCritical:
		return 0
	case TaskPriorityHigh:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 3
	default:
		return 4
	}
}

// TaskPriorities lists every priority, Critical first.
var TaskPriorities = []TaskPriority{
	TaskPriorityCritical,
	TaskPriorityHigh,
	TaskPriorityMedium,
	TaskPriorityLow,
}

// Field limits shared by validation and storage.
const (
	MaxTitleLength       = 200
	MinTitleLength       = 3
	MaxDescriptionLength = 2000
	MaxTagsLength        = 50
	MaxHours             = 1000
)

// Task is a unit of work inside a project.
type Task struct {
	ID                 string
	ProjectID          string
	Title              string
	Description        *string
	Status             TaskStatus
	Priority           TaskPriority
	AssignedToUserID   *string
	CreatedByUserID    string
	DueDate            *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	ProgressPercentage int
	EstimatedHours     int
	ActualHours        int
	Tags               *string
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAssignedTo checks if the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToUserID != nil && *t.AssignedToUserID == userID
}

// IsCreatedBy checks if the task was created by the given user.
func (t *Task) IsCreatedBy(userID string) bool {
	return t.CreatedByUserID == userID
}

// IsOverdue reports whether an open task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusDone && t.DueDate != nil && t.DueDate.Before(now)
}

// Clone returns a copy that shares no pointers with t.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = cloneString(t.Description)
	c.AssignedToUserID = cloneString(t.AssignedToUserID)
	c.Tags = cloneString(t.Tags)
	c.DueDate = cloneTime(t.DueDate)
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
