package service

import (
	"time"

	"github.com/mtlprog/teamtask/internal/domain"
)

// StatusChange describes the field updates a status transition requires.
// Nil pointers mean the field is left as it is.
type StatusChange struct {
	From        domain.TaskStatus
	To          domain.TaskStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	Progress    *int
}

// PlanStatusChange computes the side effects of moving task to status to.
// It returns false when the status does not change, in which case nothing
// must be written or recorded. Any status may follow any other.
func PlanStatusChange(task *domain.Task, to domain.TaskStatus, now time.Time) (*StatusChange, bool) {
	if task.Status == to {
		return nil, false
	}

	change := &StatusChange{From: task.Status, To: to}

	switch to {
	case domain.TaskStatusInProgress:
		if task.StartedAt == nil {
			startedAt := now
			change.StartedAt = &startedAt
		}
	case domain.TaskStatusDone:
		if task.CompletedAt == nil {
			completedAt := now
			change.CompletedAt = &completedAt
		}
		progress := 100
		change.Progress = &progress
	case domain.TaskStatusToDo, domain.TaskStatusInReview, domain.TaskStatusBlocked:
		// Leaving Done keeps completedAt and progress.
	}

	return change, true
}

// ApplyTo writes the planned effects onto task.
func (c *StatusChange) ApplyTo(task *domain.Task) {
	task.Status = c.To
	if c.StartedAt != nil {
		task.StartedAt = c.StartedAt
	}
	if c.CompletedAt != nil {
		task.CompletedAt = c.CompletedAt
	}
	if c.Progress != nil {
		task.ProgressPercentage = *c.Progress
	}
}

// EnforceCompletion keeps a Done task at 100% progress after field edits.
func EnforceCompletion(task *domain.Task, now time.Time) {
	if task.Status != domain.TaskStatusDone {
		return
	}
	task.ProgressPercentage = 100
	if task.CompletedAt == nil {
		completedAt := now
		task.CompletedAt = &completedAt
	}
}
