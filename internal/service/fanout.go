package service

import (
	"fmt"

	"github.com/mtlprog/teamtask/internal/domain"
)

// FanoutKind names the domain events that can notify users.
type FanoutKind string

const (
	FanoutTaskCreated  FanoutKind = "task_created"
	FanoutReassigned   FanoutKind = "reassigned"
	FanoutCommentAdded FanoutKind = "comment_added"
)

// FanoutEvent is one logical event to compute recipients for.
type FanoutEvent struct {
	Kind        FanoutKind
	ActorUserID string
	// PreviousAssigneeID is the assignee before a reassignment.
	PreviousAssigneeID *string
}

// Recipient is one notification to stage.
type Recipient struct {
	UserID  string
	Message string
	Type    domain.NotificationType
}

// Fanout returns the notifications event causes, at most one per user.
// task must already carry its post-event state.
func Fanout(event FanoutEvent, task *domain.Task, project *domain.Project) []Recipient {
	projectName := ""
	if project != nil {
		projectName = project.Name
	}

	var candidates []Recipient
	switch event.Kind {
	case FanoutTaskCreated:
		if task.AssignedToUserID != nil {
			candidates = append(candidates, Recipient{
				UserID:  *task.AssignedToUserID,
				Message: fmt.Sprintf("You have been assigned a new task '%s' in project '%s'", task.Title, projectName),
				Type:    domain.NotificationTypeInfo,
			})
		}
	case FanoutReassigned:
		newAssignee := task.AssignedToUserID
		if newAssignee != nil && (event.PreviousAssigneeID == nil || *event.PreviousAssigneeID != *newAssignee) {
			candidates = append(candidates, Recipient{
				UserID:  *newAssignee,
				Message: fmt.Sprintf("You have been assigned task '%s' in project '%s'", task.Title, projectName),
				Type:    domain.NotificationTypeInfo,
			})
		}
	case FanoutCommentAdded:
		message := fmt.Sprintf("New comment on task '%s'", task.Title)
		if task.AssignedToUserID != nil && *task.AssignedToUserID != event.ActorUserID {
			candidates = append(candidates, Recipient{
				UserID:  *task.AssignedToUserID,
				Message: message,
				Type:    domain.NotificationTypeInfo,
			})
		}
		if task.CreatedByUserID != event.ActorUserID {
			candidates = append(candidates, Recipient{
				UserID:  task.CreatedByUserID,
				Message: message,
				Type:    domain.NotificationTypeInfo,
			})
		}
	}

	return dedupRecipients(candidates)
}

func dedupRecipients(candidates []Recipient) []Recipient {
	seen := make(map[string]bool, len(candidates))
	out := make([]Recipient, 0, len(candidates))
	for _, r := range candidates {
		if r.UserID == "" || seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		r.Message = truncate(r.Message, domain.MaxNotificationMessageLength)
		out = append(out, r)
	}
	return out
}
