package domain

import "time"

// HistoryAction represents the type of a task history event.
type HistoryAction string

const (
	HistoryActionCreated           HistoryAction = "Created"
	HistoryActionUpdated           HistoryAction = "Updated"
	HistoryActionStatusChanged     HistoryAction = "StatusChanged"
	HistoryActionAssignedTo        HistoryAction = "AssignedTo"
	HistoryActionCommentAdded      HistoryAction = "CommentAdded"
	HistoryActionAttachmentAdded   HistoryAction = "AttachmentAdded"
	HistoryActionAttachmentDeleted HistoryAction = "AttachmentDeleted"
)

// IsValid checks if the action is one of the allowed values.
func (a HistoryAction) IsValid() bool {
	switch a {
	case HistoryActionCreated, HistoryActionUpdated, HistoryActionStatusChanged,
		HistoryActionAssignedTo, HistoryActionCommentAdded,
		HistoryActionAttachmentAdded, HistoryActionAttachmentDeleted:
		return true
	default:
		return false
	}
}

// Column limits for history values; longer values are truncated.
const (
	MaxHistoryDetailsLength = 500
	MaxHistoryValueLength   = 100
)

// HistoryEvent is an immutable audit record of one task mutation.
type HistoryEvent struct {
	ID          string
	TaskID      string
	ActorUserID string
	Action      HistoryAction
	Details     *string
	OldValue    *string
	NewValue    *string
	CreatedAt   time.Time
}
