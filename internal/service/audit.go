package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

const unassignedLabel = "unassigned"

// appendHistory records events for one task operation. All events share a
// single timestamp that is never earlier than the task's latest event.
func appendHistory(
	ctx context.Context,
	tx store.Tx,
	taskID string,
	now time.Time,
	events []*domain.HistoryEvent,
) error {
	if len(events) == 0 {
		return nil
	}

	latest, err := tx.LatestHistoryEventAt(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get latest history event: %w", err)
	}
	at := now
	if latest != nil && latest.After(at) {
		at = *latest
	}

	for _, event := range events {
		event.TaskID = taskID
		event.CreatedAt = at
		event.Details = truncatePtr(event.Details, domain.MaxHistoryDetailsLength)
		event.OldValue = truncatePtr(event.OldValue, domain.MaxHistoryValueLength)
		event.NewValue = truncatePtr(event.NewValue, domain.MaxHistoryValueLength)

		if err := tx.CreateHistoryEvent(ctx, event); err != nil {
			return fmt.Errorf("create history event: %w", err)
		}
	}
	return nil
}

func newHistoryEvent(actorID string, action domain.HistoryAction, details string) *domain.HistoryEvent {
	return &domain.HistoryEvent{
		ActorUserID: actorID,
		Action:      action,
		Details:     &details,
	}
}

func createdEvent(actorID string) *domain.HistoryEvent {
	return newHistoryEvent(actorID, domain.HistoryActionCreated, "Task created")
}

func updatedEvent(actorID string, changes []string) *domain.HistoryEvent {
	return newHistoryEvent(actorID, domain.HistoryActionUpdated, strings.Join(changes, ", "))
}

func statusChangedEvent(actorID string, change *StatusChange) *domain.HistoryEvent {
	event := newHistoryEvent(actorID, domain.HistoryActionStatusChanged, "Status changed")
	from, to := string(change.From), string(change.To)
	event.OldValue = &from
	event.NewValue = &to
	return event
}

// assignedEvent records a reassignment using logins; an empty login means unassigned.
func assignedEvent(actorID, oldLogin, newLogin string) *domain.HistoryEvent {
	event := newHistoryEvent(actorID, domain.HistoryActionAssignedTo, "Assignment changed")
	if oldLogin == "" {
		oldLogin = unassignedLabel
	}
	if newLogin == "" {
		newLogin = unassignedLabel
	}
	event.OldValue = &oldLogin
	event.NewValue = &newLogin
	return event
}

func commentAddedEvent(actorID string) *domain.HistoryEvent {
	return newHistoryEvent(actorID, domain.HistoryActionCommentAdded, "Comment added")
}

func attachmentAddedEvent(actorID, fileName string) *domain.HistoryEvent {
	return newHistoryEvent(actorID, domain.HistoryActionAttachmentAdded, "Attachment added: "+fileName)
}

func attachmentDeletedEvent(actorID, fileName string) *domain.HistoryEvent {
	return newHistoryEvent(actorID, domain.HistoryActionAttachmentDeleted, "Attachment deleted: "+fileName)
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func truncatePtr(s *string, limit int) *string {
	if s == nil {
		return nil
	}
	v := truncate(*s, limit)
	return &v
}
