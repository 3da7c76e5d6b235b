package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/teamtask/internal/cache"
	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/metrics"
	"github.com/mtlprog/teamtask/internal/store"
)

// NotificationService is the recipient-facing side of notifications.
type NotificationService struct {
	store  store.NotificationStore
	unread cache.UnreadCounts
}

// NewNotificationService creates a NotificationService. unread may be nil.
func NewNotificationService(st store.NotificationStore, unread cache.UnreadCounts) *NotificationService {
	return &NotificationService{store: st, unread: unread}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor domain.ActorContext, unreadOnly bool) (_ []*domain.Notification, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("list_notifications", start, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.ListByRecipient(ctx, actor.UserID, unreadOnly)
}

// MarkRead flags one notification of the actor as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.ActorContext, notificationID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("mark_notification_read", start, err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, actor.UserID, notificationID); err != nil {
		return err
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

// MarkAllRead flags every unread notification of the actor and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.ActorContext) (_ int64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("mark_all_notifications_read", start, err) }()

	if err := requireActor(actor); err != nil {
		return 0, err
	}
	count, err := s.store.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, actor.UserID)

	slog.Info("notifications marked read", "user_id", actor.UserID, "count", count)
	return count, nil
}

// Delete removes one notification of the actor.
func (s *NotificationService) Delete(ctx context.Context, actor domain.ActorContext, notificationID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("delete_notification", start, err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, actor.UserID, notificationID); err != nil {
		return err
	}
	s.invalidate(ctx, actor.UserID)
	return nil
}

// UnreadCount returns how many unread notifications the actor has.
// Cache failures fall back to the store.
func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.ActorContext) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	var (
		generation int64
		cacheable  bool
	)
	if s.unread != nil {
		count, ok, err := s.unread.Get(ctx, actor.UserID)
		switch {
		case err != nil:
			metrics.ObserveUnreadCache("error")
			slog.Warn("unread count cache lookup failed", "user_id", actor.UserID, "error", err)
		case ok:
			metrics.ObserveUnreadCache("hit")
			return count, nil
		default:
			metrics.ObserveUnreadCache("miss")
			generation, err = s.unread.Generation(ctx, actor.UserID)
			if err != nil {
				slog.Warn("unread count generation lookup failed", "user_id", actor.UserID, "error", err)
			} else {
				cacheable = true
			}
		}
	}

	count, err := s.store.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}

	if cacheable {
		if err := s.unread.Set(ctx, actor.UserID, generation, count); err != nil {
			slog.Warn("failed to cache unread count", "user_id", actor.UserID, "error", err)
		}
	}
	return count, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID string) {
	if s.unread == nil {
		return
	}
	if err := s.unread.Invalidate(ctx, userID); err != nil {
		slog.Warn("failed to invalidate unread count", "user_id", userID, "error", err)
	}
}
