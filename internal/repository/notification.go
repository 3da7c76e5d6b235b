package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

var notificationColumns = []string{
	"id", "recipient_user_id", "message", "type", "project_id", "is_read", "created_at",
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID,
		&n.RecipientUserID,
		&n.Message,
		&n.Type,
		&n.ProjectID,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return &n, nil
}

// CreateNotification stages a notification inside the operation's transaction.
func (t *pgTx) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query, args, err := psql.
		Insert("notifications").
		Columns("recipient_user_id", "message", "type", "project_id", "is_read", "created_at").
		Values(n.RecipientUserID, n.Message, n.Type, n.ProjectID, n.IsRead, n.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := t.q.QueryRow(ctx, query, args...).Scan(&n.ID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient retrieves a user's notifications, newest first.
func (s *Store) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	qb := psql.
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"recipient_user_id": recipientID}).
		OrderBy("created_at DESC", "id DESC")
	if unreadOnly {
		qb = qb.Where(sq.Eq{"is_read": false})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	return collect(rows, scanNotification)
}

// CountUnread counts a user's unread notifications.
func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"recipient_user_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Marking an already read one is not an error.
func (s *Store) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	query, args, err := psql.
		Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"id": notificationID, "recipient_user_id": recipientID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of a user and returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query, args, err := psql.
		Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"recipient_user_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one notification of a user.
func (s *Store) Delete(ctx context.Context, recipientID, notificationID string) error {
	query, args, err := psql.
		Delete("notifications").
		Where(sq.Eq{"id": notificationID, "recipient_user_id": recipientID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
