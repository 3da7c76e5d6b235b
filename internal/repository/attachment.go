package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

var attachmentColumns = []string{
	"id", "task_id", "uploaded_by_user_id", "file_name", "file_path", "file_type", "file_size", "uploaded_at",
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(
		&a.ID,
		&a.TaskID,
		&a.UploadedByUserID,
		&a.FileName,
		&a.FilePath,
		&a.FileType,
		&a.FileSize,
		&a.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	return &a, nil
}

// CreateAttachment inserts attachment metadata.
func (t *pgTx) CreateAttachment(ctx context.Context, a *domain.Attachment) error {
	query, args, err := psql.
		Insert("task_attachments").
		Columns("task_id", "uploaded_by_user_id", "file_name", "file_path", "file_type", "file_size", "uploaded_at").
		Values(a.TaskID, a.UploadedByUserID, a.FileName, a.FilePath, a.FileType, a.FileSize, a.UploadedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := t.q.QueryRow(ctx, query, args...).Scan(&a.ID); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// GetAttachment retrieves attachment metadata by ID.
func (t *pgTx) GetAttachment(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	query, args, err := psql.
		Select(attachmentColumns...).
		From("task_attachments").
		Where(sq.Eq{"id": attachmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanAttachment(t.q.QueryRow(ctx, query, args...))
}

// ListAttachments retrieves the attachments of a task, oldest first.
func (t *pgTx) ListAttachments(ctx context.Context, taskID string) ([]*domain.Attachment, error) {
	query, args, err := psql.
		Select(attachmentColumns...).
		From("task_attachments").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("uploaded_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	return collect(rows, scanAttachment)
}

// DeleteAttachment removes one attachment row.
func (t *pgTx) DeleteAttachment(ctx context.Context, attachmentID string) error {
	query, args, err := psql.
		Delete("task_attachments").
		Where(sq.Eq{"id": attachmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

// DeleteAttachments removes every attachment row of a task.
func (t *pgTx) DeleteAttachments(ctx context.Context, taskID string) (int64, error) {
	return t.deleteByTask(ctx, "task_attachments", taskID)
}
