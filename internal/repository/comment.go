package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&comment.AuthorUserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &comment, nil
}

// CreateComment inserts a comment.
func (t *pgTx) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query, args, err := psql.
		Insert("task_comments").
		Columns("task_id", "author_user_id", "content", "created_at").
		Values(comment.TaskID, comment.AuthorUserID, comment.Content, comment.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := t.q.QueryRow(ctx, query, args...).Scan(&comment.ID); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments retrieves the comments of a task, oldest first.
func (t *pgTx) ListComments(ctx context.Context, taskID string) ([]*domain.Comment, error) {
	query, args, err := psql.
		Select("id", "task_id", "author_user_id", "content", "created_at", "updated_at").
		From("task_comments").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return collect(rows, scanComment)
}

// DeleteComments removes every comment of a task.
func (t *pgTx) DeleteComments(ctx context.Context, taskID string) (int64, error) {
	return t.deleteByTask(ctx, "task_comments", taskID)
}
