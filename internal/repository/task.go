package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "project_id", "title", "description", "status", "priority",
	"assigned_to_user_id", "created_by_user_id", "due_date", "started_at",
	"completed_at", "progress_percentage", "estimated_hours", "actual_hours",
	"tags", "version", "created_at", "updated_at",
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AssignedToUserID,
		&task.CreatedByUserID,
		&task.DueDate,
		&task.StartedAt,
		&task.CompletedAt,
		&task.ProgressPercentage,
		&task.EstimatedHours,
		&task.ActualHours,
		&task.Tags,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// GetTask retrieves a task by ID.
func (t *pgTx) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetTask query: %w", err)
	}

	return scanTask(t.q.QueryRow(ctx, query, args...))
}

// GetTaskForUpdate retrieves a task by ID with FOR UPDATE lock.
func (t *pgTx) GetTaskForUpdate(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetTaskForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(t.q.QueryRow(ctx, query, args...))
}

// CreateTask inserts a task and populates its ID and version.
func (t *pgTx) CreateTask(ctx context.Context, task *domain.Task) error {
	createdAt := any(task.CreatedAt)
	if task.CreatedAt.IsZero() {
		createdAt = sq.Expr("NOW()")
	}
	updatedAt := any(task.UpdatedAt)
	if task.UpdatedAt.IsZero() {
		updatedAt = sq.Expr("NOW()")
	}

	query, args, err := psql.
		Insert("tasks").
		Columns(
			"project_id", "title", "description", "status", "priority",
			"assigned_to_user_id", "created_by_user_id", "due_date", "started_at",
			"completed_at", "progress_percentage", "estimated_hours", "actual_hours",
			"tags", "version", "created_at", "updated_at",
		).
		Values(
			task.ProjectID,
			task.Title,
			task.Description,
			task.Status,
			task.Priority,
			task.AssignedToUserID,
			task.CreatedByUserID,
			task.DueDate,
			task.StartedAt,
			task.CompletedAt,
			task.ProgressPercentage,
			task.EstimatedHours,
			task.ActualHours,
			task.Tags,
			1,
			createdAt,
			updatedAt,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build CreateTask query: %w", err)
	}

	err = t.q.QueryRow(ctx, query, args...).Scan(&task.ID, &task.Version, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateTask writes every mutable field with optimistic locking on version.
// Returns ErrTaskVersionMismatch if the row changed since it was read.
func (t *pgTx) UpdateTask(ctx context.Context, task *domain.Task) error {
	query, args, err := psql.
		Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("status", task.Status).
		Set("priority", task.Priority).
		Set("assigned_to_user_id", task.AssignedToUserID).
		Set("due_date", task.DueDate).
		Set("started_at", task.StartedAt).
		Set("completed_at", task.CompletedAt).
		Set("progress_percentage", task.ProgressPercentage).
		Set("estimated_hours", task.EstimatedHours).
		Set("actual_hours", task.ActualHours).
		Set("tags", task.Tags).
		Set("updated_at", task.UpdatedAt).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{
			"id":      task.ID,
			"version": task.Version,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateTask query for task %s: %w", task.ID, err)
	}

	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := t.GetTask(ctx, task.ID); err != nil {
			return err
		}
		return domain.ErrTaskVersionMismatch
	}

	task.Version++
	return nil
}

// DeleteTask removes a task row.
func (t *pgTx) DeleteTask(ctx context.Context, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build DeleteTask query for task %s: %w", taskID, err)
	}

	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
