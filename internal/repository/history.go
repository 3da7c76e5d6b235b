package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

var historyColumns = []string{
	"id", "task_id", "actor_user_id", "action", "details", "old_value", "new_value", "created_at",
}

func scanHistoryEvent(row pgx.Row) (*domain.HistoryEvent, error) {
	var event domain.HistoryEvent
	err := row.Scan(
		&event.ID,
		&event.TaskID,
		&event.ActorUserID,
		&event.Action,
		&event.Details,
		&event.OldValue,
		&event.NewValue,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan history event: %w", err)
	}
	return &event, nil
}

// CreateHistoryEvent appends an audit record.
func (t *pgTx) CreateHistoryEvent(ctx context.Context, event *domain.HistoryEvent) error {
	query, args, err := psql.
		Insert("task_history").
		Columns("task_id", "actor_user_id", "action", "details", "old_value", "new_value", "created_at").
		Values(event.TaskID, event.ActorUserID, event.Action, event.Details, event.OldValue, event.NewValue, event.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := t.q.QueryRow(ctx, query, args...).Scan(&event.ID); err != nil {
		return fmt.Errorf("create history event: %w", err)
	}
	return nil
}

// LatestHistoryEventAt returns the newest event timestamp of a task, or nil without events.
func (t *pgTx) LatestHistoryEventAt(ctx context.Context, taskID string) (*time.Time, error) {
	query, args, err := psql.
		Select("MAX(created_at)").
		From("task_history").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var latest *time.Time
	if err := t.q.QueryRow(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("query latest history event: %w", err)
	}
	return latest, nil
}

// ListHistoryEvents retrieves all events for a task in insertion order.
func (t *pgTx) ListHistoryEvents(ctx context.Context, taskID string) ([]*domain.HistoryEvent, error) {
	query, args, err := psql.
		Select(historyColumns...).
		From("task_history").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history events: %w", err)
	}
	return collect(rows, scanHistoryEvent)
}

// DeleteHistoryEvents removes every event of a task.
func (t *pgTx) DeleteHistoryEvents(ctx context.Context, taskID string) (int64, error) {
	return t.deleteByTask(ctx, "task_history", taskID)
}

// deleteByTask removes the rows of a child table that belong to one task.
func (t *pgTx) deleteByTask(ctx context.Context, table, taskID string) (int64, error) {
	query, args, err := psql.
		Delete(table).
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query for %s: %w", table, err)
	}

	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}
