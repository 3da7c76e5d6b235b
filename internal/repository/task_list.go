package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

const (
	priorityRank = "CASE priority WHEN 'Critical' THEN 0 WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 3 END"
	statusRank   = "CASE status WHEN 'Blocked' THEN 0 WHEN 'InProgress' THEN 1 WHEN 'InReview' THEN 2 WHEN 'ToDo' THEN 3 WHEN 'Done' THEN 4 END"
)

// sortExpressions maps sort fields to ORDER BY expressions.
var sortExpressions = map[string]string{
	store.SortPriority:  priorityRank,
	store.SortStatus:    statusRank,
	store.SortDueDate:   "due_date",
	store.SortCreatedAt: "created_at",
	store.SortUpdatedAt: "updated_at",
	store.SortTitle:     "title",
}

// taskFilterWhere converts a filter into a WHERE clause shared by the page and count queries.
func taskFilterWhere(filter store.TaskFilter) sq.And {
	where := sq.And{}

	if filter.ProjectID != nil {
		where = append(where, sq.Eq{"project_id": *filter.ProjectID})
	}

	if filter.Unassigned {
		where = append(where, sq.Eq{"assigned_to_user_id": nil})
	} else if filter.AssigneeID != nil {
		where = append(where, sq.Eq{"assigned_to_user_id": *filter.AssigneeID})
	}

	if len(filter.Statuses) > 0 {
		where = append(where, sq.Eq{"status": filter.Statuses})
	}

	if len(filter.Priorities) > 0 {
		where = append(where, sq.Eq{"priority": filter.Priorities})
	}

	if filter.OverdueAt != nil {
		where = append(where,
			sq.Lt{"due_date": *filter.OverdueAt},
			sq.NotEq{"status": domain.TaskStatusDone},
		)
	}

	return where
}

// orderBy builds ORDER BY terms. Unknown fields are skipped; callers validate them first.
func orderBy(sortFields []string) []string {
	terms := make([]string, 0, len(sortFields)+2)
	for _, field := range sortFields {
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			dir = "DESC"
		}
		expr, ok := sortExpressions[field]
		if !ok {
			continue
		}
		term := expr + " " + dir
		if field == store.SortDueDate {
			term += " NULLS LAST"
		}
		terms = append(terms, term)
	}
	return append(terms, "created_at ASC", "id ASC")
}

// ListTasks retrieves tasks with filters and pagination.
func (t *pgTx) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	where := taskFilterWhere(filter)

	qb := psql.Select(taskColumns...).
		From("tasks").
		Where(where).
		OrderBy(orderBy(filter.Sort)...)
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build ListTasks query: %w", err)
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := collect(rows, scanTask)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("tasks").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := t.q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}
