package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mtlprog/teamtask/internal/domain"
)

// CountTasksByStatus counts a project's tasks per status. Every status is present in the result.
func (t *pgTx) CountTasksByStatus(ctx context.Context, projectID string) (map[domain.TaskStatus]int, error) {
	query, args, err := psql.
		Select("status", "COUNT(*)").
		From("tasks").
		Where(sq.Eq{"project_id": projectID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build CountTasksByStatus query: %w", err)
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int, len(domain.TaskStatuses))
	for _, status := range domain.TaskStatuses {
		counts[status] = 0
	}

	for rows.Next() {
		var status domain.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	return counts, nil
}
