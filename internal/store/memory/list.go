package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

func (t *memTx) ListTasks(_ context.Context, filter store.TaskFilter) ([]*domain.Task, int, error) {
	var matched []*domain.Task
	for _, task := range t.data.tasks {
		if matchesFilter(task, filter) {
			matched = append(matched, task.Clone())
		}
	}

	slices.SortFunc(matched, func(a, b *domain.Task) int {
		return compareTasks(a, b, filter.Sort)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (t *memTx) CountTasksByStatus(_ context.Context, projectID string) (map[domain.TaskStatus]int, error) {
	counts := make(map[domain.TaskStatus]int, len(domain.TaskStatuses))
	for _, status := range domain.TaskStatuses {
		counts[status] = 0
	}
	for _, task := range t.data.tasks {
		if task.ProjectID == projectID {
			counts[task.Status]++
		}
	}
	return counts, nil
}

func matchesFilter(task *domain.Task, f store.TaskFilter) bool {
	if f.ProjectID != nil && task.ProjectID != *f.ProjectID {
		return false
	}
	if f.Unassigned && task.AssignedToUserID != nil {
		return false
	}
	if !f.Unassigned && f.AssigneeID != nil && !task.IsAssignedTo(*f.AssigneeID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, task.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, task.Priority) {
		return false
	}
	if f.OverdueAt != nil && !task.IsOverdue(*f.OverdueAt) {
		return false
	}
	return true
}

func compareTasks(a, b *domain.Task, sortFields []string) int {
	for _, field := range sortFields {
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")

		var c int
		switch field {
		case store.SortPriority:
			c = cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		case store.SortStatus:
			c = cmp.Compare(a.Status.UrgencyRank(), b.Status.UrgencyRank())
		case store.SortDueDate:
			// Missing due dates sort last in both directions.
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				c = 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			default:
				c = a.DueDate.Compare(*b.DueDate)
			}
		case store.SortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case store.SortUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case store.SortTitle:
			c = strings.Compare(a.Title, b.Title)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
