package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/metrics"
	"github.com/mtlprog/teamtask/internal/store"
)

// Page size limits for task listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var (
	boardSort   = []string{store.SortPriority, store.SortDueDate}
	myTasksSort = []string{store.SortStatus, store.SortPriority, store.SortDueDate}
)

// TaskListParams filters and pages a task listing.
type TaskListParams struct {
	Statuses   []domain.TaskStatus   `json:"status" validate:"dive,task_status"`
	Priorities []domain.TaskPriority `json:"priority" validate:"dive,task_priority"`
	AssigneeID *string               `json:"assignee_id" validate:"omitnil,uuid"`
	Unassigned bool                  `json:"unassigned"`
	Overdue    bool                  `json:"overdue"`
	Sort       []string              `json:"sort" validate:"dive,task_sort"`
	Limit      int                   `json:"limit" validate:"min=0,max=200"`
	Offset     int                   `json:"offset" validate:"min=0"`
}

// Board is a project's task board.
type Board struct {
	Project       *domain.Project
	CanCreateTask bool
	Tasks         []*domain.Task
	Total         int
	StatusCounts  map[domain.TaskStatus]int
}

// ProjectBoard lists a project's tasks. Only project members may read it.
func (s *TaskService) ProjectBoard(
	ctx context.Context,
	actor domain.ActorContext,
	projectID string,
	params TaskListParams,
) (board *Board, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("project_board", start, err) }()

	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		membership, err := loadMembership(ctx, tx, project.ID, actor.UserID)
		if err != nil {
			return err
		}
		if membership == nil {
			return fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, project.ID)
		}

		filter := s.taskFilter(params, boardSort)
		filter.ProjectID = &project.ID

		tasks, total, err := tx.ListTasks(ctx, filter)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		counts, err := tx.CountTasksByStatus(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}

		board = &Board{
			Project:       project,
			CanCreateTask: CapabilitiesFor(actor, membership, nil).CanCreateTask,
			Tasks:         tasks,
			Total:         total,
			StatusCounts:  counts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// MyTasks lists tasks assigned to the actor across projects, most urgent first.
func (s *TaskService) MyTasks(
	ctx context.Context,
	actor domain.ActorContext,
	params TaskListParams,
) (tasks []*domain.Task, total int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("my_tasks", start, err) }()

	if err := s.validator.Struct(params); err != nil {
		return nil, 0, err
	}
	if err := requireActor(actor); err != nil {
		return nil, 0, err
	}

	filter := s.taskFilter(params, myTasksSort)
	filter.AssigneeID = &actor.UserID
	filter.Unassigned = false

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		tasks, total, err = tx.ListTasks(ctx, filter)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *TaskService) taskFilter(params TaskListParams, defaultSort []string) store.TaskFilter {
	filter := store.TaskFilter{
		AssigneeID: params.AssigneeID,
		Unassigned: params.Unassigned,
		Statuses:   params.Statuses,
		Priorities: params.Priorities,
		Sort:       params.Sort,
		Limit:      params.Limit,
		Offset:     params.Offset,
	}
	if len(filter.Sort) == 0 {
		filter.Sort = defaultSort
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultPageSize
	}
	if params.Overdue {
		now := s.clock()
		filter.OverdueAt = &now
	}
	return filter
}
