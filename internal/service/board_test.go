package service_test

import (
	"context"
	"time"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/service"
	"github.com/mtlprog/teamtask/internal/store"
)

func (s *TaskServiceTestSuite) createBoardTask(title string, priority domain.TaskPriority, assignee *string, due *time.Time) *domain.Task {
	res, err := s.taskService.CreateTask(context.Background(), s.lead, s.projectID, service.CreateTaskParams{
		Title:            title,
		Priority:         priority,
		AssignedToUserID: assignee,
		DueDate:          due,
	})
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	return res.Task
}

func (s *TaskServiceTestSuite) TestProjectBoard_DefaultOrderAndCounts() {
	ctx := context.Background()
	soon := s.clock.Now().Add(48 * time.Hour)
	later := s.clock.Now().Add(96 * time.Hour)

	low := s.createBoardTask("Tidy wiki", domain.TaskPriorityLow, nil, nil)
	highLater := s.createBoardTask("Ship beta", domain.TaskPriorityHigh, &s.memberID, &later)
	highSoon := s.createBoardTask("Fix login", domain.TaskPriorityHigh, &s.memberID, &soon)
	critical := s.createBoardTask("Outage", domain.TaskPriorityCritical, nil, nil)

	_, err := s.taskService.ChangeStatus(ctx, s.member, highSoon.ID, domain.TaskStatusInProgress)
	s.Require().NoError(err)

	board, err := s.taskService.ProjectBoard(ctx, s.member, s.projectID, service.TaskListParams{})
	s.Require().NoError(err)

	s.Equal("Apollo", board.Project.Name)
	s.False(board.CanCreateTask)
	s.Equal(4, board.Total)
	s.Require().Len(board.Tasks, 4)
	s.Equal([]string{critical.ID, highSoon.ID, highLater.ID, low.ID}, taskIDs(board.Tasks))

	s.Equal(3, board.StatusCounts[domain.TaskStatusToDo])
	s.Equal(1, board.StatusCounts[domain.TaskStatusInProgress])
	s.Equal(0, board.StatusCounts[domain.TaskStatusDone])

	leadBoard, err := s.taskService.ProjectBoard(ctx, s.lead, s.projectID, service.TaskListParams{})
	s.Require().NoError(err)
	s.True(leadBoard.CanCreateTask)
}

func (s *TaskServiceTestSuite) TestProjectBoard_FiltersAndPaging() {
	ctx := context.Background()
	past := s.clock.Now().Add(-time.Hour)

	s.createBoardTask("Alpha", domain.TaskPriorityMedium, &s.memberID, nil)
	overdue := s.createBoardTask("Beta", domain.TaskPriorityMedium, nil, &past)
	s.createBoardTask("Gamma", domain.TaskPriorityMedium, nil, nil)

	board, err := s.taskService.ProjectBoard(ctx, s.lead, s.projectID, service.TaskListParams{Unassigned: true})
	s.Require().NoError(err)
	s.Equal(2, board.Total)

	board, err = s.taskService.ProjectBoard(ctx, s.lead, s.projectID, service.TaskListParams{Overdue: true})
	s.Require().NoError(err)
	s.Equal([]string{overdue.ID}, taskIDs(board.Tasks))

	board, err = s.taskService.ProjectBoard(ctx, s.lead, s.projectID, service.TaskListParams{
		Sort:   []string{"-" + store.SortTitle},
		Limit:  1,
		Offset: 1,
	})
	s.Require().NoError(err)
	s.Equal(3, board.Total)
	s.Require().Len(board.Tasks, 1)
	s.Equal("Beta", board.Tasks[0].Title)
}

func (s *TaskServiceTestSuite) TestProjectBoard_Rejections() {
	ctx := context.Background()

	_, err := s.taskService.ProjectBoard(ctx, s.outsider, s.projectID, service.TaskListParams{})
	s.ErrorIs(err, domain.ErrNotProjectMember)

	_, err = s.taskService.ProjectBoard(ctx, s.lead, "00000000-0000-0000-0000-000000000404", service.TaskListParams{})
	s.ErrorIs(err, domain.ErrProjectNotFound)

	_, err = s.taskService.ProjectBoard(ctx, s.lead, s.projectID, service.TaskListParams{
		Sort:     []string{"password"},
		Statuses: []domain.TaskStatus{"Archived"},
	})
	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "sort[0]")
	s.Contains(verr.Fields, "status[0]")
}

func (s *TaskServiceTestSuite) TestMyTasks_UrgencyOrder() {
	ctx := context.Background()

	todo := s.createBoardTask("Plan sprint", domain.TaskPriorityCritical, &s.memberID, nil)
	blocked := s.createBoardTask("Wait on vendor", domain.TaskPriorityLow, &s.memberID, nil)
	inProgress := s.createBoardTask("Refactor auth", domain.TaskPriorityMedium, &s.memberID, nil)
	s.createBoardTask("Someone else's", domain.TaskPriorityCritical, &s.member2ID, nil)

	_, err := s.taskService.ChangeStatus(ctx, s.member, blocked.ID, domain.TaskStatusBlocked)
	s.Require().NoError(err)
	_, err = s.taskService.ChangeStatus(ctx, s.member, inProgress.ID, domain.TaskStatusInProgress)
	s.Require().NoError(err)

	tasks, total, err := s.taskService.MyTasks(ctx, s.member, service.TaskListParams{})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal([]string{blocked.ID, inProgress.ID, todo.ID}, taskIDs(tasks))

	tasks, _, err = s.taskService.MyTasks(ctx, s.lead, service.TaskListParams{})
	s.Require().NoError(err)
	s.Empty(tasks)
}

func taskIDs(tasks []*domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
