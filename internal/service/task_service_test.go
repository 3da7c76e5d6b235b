package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/teamtask/internal/blob"
	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/service"
	"github.com/mtlprog/teamtask/internal/store"
	"github.com/mtlprog/teamtask/internal/store/memory"
)

// TaskServiceTestSuite is the test suite for TaskService.
type TaskServiceTestSuite struct {
	suite.Suite
	store       *memory.Store
	blobDir     string
	blobs       *blob.FileStore
	clock       *fakeClock
	taskService *service.TaskService

	// Test fixtures
	projectID   string
	leadID      string
	memberID    string
	member2ID   string
	outsiderID  string
	lead        domain.ActorContext
	member      domain.ActorContext
	member2     domain.ActorContext
	outsider    domain.ActorContext
	otherProjID string
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetupTest runs before each test.
func (s *TaskServiceTestSuite) SetupTest() {
	s.store = memory.New()
	s.blobDir = s.T().TempDir()

	blobs, err := blob.NewFileStore(s.blobDir)
	s.Require().NoError(err)
	s.blobs = blobs

	s.clock = &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s.taskService = service.NewTaskService(s.store, s.blobs, service.WithClock(s.clock.Now))

	s.projectID = s.store.AddProject("Apollo")
	s.otherProjID = s.store.AddProject("Gemini")

	s.leadID = s.store.AddUser("alice", "")
	s.memberID = s.store.AddUser("bob", "")
	s.member2ID = s.store.AddUser("carol", "")
	s.outsiderID = s.store.AddUser("mallory", "")

	s.store.AddMembership(s.projectID, s.leadID, domain.ProjectRoleLead)
	s.store.AddMembership(s.projectID, s.memberID, domain.ProjectRoleMember)
	s.store.AddMembership(s.projectID, s.member2ID, domain.ProjectRoleContributor)
	s.store.AddMembership(s.otherProjID, s.outsiderID, domain.ProjectRoleLead)

	s.lead = domain.ActorContext{UserID: s.leadID}
	s.member = domain.ActorContext{UserID: s.memberID}
	s.member2 = domain.ActorContext{UserID: s.member2ID}
	s.outsider = domain.ActorContext{UserID: s.outsiderID}
}

// TestCreateTask_AssignedNotifiesAssignee covers a Lead creating an assigned task.
func (s *TaskServiceTestSuite) TestCreateTask_AssignedNotifiesAssignee() {
	ctx := context.Background()

	res, err := s.taskService.CreateTask(ctx, s.lead, s.projectID, service.CreateTaskParams{
		Title:            "Write launch checklist",
		AssignedToUserID: &s.memberID,
	})
	s.Require().NoError(err)

	s.Equal(domain.TaskStatusToDo, res.Task.Status)
	s.Equal(domain.TaskPriorityMedium, res.Task.Priority)
	s.Nil(res.Task.StartedAt)
	s.Equal(s.leadID, res.Task.CreatedByUserID)

	events := s.store.HistoryEvents(res.Task.ID)
	s.Require().Len(events, 1)
	s.Equal(domain.HistoryActionCreated, events[0].Action)

	notifications := s.store.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(s.memberID, notifications[0].RecipientUserID)
	s.Equal(domain.NotificationTypeInfo, notifications[0].Type)
	s.False(notifications[0].IsRead)
	s.Contains(notifications[0].Message, "Write launch checklist")
	s.Contains(notifications[0].Message, "Apollo")
}

// TestCreateTask_UnassignedSendsNothing tests that an unassigned task notifies nobody.
func (s *TaskServiceTestSuite) TestCreateTask_UnassignedSendsNothing() {
	ctx := context.Background()

	res, err := s.taskService.CreateTask(ctx, s.lead, s.projectID, service.CreateTaskParams{Title: "Unowned"})
	s.Require().NoError(err)
	s.Empty(res.Notifications)
	s.Empty(s.store.Notifications())
}

// TestCreateTask_OnlyLead tests that Members cannot create tasks.
func (s *TaskServiceTestSuite) TestCreateTask_OnlyLead() {
	ctx := context.Background()

	_, err := s.taskService.CreateTask(ctx, s.member, s.projectID, service.CreateTaskParams{Title: "Not allowed"})
	s.ErrorIs(err, domain.ErrPermissionDenied)

	_, err = s.taskService.CreateTask(ctx, s.outsider, s.projectID, service.CreateTaskParams{Title: "Not allowed"})
	s.ErrorIs(err, domain.ErrPermissionDenied)
}

// TestCreateTask_Validation tests field-level validation errors.
func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	ctx := context.Background()

	_, err := s.taskService.CreateTask(ctx, s.lead, s.projectID, service.CreateTaskParams{
		Title:          "  x ",
		EstimatedHours: 5000,
	})
	s.Require().ErrorIs(err, domain.ErrValidation)

	var verr *domain.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Contains(verr.Fields, "title")
	s.Contains(verr.Fields, "estimated_hours")
}

// TestCreateTask_AssigneeMustBeMember tests assigning a non-member.
func (s *TaskServiceTestSuite) TestCreateTask_AssigneeMustBeMember() {
	ctx := context.Background()

	_, err := s.taskService.CreateTask(ctx, s.lead, s.projectID, service.CreateTaskParams{
		Title:            "Cross project",
		AssignedToUserID: &s.outsiderID,
	})
	s.ErrorIs(err, domain.ErrValidation)
}

// TestCreateTask_UnknownProject tests the NotFound path.
func (s *TaskServiceTestSuite) TestCreateTask_UnknownProject() {
	_, err := s.taskService.CreateTask(context.Background(), s.lead, "11111111-1111-1111-1111-111111111111",
		service.CreateTaskParams{Title: "Nowhere"})
	s.ErrorIs(err, domain.ErrNotFound)
}

// TestEditTask_ToDoToInProgress sets startedAt and records one StatusChanged event.
func (s *TaskServiceTestSuite) TestEditTask_ToDoToInProgress() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	s.clock.Advance(time.Hour)
	status := domain.TaskStatusInProgress
	res, err := s.taskService.EditTask(ctx, s.member, taskID, service.EditTaskParams{Status: &status})
	s.Require().NoError(err)
	s.True(res.Changed)

	s.Require().NotNil(res.Task.StartedAt)
	s.True(res.Task.StartedAt.Equal(s.clock.Now()))

	s.Require().Len(res.Events, 1)
	event := res.Events[0]
	s.Equal(domain.HistoryActionStatusChanged, event.Action)
	s.Equal("ToDo", *event.OldValue)
	s.Equal("InProgress", *event.NewValue)
}

// TestEditTask_DoneForcesProgress tests the Done invariant from any progress value.
func (s *TaskServiceTestSuite) TestEditTask_DoneForcesProgress() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	progress := 35
	_, err := s.taskService.EditTask(ctx, s.member, taskID, service.EditTaskParams{ProgressPercentage: &progress})
	s.Require().NoError(err)

	res, err := s.taskService.ChangeStatus(ctx, s.member, taskID, domain.TaskStatusDone)
	s.Require().NoError(err)
	s.Require().NotNil(res.Task.CompletedAt)
	s.Equal(100, res.Task.ProgressPercentage)
}

// TestEditTask_DoneWithLowerProgressInSameCall keeps Done at 100%.
func (s *TaskServiceTestSuite) TestEditTask_DoneWithLowerProgressInSameCall() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	status := domain.TaskStatusDone
	progress := 40
	res, err := s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{
		Status:             &status,
		ProgressPercentage: &progress,
	})
	s.Require().NoError(err)
	s.Equal(100, res.Task.ProgressPercentage)
	s.NotNil(res.Task.CompletedAt)
}

// TestEditTask_ReenteringDoneRestoresProgress tests the invariant across Done re-entry.
func (s *TaskServiceTestSuite) TestEditTask_ReenteringDoneRestoresProgress() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	_, err := s.taskService.ChangeStatus(ctx, s.lead, taskID, domain.TaskStatusDone)
	s.Require().NoError(err)
	first, _ := s.store.Task(taskID)

	s.clock.Advance(time.Hour)
	_, err = s.taskService.ChangeStatus(ctx, s.lead, taskID, domain.TaskStatusInReview)
	s.Require().NoError(err)

	progress := 60
	_, err = s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{ProgressPercentage: &progress})
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	res, err := s.taskService.ChangeStatus(ctx, s.lead, taskID, domain.TaskStatusDone)
	s.Require().NoError(err)
	s.Equal(100, res.Task.ProgressPercentage)
	s.True(res.Task.CompletedAt.Equal(*first.CompletedAt), "completedAt keeps the first completion time")
}

// TestEditTask_SameStatusIsIdempotent covers the idempotence property.
func (s *TaskServiceTestSuite) TestEditTask_SameStatusIsIdempotent() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	status := domain.TaskStatusInProgress
	_, err := s.taskService.EditTask(ctx, s.member, taskID, service.EditTaskParams{Status: &status})
	s.Require().NoError(err)
	before, _ := s.store.Task(taskID)
	eventsBefore := len(s.store.HistoryEvents(taskID))

	s.clock.Advance(time.Hour)
	for range 2 {
		res, err := s.taskService.EditTask(ctx, s.member, taskID, service.EditTaskParams{Status: &status})
		s.Require().NoError(err)
		s.False(res.Changed)
		s.Empty(res.Events)
	}

	after, _ := s.store.Task(taskID)
	s.Len(s.store.HistoryEvents(taskID), eventsBefore)
	s.True(after.StartedAt.Equal(*before.StartedAt))
	s.Nil(after.CompletedAt)
	s.Equal(before.Version, after.Version)
}

// TestEditTask_StartedAtNeverCleared covers the startedAt invariant.
func (s *TaskServiceTestSuite) TestEditTask_StartedAtNeverCleared() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	_, err := s.taskService.ChangeStatus(ctx, s.lead, taskID, domain.TaskStatusInProgress)
	s.Require().NoError(err)
	first, _ := s.store.Task(taskID)
	s.Require().NotNil(first.StartedAt)

	for _, status := range []domain.TaskStatus{
		domain.TaskStatusToDo, domain.TaskStatusBlocked, domain.TaskStatusInProgress,
		domain.TaskStatusDone, domain.TaskStatusToDo,
	} {
		s.clock.Advance(time.Minute)
		_, err := s.taskService.ChangeStatus(ctx, s.lead, taskID, status)
		s.Require().NoError(err)

		task, _ := s.store.Task(taskID)
		s.Require().NotNil(task.StartedAt)
		s.True(task.StartedAt.Equal(*first.StartedAt))
	}
}

// TestEditTask_NonMemberDenied covers a caller with no membership.
func (s *TaskServiceTestSuite) TestEditTask_NonMemberDenied() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)
	eventsBefore := len(s.store.HistoryEvents(taskID))

	title := "Hijacked"
	_, err := s.taskService.EditTask(ctx, s.outsider, taskID, service.EditTaskParams{Title: &title})
	s.ErrorIs(err, domain.ErrPermissionDenied)
	s.Len(s.store.HistoryEvents(taskID), eventsBefore)

	task, _ := s.store.Task(taskID)
	s.NotEqual("Hijacked", task.Title)
}

// TestEditTask_MemberNotAssigneeDenied tests that unrelated members cannot edit.
func (s *TaskServiceTestSuite) TestEditTask_MemberNotAssigneeDenied() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	_, err := s.taskService.ChangeStatus(ctx, s.member2, taskID, domain.TaskStatusDone)
	s.ErrorIs(err, domain.ErrPermissionDenied)
}

// TestEditTask_FullEditYieldsSeparateEvents tests one event per distinct change.
func (s *TaskServiceTestSuite) TestEditTask_FullEditYieldsSeparateEvents() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	s.clock.Advance(time.Minute)
	title := "Renamed task"
	description := "More detail"
	status := domain.TaskStatusInReview
	priority := domain.TaskPriorityHigh
	res, err := s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{
		Title:            &title,
		Description:      &description,
		Status:           &status,
		Priority:         &priority,
		AssignedToUserID: &s.member2ID,
	})
	s.Require().NoError(err)

	actions := make([]domain.HistoryAction, 0, len(res.Events))
	for _, e := range res.Events {
		actions = append(actions, e.Action)
		s.True(e.CreatedAt.Equal(res.Events[0].CreatedAt), "events of one call share a timestamp")
	}
	s.ElementsMatch([]domain.HistoryAction{
		domain.HistoryActionStatusChanged,
		domain.HistoryActionAssignedTo,
		domain.HistoryActionUpdated,
	}, actions)

	for _, e := range res.Events {
		switch e.Action {
		case domain.HistoryActionAssignedTo:
			s.Equal("bob", *e.OldValue)
			s.Equal("carol", *e.NewValue)
		case domain.HistoryActionUpdated:
			s.Contains(*e.Details, "Renamed task")
			s.Contains(*e.Details, "Priority")
		}
	}

	s.Require().Len(res.Notifications, 1)
	s.Equal(s.member2ID, res.Notifications[0].RecipientUserID)
}

// TestEditTask_UnassignDoesNotNotify tests that only new assignees are notified.
func (s *TaskServiceTestSuite) TestEditTask_UnassignDoesNotNotify() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	notificationsBefore := len(s.store.Notifications())

	empty := ""
	res, err := s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{AssignedToUserID: &empty})
	s.Require().NoError(err)
	s.Nil(res.Task.AssignedToUserID)
	s.Require().Len(res.Events, 1)
	s.Equal("unassigned", *res.Events[0].NewValue)
	s.Len(s.store.Notifications(), notificationsBefore)
}

// TestEditTask_VersionMismatch tests the optimistic concurrency check.
func (s *TaskServiceTestSuite) TestEditTask_VersionMismatch() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)
	task, _ := s.store.Task(taskID)

	title := "First writer"
	version := task.Version
	_, err := s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{Title: &title, ExpectedVersion: &version})
	s.Require().NoError(err)

	title = "Second writer"
	_, err = s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{Title: &title, ExpectedVersion: &version})
	s.ErrorIs(err, domain.ErrConflict)

	current, _ := s.store.Task(taskID)
	s.Equal("First writer", current.Title)
}

// TestEditTask_ConcurrentEdits checks that concurrent edits all land.
func (s *TaskServiceTestSuite) TestEditTask_ConcurrentEdits() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func(hours int) {
			defer wg.Done()
			_, err := s.taskService.EditTask(ctx, s.lead, taskID, service.EditTaskParams{ActualHours: &hours})
			results <- err
		}(i + 1)
	}
	wg.Wait()
	close(results)

	for err := range results {
		s.NoError(err)
	}

	task, _ := s.store.Task(taskID)
	s.Equal(int64(11), task.Version)
}

// TestHistory_MonotonicUnderClockSkew tests that event times never go backwards.
func (s *TaskServiceTestSuite) TestHistory_MonotonicUnderClockSkew() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	s.clock.Advance(-time.Hour)
	_, err := s.taskService.AddComment(ctx, s.lead, taskID, service.CommentParams{Content: "clock went back"})
	s.Require().NoError(err)

	s.clock.Advance(-time.Hour)
	_, err = s.taskService.ChangeStatus(ctx, s.lead, taskID, domain.TaskStatusBlocked)
	s.Require().NoError(err)

	events := s.store.HistoryEvents(taskID)
	s.Require().Len(events, 3)
	for i := 1; i < len(events); i++ {
		s.False(events[i].CreatedAt.Before(events[i-1].CreatedAt))
	}
}

// TestAddComment_NotifiesAssigneeAndCreator tests the comment fanout.
func (s *TaskServiceTestSuite) TestAddComment_NotifiesAssigneeAndCreator() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	notificationsBefore := len(s.store.Notifications())

	res, err := s.taskService.AddComment(ctx, s.member2, taskID, service.CommentParams{Content: "  Looks good  "})
	s.Require().NoError(err)
	s.Equal("Looks good", res.Comment.Content)

	recipients := make([]string, 0, len(res.Notifications))
	for _, n := range res.Notifications {
		recipients = append(recipients, n.RecipientUserID)
	}
	s.ElementsMatch([]string{s.memberID, s.leadID}, recipients)
	s.Len(s.store.Notifications(), notificationsBefore+2)
	s.Require().Len(res.Events, 1)
	s.Equal(domain.HistoryActionCommentAdded, res.Events[0].Action)
}

// TestAddComment_OwnTaskNoNotification covers an assignee commenting on their own task.
func (s *TaskServiceTestSuite) TestAddComment_OwnTaskNoNotification() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.leadID)
	notificationsBefore := len(s.store.Notifications())

	res, err := s.taskService.AddComment(ctx, s.lead, taskID, service.CommentParams{Content: "Note to self"})
	s.Require().NoError(err)
	s.Empty(res.Notifications)
	s.Len(s.store.Notifications(), notificationsBefore)
}

// TestAddComment_CreatorIsAssigneeNotifiedOnce tests deduplication.
func (s *TaskServiceTestSuite) TestAddComment_CreatorIsAssigneeNotifiedOnce() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.leadID)

	res, err := s.taskService.AddComment(ctx, s.member, taskID, service.CommentParams{Content: "Ping"})
	s.Require().NoError(err)
	s.Require().Len(res.Notifications, 1)
	s.Equal(s.leadID, res.Notifications[0].RecipientUserID)
}

// TestAddComment_UnknownRecipientSkipped tests best-effort fanout.
func (s *TaskServiceTestSuite) TestAddComment_UnknownRecipientSkipped() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	s.store.RemoveUser(s.memberID)

	res, err := s.taskService.AddComment(ctx, s.member2, taskID, service.CommentParams{Content: "Anyone?"})
	s.Require().NoError(err)
	s.Require().Len(res.Notifications, 1)
	s.Equal(s.leadID, res.Notifications[0].RecipientUserID)
}

// TestAddComment_Validation tests blank and oversized comments.
func (s *TaskServiceTestSuite) TestAddComment_Validation() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	_, err := s.taskService.AddComment(ctx, s.lead, taskID, service.CommentParams{Content: "   "})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.taskService.AddComment(ctx, s.lead, taskID, service.CommentParams{Content: strings.Repeat("a", 1001)})
	s.ErrorIs(err, domain.ErrValidation)

	s.Empty(s.store.Comments(taskID))
}

// TestAddAttachment_Success stores the blob and the metadata.
func (s *TaskServiceTestSuite) TestAddAttachment_Success() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	res, err := s.taskService.AddAttachment(ctx, s.member2, taskID, service.Upload{
		FileName:    "design.png",
		ContentType: "image/png",
		Size:        4,
		Content:     strings.NewReader("\x89PNG"),
	})
	s.Require().NoError(err)
	s.Equal("design.png", res.Attachment.FileName)
	s.Equal(".png", filepath.Ext(res.Attachment.FilePath))
	s.Require().NotNil(res.Attachment.FileType)
	s.Equal("image/png", *res.Attachment.FileType)

	_, err = os.Stat(filepath.Join(s.blobDir, res.Attachment.FilePath))
	s.NoError(err)

	s.Len(s.store.Attachments(taskID), 1)
	s.Require().Len(res.Events, 1)
	s.Equal(domain.HistoryActionAttachmentAdded, res.Events[0].Action)
}

// TestAddAttachment_TooLarge rejects oversized files before any write.
func (s *TaskServiceTestSuite) TestAddAttachment_TooLarge() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	_, err := s.taskService.AddAttachment(ctx, s.lead, taskID, service.Upload{
		FileName: "huge.bin",
		Size:     domain.MaxAttachmentSize + 1,
		Content:  strings.NewReader("x"),
	})
	s.ErrorIs(err, domain.ErrValidation)
	s.Empty(s.blobFiles())
	s.Empty(s.store.Attachments(taskID))
}

// TestAddAttachment_NonMemberWritesNoBlob tests the pre-write access check.
func (s *TaskServiceTestSuite) TestAddAttachment_NonMemberWritesNoBlob() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	_, err := s.taskService.AddAttachment(ctx, s.outsider, taskID, service.Upload{
		FileName: "x.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	s.ErrorIs(err, domain.ErrPermissionDenied)
	s.Empty(s.blobFiles())
}

// TestAddAttachment_BlobFailure surfaces a storage error and writes no metadata.
func (s *TaskServiceTestSuite) TestAddAttachment_BlobFailure() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	svc := service.NewTaskService(s.store, failingBlobs{}, service.WithClock(s.clock.Now))
	_, err := svc.AddAttachment(ctx, s.lead, taskID, service.Upload{
		FileName: "x.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	s.ErrorIs(err, domain.ErrStorage)
	s.Empty(s.store.Attachments(taskID))
}

// TestAddAttachment_MetadataFailureRemovesBlob covers the compensating delete.
func (s *TaskServiceTestSuite) TestAddAttachment_MetadataFailureRemovesBlob() {
	ctx := context.Background()
	taskID := s.createTask(ctx, nil)

	errBoom := errors.New("insert failed")
	svc := service.NewTaskService(&failingAttachmentStore{Store: s.store, err: errBoom}, s.blobs,
		service.WithClock(s.clock.Now))

	_, err := svc.AddAttachment(ctx, s.lead, taskID, service.Upload{
		FileName: "x.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	s.ErrorIs(err, errBoom)
	s.Empty(s.blobFiles(), "orphan blob must be deleted")
	s.Empty(s.store.Attachments(taskID))
}

// TestDeleteAttachment tests uploader and Lead permissions.
func (s *TaskServiceTestSuite) TestDeleteAttachment() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	attachment := s.attach(ctx, s.member2, taskID)

	_, err := s.taskService.DeleteAttachment(ctx, s.member, attachment.ID)
	s.ErrorIs(err, domain.ErrPermissionDenied)

	res, err := s.taskService.DeleteAttachment(ctx, s.lead, attachment.ID)
	s.Require().NoError(err)
	s.Require().Len(res.Events, 1)
	s.Equal(domain.HistoryActionAttachmentDeleted, res.Events[0].Action)
	s.Empty(s.store.Attachments(taskID))
	s.Empty(s.blobFiles())

	_, err = s.taskService.DeleteAttachment(ctx, s.lead, attachment.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

// TestDeleteTask_ByCreatorCascades removes the task and all children.
func (s *TaskServiceTestSuite) TestDeleteTask_ByCreatorCascades() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	s.attach(ctx, s.member, taskID)
	_, err := s.taskService.AddComment(ctx, s.member, taskID, service.CommentParams{Content: "bye"})
	s.Require().NoError(err)

	_, err = s.taskService.DeleteTask(ctx, s.lead, taskID)
	s.Require().NoError(err)

	_, ok := s.store.Task(taskID)
	s.False(ok)
	s.Empty(s.store.Comments(taskID))
	s.Empty(s.store.Attachments(taskID))
	s.Empty(s.store.HistoryEvents(taskID))
	s.Empty(s.blobFiles())
}

// TestDeleteTask_MemberDenied covers a Member who is neither creator nor Lead.
func (s *TaskServiceTestSuite) TestDeleteTask_MemberDenied() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)
	s.attach(ctx, s.member, taskID)
	_, err := s.taskService.AddComment(ctx, s.member, taskID, service.CommentParams{Content: "keep me"})
	s.Require().NoError(err)
	eventsBefore := len(s.store.HistoryEvents(taskID))

	_, err = s.taskService.DeleteTask(ctx, s.member, taskID)
	s.ErrorIs(err, domain.ErrPermissionDenied)

	_, ok := s.store.Task(taskID)
	s.True(ok)
	s.Len(s.store.Comments(taskID), 1)
	s.Len(s.store.Attachments(taskID), 1)
	s.Len(s.store.HistoryEvents(taskID), eventsBefore)
	s.Len(s.blobFiles(), 1)
}

// TestGetTask returns details with most-recent-first history.
func (s *TaskServiceTestSuite) TestGetTask() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	s.clock.Advance(time.Minute)
	_, err := s.taskService.ChangeStatus(ctx, s.member, taskID, domain.TaskStatusInProgress)
	s.Require().NoError(err)

	details, err := s.taskService.GetTask(ctx, s.member, taskID)
	s.Require().NoError(err)
	s.True(details.Capabilities.CanEdit)
	s.False(details.Capabilities.CanDelete)
	s.Require().Len(details.History, 2)
	s.Equal(domain.HistoryActionStatusChanged, details.History[0].Action)
	s.Equal(domain.HistoryActionCreated, details.History[1].Action)

	_, err = s.taskService.GetTask(ctx, s.outsider, taskID)
	s.ErrorIs(err, domain.ErrPermissionDenied)
}

// TestTaskInvariants_AfterMixedOperations checks the Done invariant after a mixed sequence.
func (s *TaskServiceTestSuite) TestTaskInvariants_AfterMixedOperations() {
	ctx := context.Background()
	taskID := s.createTask(ctx, &s.memberID)

	steps := []service.EditTaskParams{
		{Status: statusPtr(domain.TaskStatusInProgress)},
		{ProgressPercentage: intPtr(20)},
		{Status: statusPtr(domain.TaskStatusDone)},
		{ProgressPercentage: intPtr(10)},
		{Status: statusPtr(domain.TaskStatusBlocked)},
		{Status: statusPtr(domain.TaskStatusDone), ProgressPercentage: intPtr(0)},
	}
	for _, step := range steps {
		s.clock.Advance(time.Minute)
		_, err := s.taskService.EditTask(ctx, s.member, taskID, step)
		s.Require().NoError(err)

		task, _ := s.store.Task(taskID)
		if task.Status == domain.TaskStatusDone {
			s.NotNil(task.CompletedAt)
			s.Equal(100, task.ProgressPercentage)
		}
		s.NotNil(task.StartedAt)
	}
}

// Helper: createTask creates a task as the Lead.
func (s *TaskServiceTestSuite) createTask(ctx context.Context, assigneeID *string) string {
	res, err := s.taskService.CreateTask(ctx, s.lead, s.projectID, service.CreateTaskParams{
		Title:            "Test Task",
		AssignedToUserID: assigneeID,
	})
	s.Require().NoError(err, "failed to create task")
	return res.Task.ID
}

// Helper: attach uploads a small file.
func (s *TaskServiceTestSuite) attach(ctx context.Context, actor domain.ActorContext, taskID string) *domain.Attachment {
	res, err := s.taskService.AddAttachment(ctx, actor, taskID, service.Upload{
		FileName: "notes.txt",
		Size:     5,
		Content:  strings.NewReader("hello"),
	})
	s.Require().NoError(err, "failed to attach file")
	return res.Attachment
}

func (s *TaskServiceTestSuite) blobFiles() []os.DirEntry {
	entries, err := os.ReadDir(s.blobDir)
	s.Require().NoError(err)
	return entries
}

func statusPtr(status domain.TaskStatus) *domain.TaskStatus { return &status }

func intPtr(v int) *int { return &v }

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, io.Reader, string) (string, error) {
	return "", domain.ErrStorage
}

func (failingBlobs) Delete(context.Context, string) error { return nil }

// failingAttachmentStore fails every CreateAttachment call.
type failingAttachmentStore struct {
	store.Store
	err error
}

func (f *failingAttachmentStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return f.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingAttachmentTx{Tx: tx, err: f.err})
	})
}

type failingAttachmentTx struct {
	store.Tx
	err error
}

func (f failingAttachmentTx) CreateAttachment(context.Context, *domain.Attachment) error {
	return f.err
}

// TestTaskServiceTestSuite runs the test suite.
func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
