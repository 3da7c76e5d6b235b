package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mtlprog/teamtask/internal/blob"
	"github.com/mtlprog/teamtask/internal/cache"
	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/metrics"
	"github.com/mtlprog/teamtask/internal/store"
)

// CreateTaskParams holds the fields of a new task.
type CreateTaskParams struct {
	Title            string              `json:"title" validate:"required,min=3,max=200"`
	Description      *string             `json:"description" validate:"omitnil,max=2000"`
	Priority         domain.TaskPriority `json:"priority" validate:"omitempty,task_priority"`
	AssignedToUserID *string             `json:"assigned_to_user_id" validate:"omitnil,uuid"`
	DueDate          *time.Time          `json:"due_date"`
	EstimatedHours   int                 `json:"estimated_hours" validate:"min=0,max=1000"`
	Tags             *string             `json:"tags" validate:"omitnil,max=50"`
}

// EditTaskParams is a patch: nil fields are left unchanged.
type EditTaskParams struct {
	Title       *string              `json:"title" validate:"omitnil,min=3,max=200"`
	Description *string              `json:"description" validate:"omitnil,max=2000"`
	Status      *domain.TaskStatus   `json:"status" validate:"omitnil,task_status"`
	Priority    *domain.TaskPriority `json:"priority" validate:"omitnil,task_priority"`
	// AssignedToUserID reassigns the task; an empty string unassigns it.
	AssignedToUserID   *string    `json:"assigned_to_user_id" validate:"omitnil,assignee_id"`
	DueDate            *time.Time `json:"due_date"`
	ClearDueDate       bool       `json:"clear_due_date"`
	ProgressPercentage *int       `json:"progress_percentage" validate:"omitnil,min=0,max=100"`
	EstimatedHours     *int       `json:"estimated_hours" validate:"omitnil,min=0,max=1000"`
	ActualHours        *int       `json:"actual_hours" validate:"omitnil,min=0,max=1000"`
	Tags               *string    `json:"tags" validate:"omitnil,max=50"`
	// ExpectedVersion rejects the edit when the task has moved on.
	ExpectedVersion *int64 `json:"expected_version"`
}

// CommentParams holds a new comment.
type CommentParams struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// Upload describes a file to attach. Content is read exactly once.
type Upload struct {
	FileName    string    `json:"file_name" validate:"required,max=255"`
	ContentType string    `json:"content_type" validate:"max=100"`
	Size        int64     `json:"size" validate:"gt=0,max=10485760"`
	Content     io.Reader `json:"-"`
}

// Result is what a mutating operation committed.
type Result struct {
	Task          *domain.Task
	Comment       *domain.Comment
	Attachment    *domain.Attachment
	Events        []*domain.HistoryEvent
	Notifications []*domain.Notification
	// Changed is false when the call was a no-op and nothing was written.
	Changed bool
}

// TaskDetails is the read view of one task.
type TaskDetails struct {
	Task         *domain.Task
	Capabilities Capabilities
	Comments     []*domain.Comment
	Attachments  []*domain.Attachment
	// History is ordered most recent first.
	History []*domain.HistoryEvent
}

// TaskService coordinates task operations and state transitions.
type TaskService struct {
	store     store.Store
	blobs     blob.Store
	validator *Validator
	unread    cache.UnreadCounts
	now       func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithUnreadCache invalidates cached unread counts of notified users.
func WithUnreadCache(c cache.UnreadCounts) Option {
	return func(s *TaskService) {
		s.unread = c
	}
}

// NewTaskService creates a new TaskService.
func NewTaskService(st store.Store, blobs blob.Store, opts ...Option) *TaskService {
	s := &TaskService{
		store:     st,
		blobs:     blobs,
		validator: NewValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateTask creates a task in ToDo. Only project Leads may create tasks.
func (s *TaskService) CreateTask(
	ctx context.Context,
	actor domain.ActorContext,
	projectID string,
	params CreateTaskParams,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("create_task", start, err) }()

	params.Title = strings.TrimSpace(params.Title)
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
		if !CapabilitiesFor(actor, membership, nil).CanCreateTask {
			return fmt.Errorf("%w: user %s cannot create tasks in project %s", domain.ErrPermissionDenied, actor.UserID, project.ID)
		}

		if params.AssignedToUserID != nil {
			if err := requireAssignableMember(ctx, tx, project.ID, *params.AssignedToUserID); err != nil {
				return err
			}
		}

		now := s.clock()
		priority := params.Priority
		if priority == "" {
			priority = domain.TaskPriorityMedium
		}
		var dueDate *time.Time
		if params.DueDate != nil {
			due := params.DueDate.UTC()
			dueDate = &due
		}

		task := &domain.Task{
			ProjectID:        project.ID,
			Title:            params.Title,
			Description:      params.Description,
			Status:           domain.TaskStatusToDo,
			Priority:         priority,
			AssignedToUserID: params.AssignedToUserID,
			CreatedByUserID:  actor.UserID,
			DueDate:          dueDate,
			EstimatedHours:   params.EstimatedHours,
			Tags:             params.Tags,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		events := []*domain.HistoryEvent{createdEvent(actor.UserID)}
		if err := appendHistory(ctx, tx, task.ID, now, events); err != nil {
			return err
		}

		notifications, err := s.notify(ctx, tx, FanoutEvent{Kind: FanoutTaskCreated, ActorUserID: actor.UserID}, task, project, now)
		if err != nil {
			return err
		}

		res = &Result{Task: task, Events: events, Notifications: notifications, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, res)

	slog.Info("task created",
		"task_id", res.Task.ID,
		"project_id", projectID,
		"actor_id", actor.UserID,
		"notification_count", len(res.Notifications),
	)

	return res, nil
}

// EditTask applies a patch to a task, including optional status change and reassignment.
func (s *TaskService) EditTask(
	ctx context.Context,
	actor domain.ActorContext,
	taskID string,
	params EditTaskParams,
) (*Result, error) {
	return s.editTask(ctx, "edit_task", actor, taskID, params)
}

// ChangeStatus moves a task to another status.
func (s *TaskService) ChangeStatus(
	ctx context.Context,
	actor domain.ActorContext,
	taskID string,
	status domain.TaskStatus,
) (*Result, error) {
	return s.editTask(ctx, "change_status", actor, taskID, EditTaskParams{Status: &status})
}

func (s *TaskService) editTask(
	ctx context.Context,
	operation string,
	actor domain.ActorContext,
	taskID string,
	params EditTaskParams,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(operation, start, err) }()

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		params.Title = &title
	}
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
		if err != nil {
			return err
		}
		if membership == nil {
			return fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, task.ProjectID)
		}

		caps := CapabilitiesFor(actor, membership, task)
		if !caps.CanEdit {
			return fmt.Errorf("%w: user %s cannot edit task %s", domain.ErrPermissionDenied, actor.UserID, task.ID)
		}
		if params.AssignedToUserID != nil && !caps.CanReassign {
			return fmt.Errorf("%w: user %s cannot reassign task %s", domain.ErrPermissionDenied, actor.UserID, task.ID)
		}
		if params.ExpectedVersion != nil && *params.ExpectedVersion != task.Version {
			return fmt.Errorf("%w: task %s is at version %d, expected %d",
				domain.ErrTaskVersionMismatch, task.ID, task.Version, *params.ExpectedVersion)
		}

		now := s.clock()
		updated := task.Clone()
		var events []*domain.HistoryEvent

		if params.Status != nil {
			if change, ok := PlanStatusChange(updated, *params.Status, now); ok {
				change.ApplyTo(updated)
				events = append(events, statusChangedEvent(actor.UserID, change))
			}
		}

		reassigned := false
		if params.AssignedToUserID != nil {
			var newAssignee *string
			if *params.AssignedToUserID != "" {
				id := *params.AssignedToUserID
				newAssignee = &id
			}
			if !equalStrings(task.AssignedToUserID, newAssignee) {
				if newAssignee != nil {
					if err := requireAssignableMember(ctx, tx, task.ProjectID, *newAssignee); err != nil {
						return err
					}
				}
				oldLogin, err := userLogin(ctx, tx, task.AssignedToUserID)
				if err != nil {
					return err
				}
				newLogin, err := userLogin(ctx, tx, newAssignee)
				if err != nil {
					return err
				}
				updated.AssignedToUserID = newAssignee
				events = append(events, assignedEvent(actor.UserID, oldLogin, newLogin))
				reassigned = true
			}
		}

		// Progress forced by completion belongs to the status change.
		base := updated.Clone()
		applyFieldEdits(updated, params)
		EnforceCompletion(updated, now)

		if changes := describeChanges(base, updated); len(changes) > 0 {
			events = append(events, updatedEvent(actor.UserID, changes))
		}

		if len(events) == 0 {
			res = &Result{Task: task, Changed: false}
			return nil
		}

		updated.UpdatedAt = now
		if err := tx.UpdateTask(ctx, updated); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := appendHistory(ctx, tx, updated.ID, now, events); err != nil {
			return err
		}

		var notifications []*domain.Notification
		if reassigned {
			project, err := tx.GetProject(ctx, updated.ProjectID)
			if err != nil {
				return fmt.Errorf("get project: %w", err)
			}
			notifications, err = s.notify(ctx, tx, FanoutEvent{
				Kind:               FanoutReassigned,
				ActorUserID:        actor.UserID,
				PreviousAssigneeID: task.AssignedToUserID,
			}, updated, project, now)
			if err != nil {
				return err
			}
		}

		res = &Result{Task: updated, Events: events, Notifications: notifications, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Changed {
		slog.Debug("task edit was a no-op", "task_id", taskID, "actor_id", actor.UserID)
		return res, nil
	}

	s.afterCommit(ctx, res)

	slog.Info("task updated",
		"task_id", taskID,
		"actor_id", actor.UserID,
		"status", res.Task.Status,
		"event_count", len(res.Events),
		"notification_count", len(res.Notifications),
	)

	return res, nil
}

// AddComment posts a comment and notifies the assignee and creator.
func (s *TaskService) AddComment(
	ctx context.Context,
	actor domain.ActorContext,
	taskID string,
	params CommentParams,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("add_comment", start, err) }()

	params.Content = strings.TrimSpace(params.Content)
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
		if err != nil {
			return err
		}
		if !CapabilitiesFor(actor, membership, task).CanComment {
			return fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, task.ProjectID)
		}

		now := s.clock()
		comment := &domain.Comment{
			TaskID:       task.ID,
			AuthorUserID: actor.UserID,
			Content:      params.Content,
			CreatedAt:    now,
		}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		events := []*domain.HistoryEvent{commentAddedEvent(actor.UserID)}
		if err := appendHistory(ctx, tx, task.ID, now, events); err != nil {
			return err
		}

		project, err := tx.GetProject(ctx, task.ProjectID)
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		notifications, err := s.notify(ctx, tx, FanoutEvent{Kind: FanoutCommentAdded, ActorUserID: actor.UserID}, task, project, now)
		if err != nil {
			return err
		}

		res = &Result{Task: task, Comment: comment, Events: events, Notifications: notifications, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, res)

	slog.Info("comment added",
		"task_id", taskID,
		"comment_id", res.Comment.ID,
		"actor_id", actor.UserID,
		"notification_count", len(res.Notifications),
	)

	return res, nil
}

// AddAttachment stores the upload in blob storage and records its metadata.
// When the metadata transaction fails the stored blob is deleted again.
func (s *TaskService) AddAttachment(
	ctx context.Context,
	actor domain.ActorContext,
	taskID string,
	upload Upload,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("add_attachment", start, err) }()

	upload.FileName = filepath.Base(strings.TrimSpace(upload.FileName))
	if upload.FileName == "." || upload.FileName == string(filepath.Separator) {
		upload.FileName = ""
	}
	if err := s.validator.Struct(upload); err != nil {
		return nil, err
	}
	if upload.Content == nil {
		return nil, domain.NewValidationError("file", "this field is required")
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	// Access is checked before any bytes are written.
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := s.attachableTask(ctx, tx, actor, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	path, err := s.blobs.Put(ctx, upload.Content, upload.FileName)
	if err != nil {
		return nil, fmt.Errorf("store attachment blob: %w", err)
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		task, err := s.attachableTask(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}

		now := s.clock()
		attachment := &domain.Attachment{
			TaskID:           task.ID,
			UploadedByUserID: actor.UserID,
			FileName:         upload.FileName,
			FilePath:         path,
			FileSize:         upload.Size,
			UploadedAt:       now,
		}
		if upload.ContentType != "" {
			contentType := upload.ContentType
			attachment.FileType = &contentType
		}
		if err := tx.CreateAttachment(ctx, attachment); err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}

		events := []*domain.HistoryEvent{attachmentAddedEvent(actor.UserID, attachment.FileName)}
		if err := appendHistory(ctx, tx, task.ID, now, events); err != nil {
			return err
		}

		res = &Result{Task: task, Attachment: attachment, Events: events, Changed: true}
		return nil
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			slog.Error("failed to delete orphaned attachment blob",
				"task_id", taskID,
				"path", path,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.afterCommit(ctx, res)

	slog.Info("attachment added",
		"task_id", taskID,
		"attachment_id", res.Attachment.ID,
		"actor_id", actor.UserID,
		"size", res.Attachment.FileSize,
	)

	return res, nil
}

func (s *TaskService) attachableTask(ctx context.Context, tx store.Tx, actor domain.ActorContext, taskID string) (*domain.Task, error) {
	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(actor, membership, task).CanAttach {
		return nil, fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, task.ProjectID)
	}
	return task, nil
}

// DeleteAttachment removes attachment metadata and then its blob.
func (s *TaskService) DeleteAttachment(
	ctx context.Context,
	actor domain.ActorContext,
	attachmentID string,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("delete_attachment", start, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		attachment, err := tx.GetAttachment(ctx, attachmentID)
		if err != nil {
			return err
		}
		task, err := tx.GetTask(ctx, attachment.TaskID)
		if err != nil {
			return err
		}

		membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
		if err != nil {
			return err
		}
		if !CanDeleteAttachment(actor, membership, attachment) {
			return fmt.Errorf("%w: user %s cannot delete attachment %s", domain.ErrPermissionDenied, actor.UserID, attachment.ID)
		}

		if err := tx.DeleteAttachment(ctx, attachment.ID); err != nil {
			return fmt.Errorf("delete attachment: %w", err)
		}

		now := s.clock()
		events := []*domain.HistoryEvent{attachmentDeletedEvent(actor.UserID, attachment.FileName)}
		if err := appendHistory(ctx, tx, task.ID, now, events); err != nil {
			return err
		}

		res = &Result{Task: task, Attachment: attachment, Events: events, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeBlobs(ctx, res.Attachment)
	s.afterCommit(ctx, res)

	slog.Info("attachment deleted",
		"task_id", res.Task.ID,
		"attachment_id", attachmentID,
		"actor_id", actor.UserID,
	)

	return res, nil
}

// DeleteTask removes a task with its comments, attachments and history.
func (s *TaskService) DeleteTask(
	ctx context.Context,
	actor domain.ActorContext,
	taskID string,
) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("delete_task", start, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var attachments []*domain.Attachment
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
		if err != nil {
			return err
		}
		if membership == nil {
			return fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, task.ProjectID)
		}
		if !CapabilitiesFor(actor, membership, task).CanDelete {
			return fmt.Errorf("%w: user %s cannot delete task %s", domain.ErrPermissionDenied, actor.UserID, task.ID)
		}

		attachments, err = tx.ListAttachments(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}

		if _, err := tx.DeleteComments(ctx, task.ID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := tx.DeleteAttachments(ctx, task.ID); err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if _, err := tx.DeleteHistoryEvents(ctx, task.ID); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if err := tx.DeleteTask(ctx, task.ID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}

		res = &Result{Task: task, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeBlobs(ctx, attachments...)

	slog.Info("task deleted",
		"task_id", taskID,
		"actor_id", actor.UserID,
		"attachment_count", len(attachments),
	)

	return res, nil
}

// GetTask returns a task with its comments, attachments, history and the
// actor's capabilities. Only project members may read it.
func (s *TaskService) GetTask(ctx context.Context, actor domain.ActorContext, taskID string) (*TaskDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var details *TaskDetails
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		membership, err := loadMembership(ctx, tx, task.ProjectID, actor.UserID)
		if err != nil {
			return err
		}
		if membership == nil {
			return fmt.Errorf("%w: user %s, project %s", domain.ErrNotProjectMember, actor.UserID, task.ProjectID)
		}

		comments, err := tx.ListComments(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		attachments, err := tx.ListAttachments(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}
		history, err := tx.ListHistoryEvents(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		slices.Reverse(history)

		details = &TaskDetails{
			Task:         task,
			Capabilities: CapabilitiesFor(actor, membership, task),
			Comments:     comments,
			Attachments:  attachments,
			History:      history,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// notify stages the notifications of one event. Recipients whose user
// record is gone are skipped.
func (s *TaskService) notify(
	ctx context.Context,
	tx store.Tx,
	event FanoutEvent,
	task *domain.Task,
	project *domain.Project,
	now time.Time,
) ([]*domain.Notification, error) {
	recipients := Fanout(event, task, project)
	if len(recipients) == 0 {
		return nil, nil
	}

	notifications := make([]*domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		if _, err := tx.GetUser(ctx, r.UserID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				slog.Warn("skipping notification for unknown user",
					"task_id", task.ID,
					"user_id", r.UserID,
					"event", event.Kind,
				)
				continue
			}
			return nil, fmt.Errorf("get recipient: %w", err)
		}

		projectID := task.ProjectID
		n := &domain.Notification{
			RecipientUserID: r.UserID,
			Message:         r.Message,
			Type:            r.Type,
			ProjectID:       &projectID,
			CreatedAt:       now,
		}
		if err := tx.CreateNotification(ctx, n); err != nil {
			return nil, fmt.Errorf("create notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// afterCommit records metrics and drops stale unread counts.
func (s *TaskService) afterCommit(ctx context.Context, res *Result) {
	metrics.ObserveWrites(res.Events, len(res.Notifications))

	if s.unread == nil || len(res.Notifications) == 0 {
		return
	}
	recipients := make([]string, 0, len(res.Notifications))
	for _, n := range res.Notifications {
		recipients = append(recipients, n.RecipientUserID)
	}
	if err := s.unread.Invalidate(ctx, recipients...); err != nil {
		slog.Warn("failed to invalidate unread counts", "error", err)
	}
}

// removeBlobs deletes attachment blobs after their metadata is gone.
func (s *TaskService) removeBlobs(ctx context.Context, attachments ...*domain.Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range attachments {
		if err := s.blobs.Delete(ctx, a.FilePath); err != nil {
			slog.Error("failed to delete attachment blob",
				"attachment_id", a.ID,
				"path", a.FilePath,
				"error", err,
			)
		}
	}
}

func requireActor(actor domain.ActorContext) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: missing actor", domain.ErrPermissionDenied)
	}
	return nil
}

// loadMembership returns nil without error when the user is not a member.
func loadMembership(ctx context.Context, tx store.Tx, projectID, userID string) (*domain.ProjectMembership, error) {
	membership, err := tx.GetMembership(ctx, projectID, userID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return membership, nil
}

func requireAssignableMember(ctx context.Context, tx store.Tx, projectID, userID string) error {
	membership, err := loadMembership(ctx, tx, projectID, userID)
	if err != nil {
		return err
	}
	if membership == nil {
		return domain.NewValidationError("assigned_to_user_id", "user is not a member of the project")
	}
	return nil
}

// userLogin resolves a user's login for audit values; unknown users fall back to their ID.
func userLogin(ctx context.Context, tx store.Tx, userID *string) (string, error) {
	if userID == nil {
		return "", nil
	}
	user, err := tx.GetUser(ctx, *userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return *userID, nil
	}
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.Login, nil
}

func applyFieldEdits(task *domain.Task, params EditTaskParams) {
	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = emptyToNil(*params.Description)
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	if params.ClearDueDate {
		task.DueDate = nil
	} else if params.DueDate != nil {
		due := params.DueDate.UTC()
		task.DueDate = &due
	}
	if params.ProgressPercentage != nil {
		task.ProgressPercentage = *params.ProgressPercentage
	}
	if params.EstimatedHours != nil {
		task.EstimatedHours = *params.EstimatedHours
	}
	if params.ActualHours != nil {
		task.ActualHours = *params.ActualHours
	}
	if params.Tags != nil {
		task.Tags = emptyToNil(*params.Tags)
	}
}

// describeChanges summarises field edits other than status and assignee.
func describeChanges(before, after *domain.Task) []string {
	var changes []string
	if before.Title != after.Title {
		changes = append(changes, fmt.Sprintf("Title: '%s' → '%s'", before.Title, after.Title))
	}
	if !equalStrings(before.Description, after.Description) {
		changes = append(changes, "Description updated")
	}
	if before.Priority != after.Priority {
		changes = append(changes, fmt.Sprintf("Priority: %s → %s", before.Priority, after.Priority))
	}
	if !equalTimes(before.DueDate, after.DueDate) {
		changes = append(changes, "Due date: "+formatDate(before.DueDate)+" → "+formatDate(after.DueDate))
	}
	if before.ProgressPercentage != after.ProgressPercentage {
		changes = append(changes, fmt.Sprintf("Progress: %d%% → %d%%", before.ProgressPercentage, after.ProgressPercentage))
	}
	if before.EstimatedHours != after.EstimatedHours {
		changes = append(changes, fmt.Sprintf("Estimated hours: %d → %d", before.EstimatedHours, after.EstimatedHours))
	}
	if before.ActualHours != after.ActualHours {
		changes = append(changes, fmt.Sprintf("Actual hours: %d → %d", before.ActualHours, after.ActualHours))
	}
	if !equalStrings(before.Tags, after.Tags) {
		changes = append(changes, "Tags updated")
	}
	return changes
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format(time.DateOnly)
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
