package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

type memTx struct {
	data  *state
	clock func() time.Time
}

var _ store.Tx = (*memTx)(nil)

func (t *memTx) GetProject(_ context.Context, projectID string) (*domain.Project, error) {
	p, ok := t.data.projects[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	copied := *p
	return &copied, nil
}

func (t *memTx) GetMembership(_ context.Context, projectID, userID string) (*domain.ProjectMembership, error) {
	m, ok := t.data.memberships[membershipKey(projectID, userID)]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	copied := *m
	return &copied, nil
}

func (t *memTx) GetUser(_ context.Context, userID string) (*domain.User, error) {
	u, ok := t.data.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (t *memTx) GetTask(_ context.Context, taskID string) (*domain.Task, error) {
	task, ok := t.data.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// GetTaskForUpdate is GetTask; the store mutex already serialises transactions.
func (t *memTx) GetTaskForUpdate(ctx context.Context, taskID string) (*domain.Task, error) {
	return t.GetTask(ctx, taskID)
}

func (t *memTx) CreateTask(_ context.Context, task *domain.Task) error {
	task.ID = uuid.NewString()
	task.Version = 1
	if task.CreatedAt.IsZero() {
		task.CreatedAt = t.clock()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	t.data.tasks[task.ID] = task.Clone()
	return nil
}

func (t *memTx) UpdateTask(_ context.Context, task *domain.Task) error {
	current, ok := t.data.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if current.Version != task.Version {
		return domain.ErrTaskVersionMismatch
	}
	task.Version++
	t.data.tasks[task.ID] = task.Clone()
	return nil
}

func (t *memTx) DeleteTask(_ context.Context, taskID string) error {
	if _, ok := t.data.tasks[taskID]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(t.data.tasks, taskID)
	return nil
}

func (t *memTx) CreateHistoryEvent(_ context.Context, event *domain.HistoryEvent) error {
	event.ID = uuid.NewString()
	copied := *event
	t.data.history = append(t.data.history, &copied)
	return nil
}

func (t *memTx) LatestHistoryEventAt(_ context.Context, taskID string) (*time.Time, error) {
	var latest *time.Time
	for _, e := range t.data.history {
		if e.TaskID != taskID {
			continue
		}
		if latest == nil || e.CreatedAt.After(*latest) {
			at := e.CreatedAt
			latest = &at
		}
	}
	return latest, nil
}

func (t *memTx) ListHistoryEvents(_ context.Context, taskID string) ([]*domain.HistoryEvent, error) {
	return filterHistory(t.data.history, taskID), nil
}

func (t *memTx) DeleteHistoryEvents(_ context.Context, taskID string) (int64, error) {
	kept := t.data.history[:0:0]
	var removed int64
	for _, e := range t.data.history {
		if e.TaskID == taskID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.data.history = kept
	return removed, nil
}

func (t *memTx) CreateComment(_ context.Context, comment *domain.Comment) error {
	comment.ID = uuid.NewString()
	copied := *comment
	t.data.comments = append(t.data.comments, &copied)
	return nil
}

func (t *memTx) ListComments(_ context.Context, taskID string) ([]*domain.Comment, error) {
	return filterComments(t.data.comments, taskID), nil
}

func (t *memTx) DeleteComments(_ context.Context, taskID string) (int64, error) {
	kept := t.data.comments[:0:0]
	var removed int64
	for _, c := range t.data.comments {
		if c.TaskID == taskID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	t.data.comments = kept
	return removed, nil
}

func (t *memTx) CreateAttachment(_ context.Context, attachment *domain.Attachment) error {
	attachment.ID = uuid.NewString()
	copied := *attachment
	t.data.attachments[attachment.ID] = &copied
	return nil
}

func (t *memTx) GetAttachment(_ context.Context, attachmentID string) (*domain.Attachment, error) {
	a, ok := t.data.attachments[attachmentID]
	if !ok {
		return nil, domain.ErrAttachmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (t *memTx) ListAttachments(_ context.Context, taskID string) ([]*domain.Attachment, error) {
	return filterAttachments(t.data.attachments, taskID), nil
}

func (t *memTx) DeleteAttachment(_ context.Context, attachmentID string) error {
	if _, ok := t.data.attachments[attachmentID]; !ok {
		return domain.ErrAttachmentNotFound
	}
	delete(t.data.attachments, attachmentID)
	return nil
}

func (t *memTx) DeleteAttachments(_ context.Context, taskID string) (int64, error) {
	var removed int64
	for id, a := range t.data.attachments {
		if a.TaskID == taskID {
			delete(t.data.attachments, id)
			removed++
		}
	}
	return removed, nil
}

func (t *memTx) CreateNotification(_ context.Context, notification *domain.Notification) error {
	notification.ID = uuid.NewString()
	copied := *notification
	t.data.notifications = append(t.data.notifications, &copied)
	return nil
}
