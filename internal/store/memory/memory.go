// Package memory is an in-process implementation of the store port.
//
// Transactions are serialised by a single mutex and run against a copy of
// the data set that replaces the committed state only when fn succeeds,
// so a failed operation leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

type state struct {
	projects      map[string]*domain.Project
	users         map[string]*domain.User
	memberships   map[string]*domain.ProjectMembership
	tasks         map[string]*domain.Task
	history       []*domain.HistoryEvent
	comments      []*domain.Comment
	attachments   map[string]*domain.Attachment
	notifications []*domain.Notification
}

func newState() *state {
	return &state{
		projects:    make(map[string]*domain.Project),
		users:       make(map[string]*domain.User),
		memberships: make(map[string]*domain.ProjectMembership),
		tasks:       make(map[string]*domain.Task),
		attachments: make(map[string]*domain.Attachment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.projects {
		p := *v
		c.projects[k] = &p
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.memberships {
		m := *v
		c.memberships[k] = &m
	}
	for k, v := range s.tasks {
		c.tasks[k] = v.Clone()
	}
	for k, v := range s.attachments {
		a := *v
		c.attachments[k] = &a
	}
	c.history = append([]*domain.HistoryEvent(nil), s.history...)
	c.comments = append([]*domain.Comment(nil), s.comments...)
	for _, n := range s.notifications {
		copied := *n
		c.notifications = append(c.notifications, &copied)
	}
	return c
}

func membershipKey(projectID, userID string) string {
	return projectID + "/" + userID
}

// Store keeps all records in memory.
type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
}

var (
	_ store.Store             = (*Store)(nil)
	_ store.NotificationStore = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{data: newState(), clock: time.Now}
}

// InTx runs fn against a private copy of the data and commits it on success.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, &memTx{data: work, clock: s.clock}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// AddProject seeds a project and returns its ID.
func (s *Store) AddProject(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Project{ID: uuid.NewString(), Name: name, CreatedAt: s.clock()}
	s.data.projects[p.ID] = p
	return p.ID
}

// AddUser seeds a user and returns its ID.
func (s *Store) AddUser(login, tokenDigest string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: uuid.NewString(), Login: login, TokenDigest: tokenDigest, CreatedAt: s.clock()}
	s.data.users[u.ID] = u
	return u.ID
}

// RemoveUser deletes a user record, leaving references to it dangling.
func (s *Store) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.users, userID)
}

// AddMembership seeds a project membership.
func (s *Store) AddMembership(projectID, userID string, role domain.ProjectRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.memberships[membershipKey(projectID, userID)] = &domain.ProjectMembership{
		ProjectID:  projectID,
		UserID:     userID,
		Role:       role,
		AssignedAt: s.clock(),
	}
}

// GetByTokenDigest finds a user by API token digest.
func (s *Store) GetByTokenDigest(_ context.Context, digest string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if u.TokenDigest != "" && u.TokenDigest == digest {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Task returns a committed task snapshot.
func (s *Store) Task(taskID string) (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.tasks[taskID]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// HistoryEvents returns the committed events of a task in insertion order.
func (s *Store) HistoryEvents(taskID string) []*domain.HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterHistory(s.data.history, taskID)
}

// Comments returns the committed comments of a task.
func (s *Store) Comments(taskID string) []*domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterComments(s.data.comments, taskID)
}

// Attachments returns the committed attachments of a task.
func (s *Store) Attachments(taskID string) []*domain.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAttachments(s.data.attachments, taskID)
}

// Notifications returns every committed notification in insertion order.
func (s *Store) Notifications() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Notification, 0, len(s.data.notifications))
	for _, n := range s.data.notifications {
		copied := *n
		out = append(out, &copied)
	}
	return out
}

// ListByRecipient returns a user's notifications, newest first.
func (s *Store) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for i := len(s.data.notifications) - 1; i >= 0; i-- {
		n := s.data.notifications[i]
		if n.RecipientUserID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, nil
}

// CountUnread counts a user's unread notifications.
func (s *Store) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.data.notifications {
		if n.RecipientUserID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkRead flags one of the recipient's notifications as read.
func (s *Store) MarkRead(_ context.Context, recipientID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.data.notifications {
		if n.ID == notificationID && n.RecipientUserID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// MarkAllRead flags every unread notification of the recipient.
func (s *Store) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.data.notifications {
		if n.RecipientUserID == recipientID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

// Delete removes one of the recipient's notifications.
func (s *Store) Delete(_ context.Context, recipientID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.data.notifications {
		if n.ID == notificationID && n.RecipientUserID == recipientID {
			s.data.notifications = append(s.data.notifications[:i], s.data.notifications[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func filterHistory(events []*domain.HistoryEvent, taskID string) []*domain.HistoryEvent {
	var out []*domain.HistoryEvent
	for _, e := range events {
		if e.TaskID == taskID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}

func filterComments(comments []*domain.Comment, taskID string) []*domain.Comment {
	var out []*domain.Comment
	for _, c := range comments {
		if c.TaskID == taskID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out
}

func filterAttachments(attachments map[string]*domain.Attachment, taskID string) []*domain.Attachment {
	var out []*domain.Attachment
	for _, a := range attachments {
		if a.TaskID == taskID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out
}
