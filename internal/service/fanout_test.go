package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/service"
)

func recipientIDs(rs []service.Recipient) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.UserID
	}
	return ids
}

func TestFanout_TaskCreated(t *testing.T) {
	project := &domain.Project{Name: "Apollo"}
	assignee := "bob"

	rs := service.Fanout(service.FanoutEvent{Kind: service.FanoutTaskCreated, ActorUserID: "alice"},
		&domain.Task{Title: "Launch", CreatedByUserID: "alice", AssignedToUserID: &assignee}, project)
	require.Len(t, rs, 1)
	assert.Equal(t, "bob", rs[0].UserID)
	assert.Equal(t, domain.NotificationTypeInfo, rs[0].Type)
	assert.Equal(t, "You have been assigned a new task 'Launch' in project 'Apollo'", rs[0].Message)

	rs = service.Fanout(service.FanoutEvent{Kind: service.FanoutTaskCreated, ActorUserID: "alice"},
		&domain.Task{Title: "Launch", CreatedByUserID: "alice"}, project)
	assert.Empty(t, rs)
}

func TestFanout_Reassigned(t *testing.T) {
	project := &domain.Project{Name: "Apollo"}
	oldAssignee, newAssignee := "bob", "carol"

	tests := []struct {
		name     string
		previous *string
		current  *string
		want     []string
	}{
		{name: "new assignee notified, old one not", previous: &oldAssignee, current: &newAssignee, want: []string{"carol"}},
		{name: "first assignment", previous: nil, current: &newAssignee, want: []string{"carol"}},
		{name: "unassigning notifies nobody", previous: &oldAssignee, current: nil, want: []string{}},
		{name: "same assignee notifies nobody", previous: &newAssignee, current: &newAssignee, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &domain.Task{Title: "Launch", CreatedByUserID: "alice", AssignedToUserID: tt.current}
			rs := service.Fanout(service.FanoutEvent{
				Kind:               service.FanoutReassigned,
				ActorUserID:        "alice",
				PreviousAssigneeID: tt.previous,
			}, task, project)
			assert.Equal(t, tt.want, recipientIDs(rs))
		})
	}
}

func TestFanout_CommentAdded(t *testing.T) {
	bob, alice := "bob", "alice"

	tests := []struct {
		name     string
		actor    string
		creator  string
		assignee *string
		want     []string
	}{
		{name: "third party notifies assignee and creator", actor: "carol", creator: "alice", assignee: &bob, want: []string{"bob", "alice"}},
		{name: "assignee comments, creator notified", actor: "bob", creator: "alice", assignee: &bob, want: []string{"alice"}},
		{name: "creator comments, assignee notified", actor: "alice", creator: "alice", assignee: &bob, want: []string{"bob"}},
		{name: "assignee is creator and comments", actor: "alice", creator: "alice", assignee: &alice, want: []string{}},
		{name: "assignee is creator, other comments once", actor: "carol", creator: "alice", assignee: &alice, want: []string{"alice"}},
		{name: "no assignee", actor: "carol", creator: "alice", assignee: nil, want: []string{"alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &domain.Task{Title: "Launch", CreatedByUserID: tt.creator, AssignedToUserID: tt.assignee}
			rs := service.Fanout(service.FanoutEvent{Kind: service.FanoutCommentAdded, ActorUserID: tt.actor}, task, nil)
			assert.Equal(t, tt.want, recipientIDs(rs))
			for _, r := range rs {
				assert.Equal(t, "New comment on task 'Launch'", r.Message)
			}
		})
	}
}

func TestFanout_TruncatesMessage(t *testing.T) {
	assignee := "bob"
	task := &domain.Task{Title: strings.Repeat("t", 600), CreatedByUserID: "alice", AssignedToUserID: &assignee}

	rs := service.Fanout(service.FanoutEvent{Kind: service.FanoutTaskCreated}, task, &domain.Project{Name: "P"})
	require.Len(t, rs, 1)
	assert.Len(t, []rune(rs[0].Message), domain.MaxNotificationMessageLength)
}
