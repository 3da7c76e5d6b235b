package dto

import (
	"time"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/service"
)

// TaskResponse represents a task.
type TaskResponse struct {
	ID                 string     `json:"id"`
	ProjectID          string     `json:"project_id"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	AssignedToUserID   *string    `json:"assigned_to_user_id"`
	CreatedByUserID    string     `json:"created_by_user_id"`
	DueDate            *time.Time `json:"due_date"`
	StartedAt          *time.Time `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	ProgressPercentage int        `json:"progress_percentage"`
	EstimatedHours     int        `json:"estimated_hours"`
	ActualHours        int        `json:"actual_hours"`
	Tags               *string    `json:"tags"`
	IsOverdue          bool       `json:"is_overdue"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CommentResponse represents a comment.
type CommentResponse struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	AuthorUserID string     `json:"author_user_id"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// AttachmentResponse represents attachment metadata. The storage path is not exposed.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	TaskID           string    `json:"task_id"`
	UploadedByUserID string    `json:"uploaded_by_user_id"`
	FileName         string    `json:"file_name"`
	FileType         *string   `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// HistoryEventResponse represents one audit record.
type HistoryEventResponse struct {
	ID          string    `json:"id"`
	ActorUserID string    `json:"actor_user_id"`
	Action      string    `json:"action"`
	Details     *string   `json:"details"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationResponse represents a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ProjectID *string   `json:"project_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDetailResponse is the response for GET /tasks/{id}.
type TaskDetailResponse struct {
	Task         TaskResponse           `json:"task"`
	Capabilities service.Capabilities   `json:"capabilities"`
	Comments     []CommentResponse      `json:"comments"`
	Attachments  []AttachmentResponse   `json:"attachments"`
	History      []HistoryEventResponse `json:"history"`
}

// MutationResponse is returned by every mutating task endpoint.
type MutationResponse struct {
	Task          *TaskResponse          `json:"task,omitempty"`
	Comment       *CommentResponse       `json:"comment,omitempty"`
	Attachment    *AttachmentResponse    `json:"attachment,omitempty"`
	Events        []HistoryEventResponse `json:"events"`
	Notifications int                    `json:"notifications"`
	Changed       bool                   `json:"changed"`
}

// TasksListResponse is a page of tasks.
type TasksListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// BoardResponse is the response for GET /projects/{id}/tasks.
type BoardResponse struct {
	ProjectID     string         `json:"project_id"`
	ProjectName   string         `json:"project_name"`
	CanCreateTask bool           `json:"can_create_task"`
	StatusCounts  map[string]int `json:"status_counts"`
	TasksListResponse
}

// NotificationsResponse is the response for GET /notifications.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// UnreadCountResponse is the response for GET /notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse is the response for POST /notifications/read-all.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:                 task.ID,
		ProjectID:          task.ProjectID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             string(task.Status),
		Priority:           string(task.Priority),
		AssignedToUserID:   task.AssignedToUserID,
		CreatedByUserID:    task.CreatedByUserID,
		DueDate:            task.DueDate,
		StartedAt:          task.StartedAt,
		CompletedAt:        task.CompletedAt,
		ProgressPercentage: task.ProgressPercentage,
		EstimatedHours:     task.EstimatedHours,
		ActualHours:        task.ActualHours,
		Tags:               task.Tags,
		IsOverdue:          task.IsOverdue(now),
		Version:            task.Version,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}

// ToTaskResponses converts a slice of tasks.
func ToTaskResponses(tasks []*domain.Task, now time.Time) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskResponse(t, now)
	}
	return out
}

// ToCommentResponse converts domain.Comment to CommentResponse.
func ToCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		TaskID:       c.TaskID,
		AuthorUserID: c.AuthorUserID,
		Content:      c.Content,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToAttachmentResponse converts domain.Attachment to AttachmentResponse.
func ToAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		TaskID:           a.TaskID,
		UploadedByUserID: a.UploadedByUserID,
		FileName:         a.FileName,
		FileType:         a.FileType,
		FileSize:         a.FileSize,
		UploadedAt:       a.UploadedAt,
	}
}

// ToHistoryEventResponses converts history events.
func ToHistoryEventResponses(events []*domain.HistoryEvent) []HistoryEventResponse {
	out := make([]HistoryEventResponse, len(events))
	for i, e := range events {
		out[i] = HistoryEventResponse{
			ID:          e.ID,
			ActorUserID: e.ActorUserID,
			Action:      string(e.Action),
			Details:     e.Details,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		}
	}
	return out
}

// ToNotificationResponses converts notifications.
func ToNotificationResponses(notifications []*domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = NotificationResponse{
			ID:        n.ID,
			Message:   n.Message,
			Type:      string(n.Type),
			ProjectID: n.ProjectID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}

// ToMutationResponse converts a service result.
func ToMutationResponse(res *service.Result, now time.Time) MutationResponse {
	resp := MutationResponse{
		Events:        ToHistoryEventResponses(res.Events),
		Notifications: len(res.Notifications),
		Changed:       res.Changed,
	}
	if res.Task != nil {
		task := ToTaskResponse(res.Task, now)
		resp.Task = &task
	}
	if res.Comment != nil {
		comment := ToCommentResponse(res.Comment)
		resp.Comment = &comment
	}
	if res.Attachment != nil {
		attachment := ToAttachmentResponse(res.Attachment)
		resp.Attachment = &attachment
	}
	return resp
}

// ToTaskDetailResponse converts the read view of a task.
func ToTaskDetailResponse(d *service.TaskDetails, now time.Time) TaskDetailResponse {
	comments := make([]CommentResponse, len(d.Comments))
	for i, c := range d.Comments {
		comments[i] = ToCommentResponse(c)
	}
	attachments := make([]AttachmentResponse, len(d.Attachments))
	for i, a := range d.Attachments {
		attachments[i] = ToAttachmentResponse(a)
	}
	return TaskDetailResponse{
		Task:         ToTaskResponse(d.Task, now),
		Capabilities: d.Capabilities,
		Comments:     comments,
		Attachments:  attachments,
		History:      ToHistoryEventResponses(d.History),
	}
}

// ToBoardResponse converts a project board.
func ToBoardResponse(b *service.Board, limit, offset int, now time.Time) BoardResponse {
	counts := make(map[string]int, len(b.StatusCounts))
	for status, n := range b.StatusCounts {
		counts[string(status)] = n
	}
	return BoardResponse{
		ProjectID:     b.Project.ID,
		ProjectName:   b.Project.Name,
		CanCreateTask: b.CanCreateTask,
		StatusCounts:  counts,
		TasksListResponse: TasksListResponse{
			Tasks:  ToTaskResponses(b.Tasks, now),
			Total:  b.Total,
			Limit:  limit,
			Offset: offset,
		},
	}
}
