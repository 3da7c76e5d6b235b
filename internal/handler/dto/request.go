package dto

import "time"

// CreateTaskRequest represents the request body for POST /projects/{id}/tasks.
type CreateTaskRequest struct {
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	Priority         string     `json:"priority,omitempty"`
	AssignedToUserID *string    `json:"assigned_to_user_id,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	EstimatedHours   int        `json:"estimated_hours,omitempty"`
	Tags             *string    `json:"tags,omitempty"`
}

// UpdateTaskRequest represents the request body for PATCH /tasks/{id}.
// Absent fields are left unchanged; assigned_to_user_id "" unassigns.
type UpdateTaskRequest struct {
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Status             *string    `json:"status,omitempty"`
	Priority           *string    `json:"priority,omitempty"`
	AssignedToUserID   *string    `json:"assigned_to_user_id,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	ClearDueDate       bool       `json:"clear_due_date,omitempty"`
	ProgressPercentage *int       `json:"progress_percentage,omitempty"`
	EstimatedHours     *int       `json:"estimated_hours,omitempty"`
	ActualHours        *int       `json:"actual_hours,omitempty"`
	Tags               *string    `json:"tags,omitempty"`
	ExpectedVersion    *int64     `json:"expected_version,omitempty"`
}

// ChangeStatusRequest represents the request body for PATCH /tasks/{id}/status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// CommentRequest represents the request body for POST /tasks/{id}/comments.
type CommentRequest struct {
	Content string `json:"content"`
}
