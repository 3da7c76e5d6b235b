package domain

import "time"

// Comment content limits.
const (
	MinCommentLength = 1
	MaxCommentLength = 1000
)

// Comment is an immutable remark left on a task.
type Comment struct {
	ID           string
	TaskID       string
	AuthorUserID string
	Content      string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
