package domain

import "time"

const (
	// MaxAttachmentSize is the largest accepted upload (10 MiB).
	MaxAttachmentSize int64 = 10 << 20

	// MaxFileNameLength is the stored file name limit.
	MaxFileNameLength = 255
)

// Attachment is the metadata of a file uploaded to a task.
// The bytes live in blob storage under FilePath.
type Attachment struct {
	ID               string
	TaskID           string
	UploadedByUserID string
	FileName         string
	FilePath         string
	FileType         *string
	FileSize         int64
	UploadedAt       time.Time
}
