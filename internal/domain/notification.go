package domain

import "time"

// NotificationType represents the severity shown to the recipient.
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "Info"
	NotificationTypeSuccess NotificationType = "Success"
	NotificationTypeWarning NotificationType = "Warning"
	NotificationTypeDanger  NotificationType = "Danger"
)

// IsValid checks if the type is one of the allowed values.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeInfo, NotificationTypeSuccess,
		NotificationTypeWarning, NotificationTypeDanger:
		return true
	default:
		return false
	}
}

// MaxNotificationMessageLength is the stored message limit.
const MaxNotificationMessageLength = 500

// Notification is a message addressed to one user.
// Only the recipient may flip IsRead or delete it.
type Notification struct {
	ID              string
	RecipientUserID string
	Message         string
	Type            NotificationType
	ProjectID       *string
	IsRead          bool
	CreatedAt       time.Time
}
