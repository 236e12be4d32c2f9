package models

import "time"

// NotificationType classifies user-facing notifications.
type NotificationType string

const (
	NotificationTypeInfo          NotificationType = "info"
	NotificationTypeDocumentError NotificationType = "document_error"
	NotificationTypeIdleAlert     NotificationType = "idle_alert"
	NotificationTypePendingReview NotificationType = "pending_review"
	NotificationTypeOffer         NotificationType = "offer"
)

// Notification is emitted for user-actionable state transitions.
type Notification struct {
	ID             string           `db:"id" json:"id"`
	UserID         string           `db:"user_id" json:"user_id"`
	Title          string           `db:"title" json:"title"`
	Message        string           `db:"message" json:"message"`
	Type           NotificationType `db:"type" json:"type"`
	ActionRequired bool             `db:"action_required" json:"action_required"`
	ReadAt         *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}
