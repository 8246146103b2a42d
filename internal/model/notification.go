package model

import "time"

// Notification types.
const (
	NotificationTaskAssigned = "task_assigned"
	NotificationTaskUpdated  = "task_updated"
	NotificationTaskOverdue  = "task_overdue"
)

// Notification records that an event relevant to a user occurred.
// Notifications are created only as side-effects of task mutations,
// never directly by a client. IsRead transitions false->true exactly
// once; it is never reset through the API.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	SenderID  int64     `json:"senderId" db:"sender_id"`
	TaskID    *int64    `json:"taskId,omitempty" db:"task_id"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	Details   string    `json:"details" db:"details"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NotificationView is a notification joined with the sender's display
// name, shaped for the notification feed.
type NotificationView struct {
	ID         int64     `json:"id"`
	Message    string    `json:"message"`
	Details    string    `json:"details"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
	Type       string    `json:"type"`
	SenderName string    `json:"senderName"`
}
