package ws

// Server-to-client and client-to-server message types.
const (
	TypeWelcome      = "welcome"
	TypeAuth         = "auth"
	TypeAuthSuccess  = "auth_success"
	TypeNotification = "notification"
	TypeTaskUpdate   = "task_update"
)

// Broadcast action tags attached to task_update envelopes.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionStatusUpdated   = "status_updated"
	ActionAssigneeUpdated = "assignee_updated"
	ActionDeleted         = "deleted"
)

// Envelope is the wire format for every server-to-client message.
type Envelope struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ClientMessage is the type-tagged JSON a client may send. Only the auth
// handshake is recognized; anything else is ignored.
type ClientMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

// NotificationPayload is the real-time notification pushed to a targeted
// user. It mirrors what the notification feed shows but is synthesized at
// dispatch time, not read back from the store.
type NotificationPayload struct {
	ID      int64  `json:"id"`
	TaskID  int64  `json:"taskId"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// TaskUpdatePayload is broadcast to every connection after a task mutation
// so clients can invalidate their local caches.
type TaskUpdatePayload struct {
	Action string      `json:"action"`
	Task   interface{} `json:"task,omitempty"`
	TaskID int64       `json:"taskId,omitempty"`
}
