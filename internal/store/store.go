package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already taken")

// TaskFilter narrows task list queries. Zero values (and the explicit
// "all_*" sentinels sent by the UI) mean "no filtering on that axis".
// The same filter is applied identically by every list query.
type TaskFilter struct {
	Search   string // substring match over title + description
	Status   string // one of the model.Status* values
	Priority string // one of the model.Priority* values
	DueDate  string // one of the model.Bucket* values
}

// TaskPage is a list of tasks together with the user records referenced
// by them (creators and assignees), keyed by user id.
type TaskPage struct {
	Tasks []model.Task         `json:"tasks"`
	Users map[int64]model.User `json:"users"`
}

// TaskUpdate is a partial task mutation. Nil fields are left unchanged.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Priority     *string
	Status       *string
	AssignedToID *int64
}

// NotificationFeed is a user's recent notifications plus their unread count.
type NotificationFeed struct {
	Notifications []model.NotificationView `json:"notifications"`
	UnreadCount   int                      `json:"unreadCount"`
}

// Store defines the persistence interface for users, tasks, and
// notifications.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (*model.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status string) (*model.Task, error)
	UpdateTaskAssignee(ctx context.Context, id, assigneeID, actorID int64) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	TasksByAssignee(ctx context.Context, userID int64, filter TaskFilter) (*TaskPage, error)
	TasksByCreator(ctx context.Context, userID int64, filter TaskFilter) (*TaskPage, error)
	OverdueTasks(ctx context.Context, userID int64, filter TaskFilter) (*TaskPage, error)
	TaskStats(ctx context.Context, userID int64) (*model.TaskStats, error)
	TeamStats(ctx context.Context) ([]model.TeamMemberStats, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	Notifications(ctx context.Context, userID int64) (*NotificationFeed, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	UnreadNotificationCount(ctx context.Context, userID int64) (int, error)

	// === Overdue alerts ===

	TasksNeedingOverdueAlert(ctx context.Context) ([]model.Task, error)
}
