package model

import "time"

// Task priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task workflow statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// Due-date bucket names accepted by list filters.
const (
	BucketToday    = "today"
	BucketThisWeek = "this_week"
	BucketNextWeek = "next_week"
	BucketOverdue  = "overdue"
)

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidStatus reports whether s is one of the known workflow statuses.
func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusReview || s == StatusDone
}

// Task is a unit of work with a creator, an assignee, and a due date.
// The creator is fixed at creation time; the assignee may change.
type Task struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	DueDate      time.Time `json:"dueDate" db:"due_date"`
	Priority     string    `json:"priority" db:"priority"`
	Status       string    `json:"status" db:"status"`
	CreatedByID  int64     `json:"createdById" db:"created_by_id"`
	AssignedToID int64     `json:"assignedToId" db:"assigned_to_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TaskStats aggregates task counters for a single user's dashboard.
type TaskStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Overdue    int `json:"overdue"`
}

// TeamMemberStats aggregates assigned-task counters for one team member.
type TeamMemberStats struct {
	UserID          int64  `json:"userId" db:"user_id"`
	Username        string `json:"username" db:"username"`
	TotalTasks      int    `json:"totalTasks" db:"total_tasks"`
	CompletedTasks  int    `json:"completedTasks" db:"completed_tasks"`
	InProgressTasks int    `json:"inProgressTasks" db:"in_progress_tasks"`
	OverdueTasks    int    `json:"overdueTasks" db:"overdue_tasks"`
}
