package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

// Sentinel filter values sent by the UI meaning "no filtering".
const (
	filterAllStatuses   = "all_statuses"
	filterAllPriorities = "all_priorities"
	filterAllDates      = "all_dates"
)

// CreateTask inserts a new task. Status defaults to todo. If the task is
// assigned to someone other than its creator, a task_assigned notification
// is recorded for the assignee.
func (s *SQLiteStore) CreateTask(
	ctx context.Context,
	task model.Task,
) (*model.Task, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.StatusTodo
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			title, description, due_date, priority, status,
			created_by_id, assigned_to_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, task.DueDate.UTC(), task.Priority, task.Status,
		task.CreatedByID, task.AssignedToID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	task.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new task id: %w", err)
	}

	if task.AssignedToID != task.CreatedByID {
		creator, err := s.GetUser(ctx, task.CreatedByID)
		if err != nil {
			return nil, fmt.Errorf("loading task creator: %w", err)
		}
		_, err = s.CreateNotification(ctx, model.Notification{
			UserID:   task.AssignedToID,
			SenderID: task.CreatedByID,
			TaskID:   &task.ID,
			Type:     model.NotificationTaskAssigned,
			Message:  fmt.Sprintf("%s assigned you a new task", creator.Username),
			Details:  task.Title,
		})
		if err != nil {
			return nil, err
		}
	}

	return &task, nil
}

// GetTask retrieves a single task by id.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	err := s.db.GetContext(ctx, &t, "SELECT * FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &t, nil
}

// UpdateTask applies a partial update and bumps updated_at. Reassignment
// records a task_assigned notification for the new assignee; a status
// transition into done records a task_updated notification for the creator
// when creator and assignee differ.
//
// When the update changes status, the write is conditional on the status
// observed beforehand. A concurrent writer that changes the status first
// wins; the losing update returns the fresh row and emits no notification,
// so completion notifications are at most once.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	id int64,
	upd TaskUpdate,
) (*model.Task, error) {
	old, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, upd.DueDate.UTC())
	}
	if upd.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *upd.Priority)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.AssignedToID != nil {
		sets = append(sets, "assigned_to_id = ?")
		args = append(args, *upd.AssignedToID)
	}

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	statusChanging := upd.Status != nil && *upd.Status != old.Status
	if statusChanging {
		query += " AND status = ?"
		args = append(args, old.Status)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating task %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Either the row is gone or a concurrent status change won the race.
		return s.GetTask(ctx, id)
	}

	if upd.AssignedToID != nil && *upd.AssignedToID != old.AssignedToID {
		creator, err := s.GetUser(ctx, old.CreatedByID)
		if err != nil {
			return nil, fmt.Errorf("loading task creator: %w", err)
		}
		_, err = s.CreateNotification(ctx, model.Notification{
			UserID:   *upd.AssignedToID,
			SenderID: old.CreatedByID,
			TaskID:   &id,
			Type:     model.NotificationTaskAssigned,
			Message:  fmt.Sprintf("%s assigned you a task", creator.Username),
			Details:  old.Title,
		})
		if err != nil {
			return nil, err
		}
	}

	if statusChanging && *upd.Status == model.StatusDone &&
		old.CreatedByID != old.AssignedToID {
		_, err = s.CreateNotification(ctx, model.Notification{
			UserID:   old.CreatedByID,
			SenderID: old.AssignedToID,
			TaskID:   &id,
			Type:     model.NotificationTaskUpdated,
			Message:  "Task marked as complete",
			Details:  old.Title,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.GetTask(ctx, id)
}

// UpdateTaskStatus changes only the status of a task. The write is
// conditional on the previously observed status (see UpdateTask). When a
// task transitions into done and creator and assignee differ, the creator
// is notified that the assignee completed it.
func (s *SQLiteStore) UpdateTaskStatus(
	ctx context.Context,
	id int64,
	status string,
) (*model.Task, error) {
	old, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		status, time.Now().UTC(), id, old.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("updating status of task %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return s.GetTask(ctx, id)
	}

	if status == model.StatusDone && old.Status != model.StatusDone &&
		old.CreatedByID != old.AssignedToID {
		assignee, err := s.GetUser(ctx, old.AssignedToID)
		if err != nil {
			return nil, fmt.Errorf("loading task assignee: %w", err)
		}
		_, err = s.CreateNotification(ctx, model.Notification{
			UserID:   old.CreatedByID,
			SenderID: old.AssignedToID,
			TaskID:   &id,
			Type:     model.NotificationTaskUpdated,
			Message:  fmt.Sprintf("%s completed a task", assignee.Username),
			Details:  old.Title,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.GetTask(ctx, id)
}

// UpdateTaskAssignee reassigns a task. The new assignee is always notified,
// with the acting user as the sender.
func (s *SQLiteStore) UpdateTaskAssignee(
	ctx context.Context,
	id, assigneeID, actorID int64,
) (*model.Task, error) {
	old, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET assigned_to_id = ?, updated_at = ? WHERE id = ?",
		assigneeID, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("reassigning task %d: %w", id, err)
	}

	actor, err := s.GetUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading acting user: %w", err)
	}
	_, err = s.CreateNotification(ctx, model.Notification{
		UserID:   assigneeID,
		SenderID: actorID,
		TaskID:   &id,
		Type:     model.NotificationTaskAssigned,
		Message:  fmt.Sprintf("%s assigned you a task", actor.Username),
		Details:  old.Title,
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(ctx, id)
}

// DeleteTask removes a task and, first, every notification referencing it.
// The notifications must go before the task row or the foreign key rejects
// the delete.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notifications WHERE task_id = ?", id); err != nil {
		return fmt.Errorf("deleting notifications for task %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// TasksByAssignee lists tasks assigned to userID, most recently touched
// first.
func (s *SQLiteStore) TasksByAssignee(
	ctx context.Context,
	userID int64,
	filter TaskFilter,
) (*TaskPage, error) {
	return s.listTasks(ctx, "assigned_to_id = ?", []interface{}{userID},
		"updated_at DESC", filter)
}

// TasksByCreator lists tasks created by userID, most recently touched first.
func (s *SQLiteStore) TasksByCreator(
	ctx context.Context,
	userID int64,
	filter TaskFilter,
) (*TaskPage, error) {
	return s.listTasks(ctx, "created_by_id = ?", []interface{}{userID},
		"updated_at DESC", filter)
}

// OverdueTasks lists unfinished tasks past their due date that userID
// created or is assigned to, soonest-overdue first.
func (s *SQLiteStore) OverdueTasks(
	ctx context.Context,
	userID int64,
	filter TaskFilter,
) (*TaskPage, error) {
	return s.listTasks(ctx,
		"due_date < ? AND status != ? AND (assigned_to_id = ? OR created_by_id = ?)",
		[]interface{}{time.Now().UTC(), model.StatusDone, userID, userID},
		"due_date ASC", filter)
}

// listTasks runs a filtered task query and resolves the involved users.
func (s *SQLiteStore) listTasks(
	ctx context.Context,
	baseWhere string,
	baseArgs []interface{},
	orderBy string,
	filter TaskFilter,
) (*TaskPage, error) {
	conditions := []string{baseWhere}
	args := baseArgs
	conditions, args = applyTaskFilter(conditions, args, filter)

	query := "SELECT * FROM tasks WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY " + orderBy

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	users, err := s.usersForTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}

	return &TaskPage{Tasks: tasks, Users: users}, nil
}

// applyTaskFilter appends the filter's conditions. Every list endpoint goes
// through this one function so filtering behaves identically at each call
// site.
func applyTaskFilter(
	conditions []string,
	args []interface{},
	filter TaskFilter,
) ([]string, []interface{}) {
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if filter.Status != "" && filter.Status != filterAllStatuses {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" && filter.Priority != filterAllPriorities {
		conditions = append(conditions, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.DueDate != "" && filter.DueDate != filterAllDates {
		now := time.Now().UTC()
		switch filter.DueDate {
		case model.BucketToday:
			start := startOfDay(now)
			conditions = append(conditions, "due_date >= ? AND due_date < ?")
			args = append(args, start, start.AddDate(0, 0, 1))
		case model.BucketThisWeek:
			start := startOfWeek(now)
			conditions = append(conditions, "due_date >= ? AND due_date < ?")
			args = append(args, start, start.AddDate(0, 0, 7))
		case model.BucketNextWeek:
			start := startOfWeek(now).AddDate(0, 0, 7)
			conditions = append(conditions, "due_date >= ? AND due_date < ?")
			args = append(args, start, start.AddDate(0, 0, 7))
		case model.BucketOverdue:
			conditions = append(conditions, "due_date < ? AND status != ?")
			args = append(args, now, model.StatusDone)
		}
	}
	return conditions, args
}

// usersForTasks loads the user records referenced by the tasks, keyed by id.
func (s *SQLiteStore) usersForTasks(
	ctx context.Context,
	tasks []model.Task,
) (map[int64]model.User, error) {
	userMap := make(map[int64]model.User)
	if len(tasks) == 0 {
		return userMap, nil
	}

	ids := make(map[int64]struct{})
	for _, t := range tasks {
		ids[t.CreatedByID] = struct{}{}
		ids[t.AssignedToID] = struct{}{}
	}
	idList := make([]int64, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}

	query, args, err := sqlx.In("SELECT * FROM users WHERE id IN (?)", idList)
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var users []model.User
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying task users: %w", err)
	}

	for _, u := range users {
		userMap[u.ID] = u
	}
	return userMap, nil
}

// TaskStats aggregates counters over every task the user created or is
// assigned to.
func (s *SQLiteStore) TaskStats(
	ctx context.Context,
	userID int64,
) (*model.TaskStats, error) {
	var row struct {
		Total      int `db:"total"`
		Completed  int `db:"completed"`
		InProgress int `db:"in_progress"`
		Overdue    int `db:"overdue"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = 'in-progress' THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN due_date < ? AND status != 'done' THEN 1 ELSE 0 END), 0) AS overdue
		FROM tasks
		WHERE assigned_to_id = ? OR created_by_id = ?`,
		time.Now().UTC(), userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating task stats: %w", err)
	}
	return &model.TaskStats{
		Total:      row.Total,
		Completed:  row.Completed,
		InProgress: row.InProgress,
		Overdue:    row.Overdue,
	}, nil
}

// TeamStats aggregates assigned-task counters for every user.
func (s *SQLiteStore) TeamStats(ctx context.Context) ([]model.TeamMemberStats, error) {
	var stats []model.TeamMemberStats
	err := s.db.SelectContext(ctx, &stats, `
		SELECT
			u.id AS user_id,
			u.username AS username,
			COUNT(t.id) AS total_tasks,
			COALESCE(SUM(CASE WHEN t.status = 'done' THEN 1 ELSE 0 END), 0) AS completed_tasks,
			COALESCE(SUM(CASE WHEN t.status = 'in-progress' THEN 1 ELSE 0 END), 0) AS in_progress_tasks,
			COALESCE(SUM(CASE WHEN t.due_date < ? AND t.status != 'done' THEN 1 ELSE 0 END), 0) AS overdue_tasks
		FROM users u
		LEFT JOIN tasks t ON t.assigned_to_id = u.id
		GROUP BY u.id, u.username
		ORDER BY u.username`,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating team stats: %w", err)
	}
	return stats, nil
}

// TasksNeedingOverdueAlert finds unfinished tasks past their due date whose
// assignee has not yet received a task_overdue notification for them.
func (s *SQLiteStore) TasksNeedingOverdueAlert(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks
		WHERE due_date < ? AND status != 'done'
		AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.task_id = tasks.id
			AND n.user_id = tasks.assigned_to_id
			AND n.type = 'task_overdue'
		)
		ORDER BY due_date`,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks needing overdue alerts: %w", err)
	}
	return tasks, nil
}

// startOfDay returns midnight of t's day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Sunday starting t's week.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}
