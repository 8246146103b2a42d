package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func newUser(t *testing.T, s *store.SQLiteStore, username string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return u
}

func newTask(t *testing.T, s *store.SQLiteStore, task model.Task) *model.Task {
	t.Helper()
	if task.Title == "" {
		task.Title = "Fix bug"
	}
	if task.Description == "" {
		task.Description = "Crashes on save"
	}
	if task.Priority == "" {
		task.Priority = model.PriorityHigh
	}
	if task.DueDate.IsZero() {
		task.DueDate = time.Now().UTC().Add(24 * time.Hour)
	}
	created, err := s.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return created
}

func TestCreateTask_NotifiesAssignee(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	assignee := newUser(t, s, "bob")

	task := newTask(t, s, model.Task{
		CreatedByID:  creator.ID,
		AssignedToID: assignee.ID,
	})

	assert.Equal(t, model.StatusTodo, task.Status)
	assert.NotZero(t, task.ID)

	feed, err := s.Notifications(ctx, assignee.ID)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, model.NotificationTaskAssigned, feed.Notifications[0].Type)
	assert.Equal(t, "alice", feed.Notifications[0].SenderName)
	assert.Equal(t, task.Title, feed.Notifications[0].Details)
	assert.Equal(t, 1, feed.UnreadCount)
}

func TestCreateTask_SelfAssignedNoNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	newTask(t, s, model.Task{CreatedByID: u.ID, AssignedToID: u.ID})

	count, err := s.UnreadNotificationCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateTask_PartialAndReassign(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	first := newUser(t, s, "bob")
	second := newUser(t, s, "carol")

	task := newTask(t, s, model.Task{CreatedByID: creator.ID, AssignedToID: first.ID})

	title := "Fix crash on save"
	updated, err := s.UpdateTask(ctx, task.ID, store.TaskUpdate{
		Title:        &title,
		AssignedToID: &second.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, second.ID, updated.AssignedToID)
	assert.Equal(t, task.Description, updated.Description, "unset fields stay unchanged")
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt) || updated.UpdatedAt.Equal(task.UpdatedAt))

	feed, err := s.Notifications(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, model.NotificationTaskAssigned, feed.Notifications[0].Type)
}

func TestUpdateTaskStatus_DoneNotifiesCreatorOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	assignee := newUser(t, s, "bob")

	task := newTask(t, s, model.Task{CreatedByID: creator.ID, AssignedToID: assignee.ID})

	updated, err := s.UpdateTaskStatus(ctx, task.ID, model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, updated.Status)

	// Completing an already-done task must not notify again.
	_, err = s.UpdateTaskStatus(ctx, task.ID, model.StatusDone)
	require.NoError(t, err)

	feed, err := s.Notifications(ctx, creator.ID)
	require.NoError(t, err)

	var done int
	for _, n := range feed.Notifications {
		if n.Type == model.NotificationTaskUpdated {
			done++
		}
	}
	assert.Equal(t, 1, done)
}

func TestUpdateTaskStatus_SelfAssignedDoneNoNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	task := newTask(t, s, model.Task{CreatedByID: u.ID, AssignedToID: u.ID})

	_, err := s.UpdateTaskStatus(ctx, task.ID, model.StatusDone)
	require.NoError(t, err)

	count, err := s.UnreadNotificationCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateTaskStatus_UnknownTask(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.UpdateTaskStatus(context.Background(), 999, model.StatusDone)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTaskAssignee_AlwaysNotifies(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	assignee := newUser(t, s, "bob")

	task := newTask(t, s, model.Task{CreatedByID: creator.ID, AssignedToID: creator.ID})

	updated, err := s.UpdateTaskAssignee(ctx, task.ID, assignee.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, assignee.ID, updated.AssignedToID)

	feed, err := s.Notifications(ctx, assignee.ID)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, model.NotificationTaskAssigned, feed.Notifications[0].Type)
}

func TestDeleteTask_CascadesNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	assignee := newUser(t, s, "bob")

	task := newTask(t, s, model.Task{CreatedByID: creator.ID, AssignedToID: assignee.ID})

	count, err := s.UnreadNotificationCount(ctx, assignee.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, s.DeleteTask(ctx, task.ID))

	_, err = s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err = s.UnreadNotificationCount(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "no orphaned notification rows remain")

	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), store.ErrNotFound)
}

func TestOverdueTasks_PolicyAndOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	other := newUser(t, s, "bob")
	now := time.Now().UTC()

	older := newTask(t, s, model.Task{
		Title: "Oldest overdue", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.Add(-72 * time.Hour),
	})
	newer := newTask(t, s, model.Task{
		Title: "Newer overdue", CreatedByID: other.ID, AssignedToID: u.ID,
		DueDate: now.Add(-24 * time.Hour),
	})
	// Done tasks never count as overdue.
	done := newTask(t, s, model.Task{
		Title: "Finished late", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.Add(-48 * time.Hour),
	})
	_, err := s.UpdateTaskStatus(ctx, done.ID, model.StatusDone)
	require.NoError(t, err)
	// Future tasks are not overdue.
	newTask(t, s, model.Task{
		Title: "Future work", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.Add(24 * time.Hour),
	})
	// Unrelated users' tasks are excluded.
	newTask(t, s, model.Task{
		Title: "Someone else's", CreatedByID: other.ID, AssignedToID: other.ID,
		DueDate: now.Add(-24 * time.Hour),
	})

	page, err := s.OverdueTasks(ctx, u.ID, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	assert.Equal(t, older.ID, page.Tasks[0].ID, "soonest-overdue first")
	assert.Equal(t, newer.ID, page.Tasks[1].ID)

	// Both referenced users resolve in the page's user map.
	assert.Contains(t, page.Users, u.ID)
	assert.Contains(t, page.Users, other.ID)
}

func TestTaskFilter_AppliedIdenticallyAcrossViews(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	now := time.Now().UTC()

	newTask(t, s, model.Task{
		Title: "Deploy staging", Description: "Ship the release branch",
		CreatedByID: u.ID, AssignedToID: u.ID,
		Priority: model.PriorityHigh, DueDate: now.Add(-2 * time.Hour),
	})
	newTask(t, s, model.Task{
		Title: "Write docs", Description: "Cover the deploy runbook",
		CreatedByID: u.ID, AssignedToID: u.ID,
		Priority: model.PriorityLow, DueDate: now.Add(48 * time.Hour),
	})

	filter := store.TaskFilter{Search: "deploy", Priority: model.PriorityHigh}

	byAssignee, err := s.TasksByAssignee(ctx, u.ID, filter)
	require.NoError(t, err)
	byCreator, err := s.TasksByCreator(ctx, u.ID, filter)
	require.NoError(t, err)

	require.Len(t, byAssignee.Tasks, 1)
	require.Len(t, byCreator.Tasks, 1)
	assert.Equal(t, byAssignee.Tasks[0].ID, byCreator.Tasks[0].ID)
	assert.Equal(t, "Deploy staging", byAssignee.Tasks[0].Title)
}

func TestTaskFilter_OverdueBucketExcludesDone(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	now := time.Now().UTC()

	late := newTask(t, s, model.Task{
		Title: "Late and open", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.Add(-24 * time.Hour),
	})
	finished := newTask(t, s, model.Task{
		Title: "Late but done", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.Add(-24 * time.Hour),
	})
	_, err := s.UpdateTaskStatus(ctx, finished.ID, model.StatusDone)
	require.NoError(t, err)

	for _, view := range []func(context.Context, int64, store.TaskFilter) (*store.TaskPage, error){
		s.TasksByAssignee, s.TasksByCreator,
	} {
		page, err := view(ctx, u.ID, store.TaskFilter{DueDate: model.BucketOverdue})
		require.NoError(t, err)
		require.Len(t, page.Tasks, 1)
		assert.Equal(t, late.ID, page.Tasks[0].ID)
	}
}

func TestTaskFilter_TodayBucket(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	now := time.Now().UTC()

	// Noon today avoids day-boundary flakiness around midnight runs.
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
	inToday := newTask(t, s, model.Task{
		Title: "Due today", CreatedByID: u.ID, AssignedToID: u.ID, DueDate: today,
	})
	newTask(t, s, model.Task{
		Title: "Due next month", CreatedByID: u.ID, AssignedToID: u.ID,
		DueDate: now.AddDate(0, 1, 0),
	})

	page, err := s.TasksByAssignee(ctx, u.ID, store.TaskFilter{DueDate: model.BucketToday})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, inToday.ID, page.Tasks[0].ID)
}

func TestListOrder_MostRecentlyTouchedFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	first := newTask(t, s, model.Task{Title: "First created", CreatedByID: u.ID, AssignedToID: u.ID})
	newTask(t, s, model.Task{Title: "Second created", CreatedByID: u.ID, AssignedToID: u.ID})

	// Touching the first task moves it to the front.
	time.Sleep(10 * time.Millisecond)
	_, err := s.UpdateTaskStatus(ctx, first.ID, model.StatusInProgress)
	require.NoError(t, err)

	page, err := s.TasksByCreator(ctx, u.ID, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	assert.Equal(t, first.ID, page.Tasks[0].ID)
}

func TestTaskStats(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	other := newUser(t, s, "bob")
	now := time.Now().UTC()

	newTask(t, s, model.Task{CreatedByID: u.ID, AssignedToID: u.ID, Title: "Open task"})
	inProgress := newTask(t, s, model.Task{CreatedByID: other.ID, AssignedToID: u.ID, Title: "Working on it"})
	_, err := s.UpdateTaskStatus(ctx, inProgress.ID, model.StatusInProgress)
	require.NoError(t, err)
	finished := newTask(t, s, model.Task{CreatedByID: u.ID, AssignedToID: other.ID, Title: "All wrapped up"})
	_, err = s.UpdateTaskStatus(ctx, finished.ID, model.StatusDone)
	require.NoError(t, err)
	newTask(t, s, model.Task{
		CreatedByID: u.ID, AssignedToID: u.ID, Title: "Past due item",
		DueDate: now.Add(-24 * time.Hour),
	})

	stats, err := s.TaskStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Overdue)
}

func TestTeamStats_CoversEveryUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := newUser(t, s, "alice")
	newUser(t, s, "bob")

	done := newTask(t, s, model.Task{CreatedByID: alice.ID, AssignedToID: alice.ID, Title: "Ship feature"})
	_, err := s.UpdateTaskStatus(ctx, done.ID, model.StatusDone)
	require.NoError(t, err)

	stats, err := s.TeamStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ordered by username: alice then bob.
	assert.Equal(t, "alice", stats[0].Username)
	assert.Equal(t, 1, stats[0].TotalTasks)
	assert.Equal(t, 1, stats[0].CompletedTasks)
	assert.Equal(t, "bob", stats[1].Username)
	assert.Zero(t, stats[1].TotalTasks)
}

func TestTasksNeedingOverdueAlert(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator := newUser(t, s, "alice")
	assignee := newUser(t, s, "bob")

	late := newTask(t, s, model.Task{
		Title: "Past due", CreatedByID: creator.ID, AssignedToID: assignee.ID,
		DueDate: time.Now().UTC().Add(-24 * time.Hour),
	})
	newTask(t, s, model.Task{
		Title: "On schedule", CreatedByID: creator.ID, AssignedToID: assignee.ID,
		DueDate: time.Now().UTC().Add(24 * time.Hour),
	})

	pending, err := s.TasksNeedingOverdueAlert(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late.ID, pending[0].ID)

	// Once the assignee has been alerted, the task drops out.
	_, err = s.CreateNotification(ctx, model.Notification{
		UserID: assignee.ID, SenderID: creator.ID, TaskID: &late.ID,
		Type: model.NotificationTaskOverdue, Message: "A task assigned to you is overdue",
	})
	require.NoError(t, err)

	pending, err = s.TasksNeedingOverdueAlert(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
