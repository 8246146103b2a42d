package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/tests/testutil"
)

func TestNotifications_FeedJoinsSenderAndCounts(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	recipient := newUser(t, s, "alice")
	sender := newUser(t, s, "bob")

	task := newTask(t, s, model.Task{CreatedByID: sender.ID, AssignedToID: sender.ID})

	for i := 0; i < 3; i++ {
		_, err := s.CreateNotification(ctx, model.Notification{
			UserID:   recipient.ID,
			SenderID: sender.ID,
			TaskID:   &task.ID,
			Type:     model.NotificationTaskUpdated,
			Message:  fmt.Sprintf("Update %d", i),
		})
		require.NoError(t, err)
	}

	feed, err := s.Notifications(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 3)
	assert.Equal(t, 3, feed.UnreadCount)
	for _, n := range feed.Notifications {
		assert.Equal(t, "bob", n.SenderName)
		assert.False(t, n.IsRead)
	}

	// Newest first; ties on created_at break by id descending.
	assert.Equal(t, "Update 2", feed.Notifications[0].Message)
	assert.Equal(t, "Update 0", feed.Notifications[2].Message)

	// The sender's own feed stays empty.
	senderFeed, err := s.Notifications(ctx, sender.ID)
	require.NoError(t, err)
	assert.Empty(t, senderFeed.Notifications)
	assert.NotNil(t, senderFeed.Notifications, "empty feed serializes as [], not null")
}

func TestNotifications_FeedCapped(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	recipient := newUser(t, s, "alice")
	sender := newUser(t, s, "bob")

	for i := 0; i < 55; i++ {
		_, err := s.CreateNotification(ctx, model.Notification{
			UserID:   recipient.ID,
			SenderID: sender.ID,
			Type:     model.NotificationTaskUpdated,
			Message:  fmt.Sprintf("Update %d", i),
		})
		require.NoError(t, err)
	}

	feed, err := s.Notifications(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 50)
	assert.Equal(t, "Update 54", feed.Notifications[0].Message)
	assert.Equal(t, 55, feed.UnreadCount, "unread count is not capped by the feed limit")
}

func TestMarkNotificationRead_ScopedToOwner(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := newUser(t, s, "alice")
	intruder := newUser(t, s, "bob")

	n, err := s.CreateNotification(ctx, model.Notification{
		UserID:   owner.ID,
		SenderID: intruder.ID,
		Type:     model.NotificationTaskUpdated,
		Message:  "Task has been updated",
	})
	require.NoError(t, err)

	// Someone else's id does not touch the row.
	ok, err := s.MarkNotificationRead(ctx, n.ID, intruder.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := s.UnreadNotificationCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ok, err = s.MarkNotificationRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err = s.UnreadNotificationCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllNotificationsRead_Idempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u := newUser(t, s, "alice")
	sender := newUser(t, s, "bob")

	for i := 0; i < 2; i++ {
		_, err := s.CreateNotification(ctx, model.Notification{
			UserID:   u.ID,
			SenderID: sender.ID,
			Type:     model.NotificationTaskAssigned,
			Message:  "You have been assigned a task",
		})
		require.NoError(t, err)
	}

	changed, err := s.MarkAllNotificationsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	changed, err = s.MarkAllNotificationsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}
