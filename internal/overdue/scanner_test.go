package overdue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/overdue"
	"github.com/nhle/taskboard/tests/testutil"
)

// fakeDispatcher records every targeted push.
type fakeDispatcher struct {
	mu       sync.Mutex
	notified []int64
}

func (d *fakeDispatcher) NotifyUser(userID int64, payload interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notified = append(d.notified, userID)
}

func (d *fakeDispatcher) Broadcast(payload interface{}) {}

func (d *fakeDispatcher) targets() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int64, len(d.notified))
	copy(out, d.notified)
	return out
}

func TestSweep_AlertsOnceThenGoesQuiet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	creator, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	assignee, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, model.Task{
		Title:        "Past due",
		Description:  "Should trigger an alert",
		DueDate:      time.Now().UTC().Add(-24 * time.Hour),
		Priority:     model.PriorityHigh,
		CreatedByID:  creator.ID,
		AssignedToID: assignee.ID,
	})
	require.NoError(t, err)

	dispatcher := &fakeDispatcher{}
	scanner := overdue.New(s, dispatcher, time.Hour, nil)

	assert.Equal(t, 1, scanner.Sweep(ctx))
	assert.Equal(t, []int64{assignee.ID}, dispatcher.targets())

	// The alert is recorded in the assignee's feed.
	feed, err := s.Notifications(ctx, assignee.ID)
	require.NoError(t, err)

	var overdueAlerts int
	for _, n := range feed.Notifications {
		if n.Type == model.NotificationTaskOverdue {
			overdueAlerts++
		}
	}
	assert.Equal(t, 1, overdueAlerts)

	// A second sweep finds nothing new.
	assert.Zero(t, scanner.Sweep(ctx))
	assert.Len(t, dispatcher.targets(), 1)
}

func TestSweep_IgnoresOnTimeAndDoneTasks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, model.Task{
		Title: "On schedule", Description: "d",
		DueDate:  time.Now().UTC().Add(24 * time.Hour),
		Priority: model.PriorityLow, CreatedByID: u.ID, AssignedToID: u.ID,
	})
	require.NoError(t, err)

	late, err := s.CreateTask(ctx, model.Task{
		Title: "Late but finished", Description: "d",
		DueDate:  time.Now().UTC().Add(-24 * time.Hour),
		Priority: model.PriorityLow, CreatedByID: u.ID, AssignedToID: u.ID,
	})
	require.NoError(t, err)
	_, err = s.UpdateTaskStatus(ctx, late.ID, model.StatusDone)
	require.NoError(t, err)

	dispatcher := &fakeDispatcher{}
	scanner := overdue.New(s, dispatcher, time.Hour, nil)

	assert.Zero(t, scanner.Sweep(ctx))
	assert.Empty(t, dispatcher.targets())
}

func TestRun_ZeroIntervalReturnsImmediately(t *testing.T) {
	s := testutil.NewTestStore(t)
	scanner := overdue.New(s, &fakeDispatcher{}, 0, nil)

	done := make(chan struct{})
	go func() {
		scanner.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return with a zero interval")
	}
}
