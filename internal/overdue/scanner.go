// Package overdue periodically flags unfinished tasks past their due date.
// Each task's assignee gets at most one task_overdue notification, recorded
// in the store and pushed over the live channel.
package overdue

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/ws"
)

// Scanner runs the periodic overdue sweep.
type Scanner struct {
	store      store.Store
	dispatcher ws.Dispatcher
	interval   time.Duration
	logger     *slog.Logger
}

// New creates a Scanner sweeping every interval.
func New(st store.Store, d ws.Dispatcher, interval time.Duration, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{store: st, dispatcher: d, interval: interval, logger: logger}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns how many alerts were recorded.
// Exposed separately so a sweep can be triggered without the loop.
func (s *Scanner) Sweep(ctx context.Context) int {
	return s.sweep(ctx)
}

func (s *Scanner) sweep(ctx context.Context) int {
	tasks, err := s.store.TasksNeedingOverdueAlert(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return 0
	}

	alerted := 0
	for _, task := range tasks {
		taskID := task.ID
		n, err := s.store.CreateNotification(ctx, model.Notification{
			UserID:   task.AssignedToID,
			SenderID: task.CreatedByID,
			TaskID:   &taskID,
			Type:     model.NotificationTaskOverdue,
			Message:  "A task assigned to you is overdue",
			Details:  task.Title,
		})
		if err != nil {
			s.logger.Error("recording overdue alert failed", "taskID", task.ID, "error", err)
			continue
		}

		s.dispatcher.NotifyUser(task.AssignedToID, ws.NotificationPayload{
			ID:      n.ID,
			TaskID:  task.ID,
			Title:   task.Title,
			Message: "A task assigned to you is overdue",
			Type:    model.NotificationTaskOverdue,
		})
		alerted++
	}

	if alerted > 0 {
		s.logger.Info("overdue sweep completed", "alerts", alerted)
	}
	return alerted
}
