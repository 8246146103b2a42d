package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// notificationFeedLimit caps the notification feed at the most recent entries.
const notificationFeedLimit = 50

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) (*model.Notification, error) {
	n.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			user_id, sender_id, task_id, type, message, details, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.SenderID, n.TaskID, n.Type, n.Message, n.Details,
		boolToInt(n.IsRead), n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	n.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new notification id: %w", err)
	}
	return &n, nil
}

// Notifications returns the user's most recent notifications, newest first,
// joined with each sender's username, plus the unread count.
func (s *SQLiteStore) Notifications(
	ctx context.Context,
	userID int64,
) (*NotificationFeed, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT n.id, n.message, n.details, n.is_read, n.created_at, n.type,
			u.username AS sender_name
		FROM notifications n
		INNER JOIN users u ON u.id = n.sender_id
		WHERE n.user_id = ?
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ?`,
		userID, notificationFeedLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	views := []model.NotificationView{}
	for rows.Next() {
		var (
			v       model.NotificationView
			readInt int
		)
		err := rows.Scan(&v.ID, &v.Message, &v.Details, &readInt,
			&v.CreatedAt, &v.Type, &v.SenderName)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		v.IsRead = readInt != 0
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unread, err := s.UnreadNotificationCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationFeed{Notifications: views, UnreadCount: unread}, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
// Marking a notification owned by someone else changes nothing and
// returns false.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id, userID int64,
) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected > 0, nil
}

// MarkAllNotificationsRead marks every unread notification of the user as
// read and returns how many rows changed. Calling it again immediately
// changes nothing.
func (s *SQLiteStore) MarkAllNotificationsRead(
	ctx context.Context,
	userID int64,
) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0",
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications as read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// UnreadNotificationCount counts the user's unread notifications.
func (s *SQLiteStore) UnreadNotificationCount(
	ctx context.Context,
	userID int64,
) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0",
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}
