package server

import (
	"github.com/gofiber/fiber/v2"
)

// handleNotifications returns the caller's recent notifications and unread
// count.
func (s *Server) handleNotifications(c *fiber.Ctx) error {
	feed, err := s.store.Notifications(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(feed)
}

// handleUnreadCount returns how many of the caller's notifications are
// unread.
func (s *Server) handleUnreadCount(c *fiber.Ctx) error {
	count, err := s.store.UnreadNotificationCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(fiber.Map{"count": count})
}

// handleMarkRead marks one of the caller's notifications as read. A
// notification owned by another user is reported as not found.
func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid notification ID", nil)
	}

	ok, err := s.store.MarkNotificationRead(c.UserContext(), int64(id), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	if !ok {
		return notFound(c, "Notification not found")
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// handleMarkAllRead marks every unread notification of the caller as read.
func (s *Server) handleMarkAllRead(c *fiber.Ctx) error {
	changed, err := s.store.MarkAllNotificationsRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(fiber.Map{"success": changed > 0})
}
