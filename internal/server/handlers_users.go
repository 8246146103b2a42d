package server

import (
	"github.com/gofiber/fiber/v2"
)

// handleListUsers returns every user, for assignment pickers.
func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.store.GetAllUsers(c.UserContext())
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(users)
}

// handleTeamStats returns per-user assigned-task counters.
func (s *Server) handleTeamStats(c *fiber.Ctx) error {
	stats, err := s.store.TeamStats(c.UserContext())
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(stats)
}
