package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/store"
)

// errorBody is the single error response shape used by every endpoint.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func badRequest(c *fiber.Ctx, message string, fieldErrors map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody{
		Message: message,
		Errors:  fieldErrors,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Message: "Unauthorized"})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(errorBody{Message: message})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(errorBody{Message: message})
}

// storeError maps repository failures onto the error taxonomy: unknown ids
// become 404, anything else 500 with the message surfaced but no stack.
func (s *Server) storeError(c *fiber.Ctx, err error, notFoundMessage string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(c, notFoundMessage)
	}
	s.logger.Error("store operation failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
		Message: "Internal server error",
	})
}
