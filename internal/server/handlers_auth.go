package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/store"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// requireAuth validates the bearer token and stores the caller's identity
// in the request context.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return unauthorized(c)
	}

	claims, err := s.jwt.Validate(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return unauthorized(c)
	}
	userID, err := claims.UserID()
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(userIDKey, userID)
	c.Locals(usernameKey, claims.Username)
	return c.Next()
}

// handleRegister creates an account and returns a session token.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}

	fieldErrors := map[string]string{}
	if len(strings.TrimSpace(req.Username)) < 3 {
		fieldErrors["username"] = "Username must be at least 3 characters"
	}
	if len(req.Password) < 6 {
		fieldErrors["password"] = "Password must be at least 6 characters"
	}
	if len(fieldErrors) > 0 {
		return badRequest(c, "Validation failed", fieldErrors)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return s.storeError(c, err, "")
	}

	user, err := s.store.CreateUser(c.UserContext(), strings.TrimSpace(req.Username), hash)
	if errors.Is(err, store.ErrUsernameTaken) {
		return badRequest(c, "Validation failed", map[string]string{
			"username": "Username already taken",
		})
	}
	if err != nil {
		return s.storeError(c, err, "")
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		return s.storeError(c, err, "")
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse{Token: token, User: user})
}

// handleLogin verifies credentials and returns a session token.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}

	user, err := s.store.GetUserByUsername(c.UserContext(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return unauthorized(c)
	}
	if err != nil {
		return s.storeError(c, err, "")
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		return unauthorized(c)
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		return s.storeError(c, err, "")
	}

	return c.JSON(sessionResponse{Token: token, User: user})
}

// handleCurrentUser returns the authenticated caller's user record.
func (s *Server) handleCurrentUser(c *fiber.Ctx) error {
	user, err := s.store.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "User not found")
	}
	return c.JSON(user)
}
