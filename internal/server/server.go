// Package server exposes the HTTP JSON API and the /ws push channel.
package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nhle/taskboard/internal/auth"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/ws"
)

// userIDKey and usernameKey hold the authenticated caller in the request
// context.
const (
	userIDKey   = "userID"
	usernameKey = "username"
)

// Server wires the store, the connection hub, and the auth helpers behind
// a Fiber app.
type Server struct {
	app    *fiber.App
	store  store.Store
	hub    ws.Broker
	jwt    *auth.JWTManager
	hasher *auth.PasswordHasher
	logger *slog.Logger
}

// New builds the Fiber app with all middleware and routes registered.
func New(
	st store.Store,
	hub ws.Broker,
	jwtManager *auth.JWTManager,
	hasher *auth.PasswordHasher,
	corsOrigins string,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		store:  st,
		hub:    hub,
		jwt:    jwtManager,
		hasher: hasher,
		logger: log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "Taskboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on addr and blocks.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// registerRoutes sets up the WebSocket endpoint and the JSON API.
func (s *Server) registerRoutes() {
	// WebSocket channel; plain HTTP requests get 426.
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleWebSocket))

	api := s.app.Group("/api")

	api.Post("/register", s.handleRegister)
	api.Post("/login", s.handleLogin)

	// Everything below requires a valid bearer token.
	api.Use(s.requireAuth)

	api.Get("/user", s.handleCurrentUser)
	api.Get("/users", s.handleListUsers)
	api.Get("/team/stats", s.handleTeamStats)

	tasks := api.Group("/tasks")
	tasks.Post("/", s.handleCreateTask)
	tasks.Get("/assigned", s.handleTasksAssigned)
	tasks.Get("/created", s.handleTasksCreated)
	tasks.Get("/overdue", s.handleTasksOverdue)
	tasks.Get("/stats", s.handleTaskStats)
	tasks.Get("/:id", s.handleGetTask)
	tasks.Patch("/:id", s.handleUpdateTask)
	tasks.Patch("/:id/status", s.handleUpdateTaskStatus)
	tasks.Patch("/:id/assignee", s.handleUpdateTaskAssignee)
	tasks.Delete("/:id", s.handleDeleteTask)

	api.Get("/notifications", s.handleNotifications)
	api.Get("/notifications/unread/count", s.handleUnreadCount)
	api.Post("/notifications/read-all", s.handleMarkAllRead)
	api.Post("/notifications/:id/read", s.handleMarkRead)
}

// currentUserID returns the authenticated caller's id.
func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDKey).(int64)
	return id
}

// errorHandler is the global fallback for unhandled and fiber-internal
// errors. Domain errors are mapped in the handlers themselves.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(errorBody{Message: message})
}
