package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// seedUsers are the development accounts created by Seed.
var seedUsers = []string{"john", "emma", "michael", "taylor", "robert"}

// Seed populates the database with development users and sample tasks.
// Users are created only if missing; tasks only when the table is empty,
// so running it repeatedly is safe. Every seed user shares passwordHash.
func (s *SQLiteStore) Seed(ctx context.Context, passwordHash string) error {
	ids := make(map[string]int64, len(seedUsers))
	for _, username := range seedUsers {
		u, err := s.GetUserByUsername(ctx, username)
		if errors.Is(err, ErrNotFound) {
			u, err = s.CreateUser(ctx, username, passwordHash)
		}
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", username, err)
		}
		ids[username] = u.ID
	}

	var taskCount int
	if err := s.db.GetContext(ctx, &taskCount, "SELECT COUNT(*) FROM tasks"); err != nil {
		return fmt.Errorf("counting tasks: %w", err)
	}
	if taskCount > 0 {
		return nil
	}

	now := time.Now().UTC()
	day := 24 * time.Hour
	samples := []model.Task{
		{
			Title:        "Complete UI redesign for client dashboard",
			Description:  "Update all UI components to match new brand guidelines and improve user experience",
			DueDate:      now.Add(day),
			Priority:     model.PriorityHigh,
			Status:       model.StatusInProgress,
			CreatedByID:  ids["taylor"],
			AssignedToID: ids["john"],
		},
		{
			Title:        "Implement authentication API",
			Description:  "Create secure user registration and login endpoints with JWT authentication",
			DueDate:      now.Add(3 * day),
			Priority:     model.PriorityMedium,
			Status:       model.StatusTodo,
			CreatedByID:  ids["michael"],
			AssignedToID: ids["john"],
		},
		{
			Title:        "Create documentation for API endpoints",
			Description:  "Document all API endpoints, parameters, and response formats using Swagger",
			DueDate:      now.Add(5 * day),
			Priority:     model.PriorityLow,
			Status:       model.StatusReview,
			CreatedByID:  ids["john"],
			AssignedToID: ids["john"],
		},
		{
			Title:        "Design marketing emails for product launch",
			Description:  "Create responsive email templates for product announcement campaign",
			DueDate:      now.Add(-2 * day),
			Priority:     model.PriorityHigh,
			Status:       model.StatusDone,
			CreatedByID:  ids["john"],
			AssignedToID: ids["emma"],
		},
		{
			Title:        "Implement frontend form validations",
			Description:  "Add client-side validation to registration and onboarding forms",
			DueDate:      now.Add(7 * day),
			Priority:     model.PriorityMedium,
			Status:       model.StatusInProgress,
			CreatedByID:  ids["john"],
			AssignedToID: ids["robert"],
		},
		{
			Title:        "Fix critical security vulnerability",
			Description:  "Address security issues identified in the latest penetration testing report",
			DueDate:      now.Add(-2 * day),
			Priority:     model.PriorityHigh,
			Status:       model.StatusInProgress,
			CreatedByID:  ids["john"],
			AssignedToID: ids["john"],
		},
	}

	for _, task := range samples {
		if _, err := s.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("seeding task %q: %w", task.Title, err)
		}
	}

	return nil
}
