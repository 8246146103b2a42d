package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/ws"
)

type createTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DueDate      string `json:"dueDate"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	AssignedToID int64  `json:"assignedToId"`
}

type updateTaskRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	DueDate      *string `json:"dueDate"`
	Priority     *string `json:"priority"`
	Status       *string `json:"status"`
	AssignedToID *int64  `json:"assignedToId"`
}

// handleCreateTask creates a task owned by the caller and fans out the
// assignment notification and a created broadcast.
func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}

	fieldErrors := map[string]string{}
	if len(req.Title) < 3 {
		fieldErrors["title"] = "Title must be at least 3 characters"
	}
	if len(req.Description) < 5 {
		fieldErrors["description"] = "Description must be at least 5 characters"
	}
	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		fieldErrors["dueDate"] = "A valid due date is required"
	}
	if !model.ValidPriority(req.Priority) {
		fieldErrors["priority"] = "Priority must be low, medium, or high"
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		fieldErrors["status"] = "Unknown status"
	}
	if req.AssignedToID <= 0 {
		fieldErrors["assignedToId"] = "Assignee is required"
	} else if _, err := s.store.GetUser(c.UserContext(), req.AssignedToID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fieldErrors["assignedToId"] = "Assignee does not exist"
		} else {
			return s.storeError(c, err, "")
		}
	}
	if len(fieldErrors) > 0 {
		return badRequest(c, "Validation failed", fieldErrors)
	}

	actorID := currentUserID(c)
	task, err := s.store.CreateTask(c.UserContext(), model.Task{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      dueDate,
		Priority:     req.Priority,
		Status:       req.Status,
		CreatedByID:  actorID,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return s.storeError(c, err, "")
	}

	if task.AssignedToID != actorID {
		s.hub.NotifyUser(task.AssignedToID, ws.NotificationPayload{
			ID:      time.Now().UnixMilli(),
			TaskID:  task.ID,
			Title:   task.Title,
			Message: fmt.Sprintf("You have been assigned a new task: %s", task.Title),
			Type:    model.NotificationTaskAssigned,
		})
	}
	s.hub.Broadcast(ws.TaskUpdatePayload{Action: ws.ActionCreated, Task: task})

	return c.Status(fiber.StatusCreated).JSON(task)
}

// handleTasksAssigned lists tasks assigned to the caller.
func (s *Server) handleTasksAssigned(c *fiber.Ctx) error {
	page, err := s.store.TasksByAssignee(c.UserContext(), currentUserID(c), taskFilterFromQuery(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(page)
}

// handleTasksCreated lists tasks created by the caller.
func (s *Server) handleTasksCreated(c *fiber.Ctx) error {
	page, err := s.store.TasksByCreator(c.UserContext(), currentUserID(c), taskFilterFromQuery(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(page)
}

// handleTasksOverdue lists the caller's overdue, unfinished tasks. The
// due-date bucket filter does not apply here; the endpoint is the bucket.
func (s *Server) handleTasksOverdue(c *fiber.Ctx) error {
	filter := taskFilterFromQuery(c)
	filter.DueDate = ""
	page, err := s.store.OverdueTasks(c.UserContext(), currentUserID(c), filter)
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(page)
}

// handleTaskStats returns the caller's dashboard counters.
func (s *Server) handleTaskStats(c *fiber.Ctx) error {
	stats, err := s.store.TaskStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.storeError(c, err, "")
	}
	return c.JSON(stats)
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid task ID", nil)
	}

	task, err := s.store.GetTask(c.UserContext(), int64(id))
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}
	return c.JSON(task)
}

// handleUpdateTask applies a partial update. Only the creator or the
// assignee may update a task, and only the creator may reassign it.
func (s *Server) handleUpdateTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid task ID", nil)
	}
	taskID := int64(id)

	task, err := s.store.GetTask(c.UserContext(), taskID)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	actorID := currentUserID(c)
	if task.CreatedByID != actorID && task.AssignedToID != actorID {
		return forbidden(c, "You don't have permission to update this task")
	}

	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}

	upd := store.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Status:       req.Status,
		AssignedToID: req.AssignedToID,
	}

	fieldErrors := map[string]string{}
	if req.Title != nil && len(*req.Title) < 3 {
		fieldErrors["title"] = "Title must be at least 3 characters"
	}
	if req.Description != nil && len(*req.Description) < 5 {
		fieldErrors["description"] = "Description must be at least 5 characters"
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			fieldErrors["dueDate"] = "A valid due date is required"
		} else {
			upd.DueDate = &dueDate
		}
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		fieldErrors["priority"] = "Priority must be low, medium, or high"
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		fieldErrors["status"] = "Unknown status"
	}
	if req.AssignedToID != nil {
		if _, err := s.store.GetUser(c.UserContext(), *req.AssignedToID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fieldErrors["assignedToId"] = "Assignee does not exist"
			} else {
				return s.storeError(c, err, "")
			}
		}
	}
	if len(fieldErrors) > 0 {
		return badRequest(c, "Validation failed", fieldErrors)
	}

	if req.AssignedToID != nil && *req.AssignedToID != task.AssignedToID &&
		task.CreatedByID != actorID {
		return forbidden(c, "Only the task creator can reassign tasks")
	}

	updated, err := s.store.UpdateTask(c.UserContext(), taskID, upd)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	s.notifyTaskUsers(actorID, []int64{task.CreatedByID, task.AssignedToID}, ws.NotificationPayload{
		ID:      time.Now().UnixMilli(),
		TaskID:  updated.ID,
		Title:   updated.Title,
		Message: fmt.Sprintf("Task %q has been updated", updated.Title),
		Type:    model.NotificationTaskUpdated,
	})
	s.hub.Broadcast(ws.TaskUpdatePayload{Action: ws.ActionUpdated, Task: updated})

	return c.JSON(updated)
}

// handleUpdateTaskStatus moves a task through the workflow.
func (s *Server) handleUpdateTaskStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid task ID", nil)
	}
	taskID := int64(id)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if req.Status == "" {
		return badRequest(c, "Validation failed", map[string]string{
			"status": "Status is required",
		})
	}
	if !model.ValidStatus(req.Status) {
		return badRequest(c, "Validation failed", map[string]string{
			"status": "Unknown status",
		})
	}

	task, err := s.store.GetTask(c.UserContext(), taskID)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	actorID := currentUserID(c)
	if task.CreatedByID != actorID && task.AssignedToID != actorID {
		return forbidden(c, "You don't have permission to update this task")
	}

	updated, err := s.store.UpdateTaskStatus(c.UserContext(), taskID, req.Status)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	statusMessage := "moved to " + req.Status
	if req.Status == model.StatusDone {
		statusMessage = "completed"
	}
	s.notifyTaskUsers(actorID, []int64{task.CreatedByID, task.AssignedToID}, ws.NotificationPayload{
		ID:      time.Now().UnixMilli(),
		TaskID:  updated.ID,
		Title:   updated.Title,
		Message: fmt.Sprintf("Task %q has been %s", updated.Title, statusMessage),
		Type:    model.NotificationTaskUpdated,
	})
	s.hub.Broadcast(ws.TaskUpdatePayload{Action: ws.ActionStatusUpdated, Task: updated})

	return c.JSON(updated)
}

// handleUpdateTaskAssignee reassigns a task. Creator-only.
func (s *Server) handleUpdateTaskAssignee(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid task ID", nil)
	}
	taskID := int64(id)

	var req struct {
		AssigneeID int64 `json:"assigneeId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if req.AssigneeID <= 0 {
		return badRequest(c, "Validation failed", map[string]string{
			"assigneeId": "Assignee ID is required",
		})
	}
	if _, err := s.store.GetUser(c.UserContext(), req.AssigneeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return badRequest(c, "Validation failed", map[string]string{
				"assigneeId": "Assignee does not exist",
			})
		}
		return s.storeError(c, err, "")
	}

	task, err := s.store.GetTask(c.UserContext(), taskID)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	actorID := currentUserID(c)
	if task.CreatedByID != actorID {
		return forbidden(c, "Only the task creator can reassign tasks")
	}

	updated, err := s.store.UpdateTaskAssignee(c.UserContext(), taskID, req.AssigneeID, actorID)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	if updated.AssignedToID != actorID {
		s.hub.NotifyUser(updated.AssignedToID, ws.NotificationPayload{
			ID:      time.Now().UnixMilli(),
			TaskID:  updated.ID,
			Title:   updated.Title,
			Message: fmt.Sprintf("You have been assigned a task: %s", updated.Title),
			Type:    model.NotificationTaskAssigned,
		})
	}
	s.hub.Broadcast(ws.TaskUpdatePayload{Action: ws.ActionAssigneeUpdated, Task: updated})

	return c.JSON(updated)
}

// handleDeleteTask removes a task and its notifications. Creator-only.
func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid task ID", nil)
	}
	taskID := int64(id)

	task, err := s.store.GetTask(c.UserContext(), taskID)
	if err != nil {
		return s.storeError(c, err, "Task not found")
	}

	actorID := currentUserID(c)
	if task.CreatedByID != actorID {
		return forbidden(c, "Only the task creator can delete tasks")
	}

	if err := s.store.DeleteTask(c.UserContext(), taskID); err != nil {
		return s.storeError(c, err, "Task not found")
	}

	s.notifyTaskUsers(actorID, []int64{task.CreatedByID, task.AssignedToID}, ws.NotificationPayload{
		ID:      time.Now().UnixMilli(),
		TaskID:  taskID,
		Title:   task.Title,
		Message: fmt.Sprintf("Task %q has been deleted", task.Title),
		Type:    model.NotificationTaskUpdated,
	})
	s.hub.Broadcast(ws.TaskUpdatePayload{Action: ws.ActionDeleted, TaskID: taskID})

	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

// taskFilterFromQuery builds the shared list filter from query params.
func taskFilterFromQuery(c *fiber.Ctx) store.TaskFilter {
	return store.TaskFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		DueDate:  c.Query("dueDate"),
	}
}

// notifyTaskUsers pushes a targeted notification to each affected user,
// skipping the acting user and duplicates.
func (s *Server) notifyTaskUsers(actorID int64, userIDs []int64, payload ws.NotificationPayload) {
	seen := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == actorID || id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.hub.NotifyUser(id, payload)
	}
}
