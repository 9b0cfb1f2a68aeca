package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
)

// TaskHandler exposes the per-task state machine over HTTP.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// AssignRequest carries the shared payload for Assign and Reassign.
type AssignRequest struct {
	AssigneeID uint64              `json:"assignee_id" binding:"required"`
	Deadline   time.Time           `json:"deadline" binding:"required"`
	Priority   models.TaskPriority `json:"priority" binding:"required"`
}

// GetTask returns a task with its related entities.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListOrderTasks lists the tasks belonging to an order.
func (h *TaskHandler) ListOrderTasks(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListForOrder(orderID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}

// AssignTask assigns an unassigned task to a team member.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	h.assignWith(c, h.taskService.Assign)
}

// ReassignTask moves a task to a different member and resets it to ASSIGNED.
func (h *TaskHandler) ReassignTask(c *gin.Context) {
	h.assignWith(c, h.taskService.Reassign)
}

func (h *TaskHandler) assignWith(c *gin.Context, fn func(services.Actor, uint64, services.AssignTaskInput) (*models.Task, error)) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := fn(actor, taskID, services.AssignTaskInput{
		AssigneeID: req.AssigneeID,
		Deadline:   req.Deadline,
		Priority:   req.Priority,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DiscardTask returns a task to the unassigned pool.
func (h *TaskHandler) DiscardTask(c *gin.Context) {
	h.simpleTransition(c, h.taskService.Discard)
}

// StartTask begins work on an assigned task.
func (h *TaskHandler) StartTask(c *gin.Context) {
	h.simpleTransition(c, h.taskService.Start)
}

// PauseTask pauses an in-progress task.
func (h *TaskHandler) PauseTask(c *gin.Context) {
	h.simpleTransition(c, h.taskService.Pause)
}

// ResumeTask resumes a paused task.
func (h *TaskHandler) ResumeTask(c *gin.Context) {
	h.simpleTransition(c, h.taskService.Resume)
}

func (h *TaskHandler) simpleTransition(c *gin.Context, fn func(services.Actor, uint64) (*models.Task, error)) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := fn(actor, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTask finishes a started task.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	type CompleteRequest struct {
		Notes string `json:"notes"`
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(actor, taskID, req.Notes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":            task,
		"elapsed_seconds": int64(task.ElapsedTime().Seconds()),
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskForbidden),
		errors.Is(err, services.ErrNotTaskAssignee):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotInTeam),
		errors.Is(err, services.ErrDeadlineAfterDelivery),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotUnassigned),
		errors.Is(err, services.ErrTaskNotReassignable),
		errors.Is(err, services.ErrTaskAlreadyCompleted),
		errors.Is(err, services.ErrTaskNotStarted),
		errors.Is(err, services.ErrTaskNotAssignedYet),
		errors.Is(err, services.ErrTaskNotInProgress),
		errors.Is(err, services.ErrTaskNotPaused):
		apierrors.InvalidTransition(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
