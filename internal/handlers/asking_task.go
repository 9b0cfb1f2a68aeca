package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
)

// AskingTaskHandler exposes the staged inquiry workflow over HTTP.
type AskingTaskHandler struct {
	askingTaskService *services.AskingTaskService
}

// NewAskingTaskHandler creates a new AskingTaskHandler.
func NewAskingTaskHandler(askingTaskService *services.AskingTaskService) *AskingTaskHandler {
	return &AskingTaskHandler{
		askingTaskService: askingTaskService,
	}
}

// GetAskingTask returns an asking task with its stage history.
func (h *AskingTaskHandler) GetAskingTask(c *gin.Context) {
	askingTaskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	askingTask, err := h.askingTaskService.GetAskingTask(askingTaskID)
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, askingTask)
}

// ListOrderAskingTasks lists the asking tasks belonging to an order.
func (h *AskingTaskHandler) ListOrderAskingTasks(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	askingTasks, err := h.askingTaskService.ListForOrder(orderID)
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asking_tasks": askingTasks,
	})
}

// StageHistory returns the append-only stage log for an asking task.
func (h *AskingTaskHandler) StageHistory(c *gin.Context) {
	askingTaskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	stages, err := h.askingTaskService.StageHistory(actor, askingTaskID)
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stages": stages,
	})
}

// AdvanceStage records a stage transition.
func (h *AskingTaskHandler) AdvanceStage(c *gin.Context) {
	type StageRequest struct {
		Stage                   models.AskingStage `json:"stage" binding:"required"`
		InitialConfirmationNote string             `json:"initial_confirmation_note"`
		UpdateRequestNote       string             `json:"update_request_note"`
	}

	askingTaskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	askingTask, err := h.askingTaskService.AdvanceStage(actor, askingTaskID, services.AdvanceStageInput{
		Stage:                   req.Stage,
		InitialConfirmationNote: req.InitialConfirmationNote,
		UpdateRequestNote:       req.UpdateRequestNote,
	})
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, askingTask)
}

// SetFlag flags or unflags an asking task.
func (h *AskingTaskHandler) SetFlag(c *gin.Context) {
	type FlagRequest struct {
		IsFlagged *bool `json:"is_flagged" binding:"required"`
	}

	askingTaskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	askingTask, err := h.askingTaskService.SetFlag(actor, askingTaskID, *req.IsFlagged)
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, askingTask)
}

// UpdateNotes replaces the free-form notes.
func (h *AskingTaskHandler) UpdateNotes(c *gin.Context) {
	type NotesRequest struct {
		Notes string `json:"notes"`
	}

	askingTaskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	askingTask, err := h.askingTaskService.UpdateNotes(actor, askingTaskID, req.Notes)
	if err != nil {
		respondAskingTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, askingTask)
}

func respondAskingTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAskingTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAskingTaskForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidAskingStage):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
