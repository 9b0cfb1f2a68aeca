package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
	"github.com/orderdesk/order-management-api/internal/utils"
)

// AuditLogHandler exposes the audit trail for inspection.
type AuditLogHandler struct {
	auditLogService *services.AuditLogService
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(auditLogService *services.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogService: auditLogService,
	}
}

// ListAuditLogs lists audit entries, newest first.
func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	input := services.ListAuditLogsInput{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("entity_type"); raw != "" {
		entityType := models.AuditEntityType(raw)
		input.EntityType = &entityType
	}
	if raw := c.Query("entity_id"); raw != "" {
		entityID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "entity_id must be numeric")
			return
		}
		input.EntityID = &entityID
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	entries, total, err := h.auditLogService.ListAuditLogs(actor, input)
	if err != nil {
		respondAuditError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": entries,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func respondAuditError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAuditForbidden):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
