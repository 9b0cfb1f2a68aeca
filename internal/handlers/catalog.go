package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
)

// CatalogHandler exposes order type and service administration over HTTP.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// CreateOrderType creates an order type with its service associations.
func (h *CatalogHandler) CreateOrderType(c *gin.Context) {
	type CreateOrderTypeRequest struct {
		Name          string   `json:"name" binding:"required"`
		Slug          string   `json:"slug" binding:"required"`
		TimeLimitDays int      `json:"time_limit_days"`
		ServiceIDs    []uint64 `json:"service_ids"`
	}

	var req CreateOrderTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	orderType, err := h.catalogService.CreateOrderType(actor, services.CreateOrderTypeInput{
		Name:          req.Name,
		Slug:          req.Slug,
		TimeLimitDays: req.TimeLimitDays,
		ServiceIDs:    req.ServiceIDs,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, orderType)
}

// DeleteOrderType removes an order type that has not spawned any orders.
func (h *CatalogHandler) DeleteOrderType(c *gin.Context) {
	orderTypeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteOrderType(actor, orderTypeID); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order type deleted successfully",
	})
}

// ListOrderTypes lists all order types with their services.
func (h *CatalogHandler) ListOrderTypes(c *gin.Context) {
	orderTypes, err := h.catalogService.ListOrderTypes()
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_types": orderTypes,
	})
}

// CreateService creates a catalog service.
func (h *CatalogHandler) CreateService(c *gin.Context) {
	type CreateServiceRequest struct {
		Name              string             `json:"name" binding:"required"`
		Slug              string             `json:"slug" binding:"required"`
		Type              models.ServiceType `json:"type" binding:"required"`
		TeamID            uint64             `json:"team_id" binding:"required"`
		IsMandatory       bool               `json:"is_mandatory"`
		AutoAssignEnabled bool               `json:"auto_assign_enabled"`
		AutoAssignUserID  *uint64            `json:"auto_assign_user_id"`
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	service, err := h.catalogService.CreateService(actor, services.CreateServiceInput{
		Name:              req.Name,
		Slug:              req.Slug,
		Type:              req.Type,
		TeamID:            req.TeamID,
		IsMandatory:       req.IsMandatory,
		AutoAssignEnabled: req.AutoAssignEnabled,
		AutoAssignUserID:  req.AutoAssignUserID,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service)
}

// ListServices lists all catalog services.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	catalogServices, err := h.catalogService.ListServices()
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"services": catalogServices,
	})
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderTypeNotFound),
		errors.Is(err, services.ErrServiceNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCatalogForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidCatalogName),
		errors.Is(err, services.ErrInvalidServiceType),
		errors.Is(err, services.ErrAutoAssignTargetNeeded):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrOrderTypeHasOrders),
		errors.Is(err, services.ErrServiceSlugTaken):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
