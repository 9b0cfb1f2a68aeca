package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/order-management-api/internal/dto"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"github.com/orderdesk/order-management-api/internal/middleware"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
	"github.com/orderdesk/order-management-api/internal/utils"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder creates an order and its work items.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	type CreateOrderRequest struct {
		OrderNumber     string    `json:"order_number"`
		OrderTypeID     uint64    `json:"order_type_id" binding:"required"`
		CustomerName    string    `json:"customer_name" binding:"required"`
		CustomerContact string    `json:"customer_contact"`
		Amount          float64   `json:"amount" binding:"required,gt=0"`
		OrderDate       time.Time `json:"order_date" binding:"required"`
		DeliveryDate    time.Time `json:"delivery_date" binding:"required"`
		FolderLink      *string   `json:"folder_link"`
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.CreateOrder(actor, services.CreateOrderInput{
		OrderNumber:     req.OrderNumber,
		OrderTypeID:     req.OrderTypeID,
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Amount:          req.Amount,
		OrderDate:       req.OrderDate,
		DeliveryDate:    req.DeliveryDate,
		FolderLink:      req.FolderLink,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrderDTO(*order))
}

// ListOrders lists orders with optional status and revision filters.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	input := services.ListOrdersInput{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("is_revision"); raw != "" {
		isRevision, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "is_revision must be a boolean")
			return
		}
		input.IsRevision = &isRevision
	}

	orders, total, err := h.orderService.ListOrders(input)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	result := make([]dto.OrderDTO, len(orders))
	for i, order := range orders {
		result[i] = dto.ToOrderDTO(order)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": result,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetOrder returns one order with its work items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderDTO(*order))
}

// AttachFolderLink sets the folder link and triggers auto-assignment.
func (h *OrderHandler) AttachFolderLink(c *gin.Context) {
	type FolderLinkRequest struct {
		FolderLink string `json:"folder_link" binding:"required"`
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FolderLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.AttachFolderLink(actor, orderID, req.FolderLink)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderDTO(*order))
}

// VerifyOrder moves an order from PENDING to IN_PROGRESS.
func (h *OrderHandler) VerifyOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.VerifyOrder(actor, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderDTO(*order))
}

// DeliverOrder completes an order and reports outstanding work items.
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, stats, err := h.orderService.DeliverOrder(actor, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":          dto.ToOrderDTO(*order),
		"delivery_stats": dto.ToDeliveryStatsDTO(stats),
	})
}

// ConvertToRevision clones a completed order into a linked revision.
func (h *OrderHandler) ConvertToRevision(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	revision, err := h.orderService.ConvertToRevision(actor, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrderDTO(*revision))
}

// CompleteRevision marks a revision order as completed.
func (h *OrderHandler) CompleteRevision(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.CompleteRevision(actor, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderDTO(*order))
}

// AddRevisionTask adds a pre-assigned task to a revision order.
func (h *OrderHandler) AddRevisionTask(c *gin.Context) {
	type RevisionTaskRequest struct {
		Name     string    `json:"name" binding:"required"`
		MemberID uint64    `json:"member_id" binding:"required"`
		Deadline time.Time `json:"deadline" binding:"required"`
		Notes    string    `json:"notes"`
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RevisionTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.orderService.AddRevisionTask(actor, orderID, services.AddRevisionTaskInput{
		Name:     req.Name,
		MemberID: req.MemberID,
		Deadline: req.Deadline,
		Notes:    req.Notes,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrOrderTypeNotFound),
		errors.Is(err, services.ErrServiceNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrOrderForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrOrderValidation),
		errors.Is(err, services.ErrFolderLinkRequired),
		errors.Is(err, services.ErrAssigneeNotMember),
		errors.Is(err, services.ErrMemberHasNoTeam):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateOrderNumber),
		errors.Is(err, services.ErrActiveRevisionExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrOrderNotPending),
		errors.Is(err, services.ErrOrderAlreadyCompleted),
		errors.Is(err, services.ErrOriginOrderNotCompleted),
		errors.Is(err, services.ErrNotRevisionOrder),
		errors.Is(err, services.ErrRevisionAlreadyCompleted):
		apierrors.InvalidTransition(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

// currentActor resolves the authenticated user into the service-layer actor.
// Writes a 401 itself when the context carries no user.
func currentActor(c *gin.Context) (services.Actor, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return services.Actor{}, false
	}
	return services.ActorFromUser(user), true
}

// parseIDParam parses a numeric path parameter. Writes a 400 itself on
// malformed input.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}
