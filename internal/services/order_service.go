package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orderdesk/order-management-api/internal/audit"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"github.com/orderdesk/order-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrDuplicateOrderNumber     = errors.New("order number already exists")
	ErrOrderValidation          = errors.New("amount, order date and delivery date are required")
	ErrOrderForbidden           = errors.New("user is not permitted to perform this order operation")
	ErrOrderNotPending          = errors.New("order can only be verified from PENDING")
	ErrOrderAlreadyCompleted    = errors.New("order is already completed")
	ErrOriginOrderNotCompleted  = errors.New("only completed orders can be converted to a revision")
	ErrActiveRevisionExists     = errors.New("active revision already exists for this order")
	ErrNotRevisionOrder         = errors.New("order is not a revision")
	ErrRevisionAlreadyCompleted = errors.New("revision is already completed")
	ErrFolderLinkRequired       = errors.New("folder link is required")
	ErrAssigneeNotMember        = errors.New("assignee must be a member")
	ErrMemberHasNoTeam          = errors.New("member has no active team membership")
)

// OrderService is the order lifecycle engine: it creates orders, fans the
// catalog out into work items, enforces status transitions and runs the
// revision sub-flow.
type OrderService struct {
	orderRepo      repository.OrderRepository
	taskRepo       repository.TaskRepository
	askingTaskRepo repository.AskingTaskRepository
	catalogService *CatalogService
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo repository.OrderRepository, taskRepo repository.TaskRepository, askingTaskRepo repository.AskingTaskRepository, catalogService *CatalogService, teamRepo repository.TeamRepository, userRepo repository.UserRepository) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		taskRepo:       taskRepo,
		askingTaskRepo: askingTaskRepo,
		catalogService: catalogService,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
	}
}

// CreateOrderInput represents input for creating an order
type CreateOrderInput struct {
	OrderNumber     string
	OrderTypeID     uint64
	CustomerName    string
	CustomerContact string
	Amount          float64
	OrderDate       time.Time
	DeliveryDate    time.Time
	FolderLink      *string
}

// DeliveryStats aggregates work item completion at delivery time
type DeliveryStats = repository.WorkItemStats

// CreateOrder creates an order and fans the catalog services out into work
// items, all inside one transaction.
func (s *OrderService) CreateOrder(actor Actor, input CreateOrderInput) (*models.Order, error) {
	if !models.CanCreateOrder(actor.Role) {
		return nil, ErrOrderForbidden
	}

	if input.Amount <= 0 || input.OrderDate.IsZero() || input.DeliveryDate.IsZero() {
		return nil, ErrOrderValidation
	}

	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		var err error
		if orderNumber, err = utils.GenerateOrderNumber(); err != nil {
			return nil, fmt.Errorf("failed to generate order number: %w", err)
		}
	}

	if _, err := s.orderRepo.FindByOrderNumber(orderNumber); err == nil {
		return nil, ErrDuplicateOrderNumber
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}

	orderType, snapshots, err := s.catalogService.ResolveOrderType(input.OrderTypeID)
	if err != nil {
		return nil, err
	}

	serviceNames := make(map[uint64]string, len(orderType.Services))
	for _, svc := range orderType.Services {
		serviceNames[svc.ID] = svc.Name
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		OrderTypeID:     orderType.ID,
		CustomerName:    input.CustomerName,
		CustomerContact: input.CustomerContact,
		Amount:          input.Amount,
		OrderDate:       input.OrderDate,
		DeliveryDate:    input.DeliveryDate,
		Status:          models.OrderStatusPending,
		FolderLink:      input.FolderLink,
		CreatedByID:     actor.ID,
	}

	// Exactly one work item per catalog service; sibling order is irrelevant.
	var tasks []models.Task
	var askingTasks []models.AskingTask
	for _, snap := range snapshots {
		autoAssign := order.FolderLink != nil && snap.AutoAssignEnabled && snap.AutoAssignUserID != nil

		switch snap.ServiceType {
		case models.ServiceTypeTask:
			task := models.Task{
				ServiceID:   &snap.ServiceID,
				TeamID:      snap.TeamID,
				Name:        serviceNames[snap.ServiceID],
				Status:      models.TaskStatusNotAssigned,
				Priority:    models.TaskPriorityMedium,
				Deadline:    input.DeliveryDate,
				IsMandatory: snap.IsMandatory,
			}
			if autoAssign {
				task.AssignedToID = snap.AutoAssignUserID
				task.Status = models.TaskStatusAssigned
			}
			tasks = append(tasks, task)
		case models.ServiceTypeAsking:
			askingTask := models.AskingTask{
				ServiceID:    snap.ServiceID,
				TeamID:       snap.TeamID,
				Name:         serviceNames[snap.ServiceID],
				CurrentStage: models.AskingStageAsked,
				IsMandatory:  snap.IsMandatory,
				Deadline:     input.DeliveryDate,
			}
			if autoAssign {
				// Stage stays ASKED; only the assignee is set.
				askingTask.AssignedToID = snap.AutoAssignUserID
			}
			askingTasks = append(askingTasks, askingTask)
		}
	}

	err = s.orderRepo.CreateWithWorkItems(order, snapshots, tasks, askingTasks, func(o *models.Order) *models.AuditLog {
		return audit.Entry(models.AuditEntityOrder, o.ID, models.AuditActionCreate, actor.ID,
			nil, audit.OfOrder(o),
			fmt.Sprintf("Order %s created with %d work items", o.OrderNumber, len(tasks)+len(askingTasks)))
	})
	if err != nil {
		// The pre-check above races with concurrent inserts; the unique index
		// on order_number is the real guard.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return s.orderRepo.FindByID(order.ID, "OrderType", "Tasks", "AskingTasks")
}

// AttachFolderLink sets or replaces the folder link and re-evaluates
// auto-assignment for still-unassigned work items. Safe to call repeatedly.
func (s *OrderService) AttachFolderLink(actor Actor, orderID uint64, link string) (*models.Order, error) {
	if !models.CanCreateOrder(actor.Role) {
		return nil, ErrOrderForbidden
	}
	if strings.TrimSpace(link) == "" {
		return nil, ErrFolderLinkRequired
	}

	order, err := s.orderRepo.AttachFolderLink(orderID, link, func(old, updated *models.Order) *models.AuditLog {
		return audit.Entry(models.AuditEntityOrder, updated.ID, models.AuditActionUpdate, actor.ID,
			audit.OfOrder(old), audit.OfOrder(updated),
			fmt.Sprintf("Folder link attached to order %s", updated.OrderNumber))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to attach folder link: %w", err)
	}

	return order, nil
}

// VerifyOrder moves an order from PENDING to IN_PROGRESS.
func (s *OrderService) VerifyOrder(actor Actor, orderID uint64) (*models.Order, error) {
	isLeader, err := s.actorLeadsAnyOrderTeam(actor, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanVerifyOrder(actor.Role, isLeader) {
		return nil, ErrOrderForbidden
	}

	order, err := s.orderRepo.Transition(orderID, func(o *models.Order) (*models.AuditLog, error) {
		if o.Status != models.OrderStatusPending {
			return nil, ErrOrderNotPending
		}
		old := audit.OfOrder(o)
		o.Status = models.OrderStatusInProgress
		return audit.Entry(models.AuditEntityOrder, o.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfOrder(o), fmt.Sprintf("Order %s verified", o.OrderNumber)), nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// DeliverOrder completes an order. Delivery is deliberately permitted with
// incomplete mandatory work items; the returned stats record what was still
// outstanding at delivery time.
func (s *OrderService) DeliverOrder(actor Actor, orderID uint64) (*models.Order, DeliveryStats, error) {
	if !models.CanDeliverOrder(actor.Role) {
		return nil, DeliveryStats{}, ErrOrderForbidden
	}

	now := time.Now()
	order, stats, err := s.orderRepo.Deliver(orderID, func(o *models.Order, st repository.WorkItemStats) (*models.AuditLog, error) {
		if o.Status == models.OrderStatusCompleted {
			return nil, ErrOrderAlreadyCompleted
		}
		old := audit.OfOrder(o)
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &now
		return audit.Entry(models.AuditEntityOrder, o.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfOrder(o),
			fmt.Sprintf("Order %s delivered (%d/%d items complete, %d mandatory remaining)",
				o.OrderNumber, st.CompletedItems, st.TotalItems, st.MandatoryRemaining)), nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stats, ErrOrderNotFound
		}
		return nil, stats, err
	}

	return order, stats, nil
}

// ConvertToRevision clones a completed order into a linked revision order.
// The revision starts IN_PROGRESS with a copied service snapshot and no work
// items; revision tasks are added explicitly.
func (s *OrderService) ConvertToRevision(actor Actor, orderID uint64) (*models.Order, error) {
	if !models.CanManageRevisions(actor.Role) {
		return nil, ErrOrderForbidden
	}

	origin, err := s.orderRepo.FindByID(orderID, "Services")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if origin.Status != models.OrderStatusCompleted {
		return nil, ErrOriginOrderNotCompleted
	}

	revision := &models.Order{
		OrderNumber:     utils.RevisionOrderNumber(origin.OrderNumber, time.Now()),
		OrderTypeID:     origin.OrderTypeID,
		CustomerName:    origin.CustomerName,
		CustomerContact: origin.CustomerContact,
		Amount:          origin.Amount,
		OrderDate:       origin.OrderDate,
		DeliveryDate:    origin.DeliveryDate,
		Status:          models.OrderStatusInProgress,
		IsRevision:      true,
		RevisionOrderID: &origin.ID,
		CreatedByID:     actor.ID,
	}

	services := make([]models.OrderService, len(origin.Services))
	copy(services, origin.Services)

	err = s.orderRepo.CreateRevision(revision, services, func(o *models.Order) *models.AuditLog {
		return audit.Entry(models.AuditEntityOrder, o.ID, models.AuditActionCreate, actor.ID,
			nil, audit.OfOrder(o),
			fmt.Sprintf("Revision %s created from order %s", o.OrderNumber, origin.OrderNumber))
	})
	if err != nil {
		if errors.Is(err, repository.ErrActiveRevisionExists) {
			return nil, ErrActiveRevisionExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, fmt.Errorf("failed to create revision: %w", err)
	}

	return revision, nil
}

// CompleteRevision marks a revision order as completed.
func (s *OrderService) CompleteRevision(actor Actor, revisionOrderID uint64) (*models.Order, error) {
	if !models.CanManageRevisions(actor.Role) {
		return nil, ErrOrderForbidden
	}

	now := time.Now()
	order, err := s.orderRepo.Transition(revisionOrderID, func(o *models.Order) (*models.AuditLog, error) {
		if !o.IsRevision {
			return nil, ErrNotRevisionOrder
		}
		if o.RevisionCompletedAt != nil {
			return nil, ErrRevisionAlreadyCompleted
		}
		old := audit.OfOrder(o)
		o.RevisionCompletedAt = &now
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &now
		return audit.Entry(models.AuditEntityOrder, o.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfOrder(o), fmt.Sprintf("Revision %s completed", o.OrderNumber)), nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// AddRevisionTaskInput represents input for adding a task to a revision order
type AddRevisionTaskInput struct {
	Name     string
	MemberID uint64
	Deadline time.Time
	Notes    string
}

// AddRevisionTask creates a pre-assigned mandatory task on a revision order.
// Revision tasks skip NOT_ASSIGNED entirely.
func (s *OrderService) AddRevisionTask(actor Actor, revisionOrderID uint64, input AddRevisionTaskInput) (*models.Task, error) {
	if !models.CanManageRevisions(actor.Role) {
		return nil, ErrOrderForbidden
	}
	if strings.TrimSpace(input.Name) == "" || input.Deadline.IsZero() {
		return nil, ErrOrderValidation
	}

	order, err := s.orderRepo.FindByID(revisionOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if !order.IsRevision {
		return nil, ErrNotRevisionOrder
	}

	member, err := s.userRepo.FindByID(input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member.Role != models.RoleMember {
		return nil, ErrAssigneeNotMember
	}

	membership, err := s.teamRepo.FirstActiveMembership(member.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberHasNoTeam
		}
		return nil, fmt.Errorf("failed to resolve team membership: %w", err)
	}

	task := &models.Task{
		OrderID:        order.ID,
		TeamID:         membership.TeamID,
		Name:           input.Name,
		AssignedToID:   &member.ID,
		Status:         models.TaskStatusAssigned,
		Priority:       models.TaskPriorityHigh,
		Deadline:       input.Deadline,
		IsMandatory:    true,
		IsRevisionTask: true,
		Notes:          input.Notes,
	}

	err = s.taskRepo.Create(task, func(t *models.Task) *models.AuditLog {
		return audit.Entry(models.AuditEntityTask, t.ID, models.AuditActionCreate, actor.ID,
			nil, audit.OfTask(t),
			fmt.Sprintf("Revision task %q added to order %s", t.Name, order.OrderNumber))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create revision task: %w", err)
	}

	return task, nil
}

// GetOrder returns an order with its work items
func (s *OrderService) GetOrder(orderID uint64) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(orderID, "OrderType", "Tasks", "AskingTasks", "Services")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// ListOrdersInput represents filters for listing orders
type ListOrdersInput struct {
	Status     *models.OrderStatus
	IsRevision *bool
	Page       int
	PageSize   int
}

// ListOrders lists orders with filtering and pagination
func (s *OrderService) ListOrders(input ListOrdersInput) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.List(repository.OrderFilter{
		Status:     input.Status,
		IsRevision: input.IsRevision,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// actorLeadsAnyOrderTeam reports whether the actor is an active leader of any
// team owning one of the order's snapshot services.
func (s *OrderService) actorLeadsAnyOrderTeam(actor Actor, orderID uint64) (bool, error) {
	order, err := s.orderRepo.FindByID(orderID, "Services")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrOrderNotFound
		}
		return false, fmt.Errorf("failed to find order: %w", err)
	}

	seen := make(map[uint64]struct{}, len(order.Services))
	for _, snap := range order.Services {
		if _, ok := seen[snap.TeamID]; ok {
			continue
		}
		seen[snap.TeamID] = struct{}{}

		isLeader, err := s.teamRepo.IsActiveLeader(snap.TeamID, actor.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check team leadership: %w", err)
		}
		if isLeader {
			return true, nil
		}
	}
	return false, nil
}
