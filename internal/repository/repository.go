package repository

import (
	"time"

	"github.com/orderdesk/order-management-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// TeamRepository defines the interface for team and membership data access
type TeamRepository interface {
	// Create creates a new team and writes the audit entry atomically
	Create(team *models.Team, entry func(*models.Team) *models.AuditLog) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// FindActiveMember finds an active membership row
	FindActiveMember(teamID, userID uint64) (*models.TeamMember, error)

	// IsActiveLeader reports whether the user is an active leader of the team
	IsActiveLeader(teamID, userID uint64) (bool, error)

	// FirstActiveMembership returns the user's first active membership
	FirstActiveMembership(userID uint64) (*models.TeamMember, error)

	// UpsertMember adds a member or reactivates a previously removed one,
	// writing the audit entry in the same transaction
	UpsertMember(member *models.TeamMember, entry func(old, new *models.TeamMember) *models.AuditLog) (*models.TeamMember, error)

	// DeactivateMember soft-removes a member
	DeactivateMember(teamID, userID uint64, entry func(old, new *models.TeamMember) *models.AuditLog) error
}

// CatalogRepository defines the interface for order-type/service data access
type CatalogRepository interface {
	// FindOrderTypeWithServices loads an order type and its service associations
	FindOrderTypeWithServices(id uint64) (*models.OrderType, error)

	// CreateOrderType creates an order type with its service associations
	CreateOrderType(orderType *models.OrderType, serviceIDs []uint64, entry func(*models.OrderType) *models.AuditLog) error

	// CreateService creates a catalog service
	CreateService(service *models.Service, entry func(*models.Service) *models.AuditLog) error

	// ListOrderTypes lists all order types with services
	ListOrderTypes() ([]models.OrderType, error)

	// ListServices lists all catalog services
	ListServices() ([]models.Service, error)

	// FindServiceBySlug finds a service by slug
	FindServiceBySlug(slug string) (*models.Service, error)

	// HasOrdersForType reports whether any order was created from the type
	HasOrdersForType(orderTypeID uint64) (bool, error)

	// DeleteOrderType soft-deletes an order type and writes the audit entry
	// atomically
	DeleteOrderType(orderType *models.OrderType, entry func(*models.OrderType) *models.AuditLog) error
}

// OrderFilter holds filtering options for listing orders
type OrderFilter struct {
	Status     *models.OrderStatus
	IsRevision *bool
	Page       int
	PageSize   int
}

// WorkItemStats aggregates the completion state of an order's work items
type WorkItemStats struct {
	TotalItems         int64
	CompletedItems     int64
	MandatoryRemaining int64
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// FindByID finds an order by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Order, error)

	// FindByOrderNumber finds an order by its unique number
	FindByOrderNumber(orderNumber string) (*models.Order, error)

	// List retrieves orders with filtering and pagination
	List(filter OrderFilter) ([]models.Order, int64, error)

	// CreateWithWorkItems inserts the order, its service snapshot and every
	// fanned-out work item in one transaction, together with the audit entry.
	// A failure anywhere rolls back all of it.
	CreateWithWorkItems(order *models.Order, services []models.OrderService, tasks []models.Task, askingTasks []models.AskingTask, entry func(*models.Order) *models.AuditLog) error

	// AttachFolderLink sets the folder link and auto-assigns still-unassigned
	// work items whose snapshot carries an auto-assign target. Assignment
	// updates are guarded on assigned_to_id IS NULL, so re-running never
	// touches an already-assigned item.
	AttachFolderLink(orderID uint64, link string, entry func(old, updated *models.Order) *models.AuditLog) (*models.Order, error)

	// Transition re-reads the order inside a transaction, applies the guarded
	// mutation and writes the audit entry atomically. apply must re-check the
	// source status itself and return the audit row.
	Transition(orderID uint64, apply func(*models.Order) (*models.AuditLog, error)) (*models.Order, error)

	// CreateRevision inserts the revision order and its copied service
	// snapshot, re-checking inside the transaction that no active revision of
	// the origin exists.
	CreateRevision(revision *models.Order, services []models.OrderService, entry func(*models.Order) *models.AuditLog) error

	// Deliver computes the work item statistics and applies the guarded
	// completion transition in one transaction, so the recorded stats match
	// the delivered snapshot exactly.
	Deliver(orderID uint64, apply func(*models.Order, WorkItemStats) (*models.AuditLog, error)) (*models.Order, WorkItemStats, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByOrder lists tasks belonging to an order
	ListByOrder(orderID uint64) ([]models.Task, error)

	// Create inserts a task and its audit entry atomically
	Create(task *models.Task, entry func(*models.Task) *models.AuditLog) error

	// Transition re-reads the task inside a transaction, applies the guarded
	// mutation and writes the audit entry atomically
	Transition(taskID uint64, apply func(*models.Task) (*models.AuditLog, error)) (*models.Task, error)
}

// AskingTaskRepository defines the interface for asking-task data access
type AskingTaskRepository interface {
	// FindByID finds an asking task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.AskingTask, error)

	// ListByOrder lists asking tasks belonging to an order
	ListByOrder(orderID uint64) ([]models.AskingTask, error)

	// Transition re-reads the asking task inside a transaction, applies the
	// mutation, appends the optional stage history row and writes the audit
	// entry atomically
	Transition(id uint64, apply func(*models.AskingTask) (*models.AskingTaskStage, *models.AuditLog, error)) (*models.AskingTask, error)

	// StageHistory returns the append-only stage log, oldest first
	StageHistory(askingTaskID uint64) ([]models.AskingTaskStage, error)
}

// AuditLogFilter holds filtering options for listing audit entries
type AuditLogFilter struct {
	EntityType *models.AuditEntityType
	EntityID   *uint64
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// AuditLogRepository defines the interface for audit log data access
type AuditLogRepository interface {
	// Create appends an audit entry
	Create(entry *models.AuditLog) error

	// List retrieves audit entries, newest first
	List(filter AuditLogFilter) ([]models.AuditLog, int64, error)
}
