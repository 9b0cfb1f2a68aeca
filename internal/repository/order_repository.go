package repository

import (
	"errors"
	"fmt"

	"github.com/orderdesk/order-management-api/internal/database"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrActiveRevisionExists is returned when a revision is created while the
	// origin order still has a not-yet-completed revision.
	ErrActiveRevisionExists = errors.New("order repository: active revision already exists")
)

// GormOrderRepository is a GORM implementation of OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID with optional preloading
func (r *GormOrderRepository) FindByID(id uint64, preload ...string) (*models.Order, error) {
	var order models.Order
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order by its unique number
func (r *GormOrderRepository) FindByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List retrieves orders with filtering and pagination
func (r *GormOrderRepository) List(filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsRevision != nil {
		query = query.Where("is_revision = ?", *filter.IsRevision)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	var orders []models.Order
	if err := listQuery.Preload("OrderType").Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// CreateWithWorkItems inserts the order, its service snapshot and every
// fanned-out work item in one transaction. A failure anywhere rolls the
// whole order back, so a partially fanned-out order is never persisted.
func (r *GormOrderRepository) CreateWithWorkItems(order *models.Order, services []models.OrderService, tasks []models.Task, askingTasks []models.AskingTask, entry func(*models.Order) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range services {
			services[i].OrderID = order.ID
		}
		if len(services) > 0 {
			if err := tx.Create(&services).Error; err != nil {
				return fmt.Errorf("create order services: %w", err)
			}
		}

		for i := range tasks {
			tasks[i].OrderID = order.ID
		}
		if len(tasks) > 0 {
			if err := tx.Create(&tasks).Error; err != nil {
				return fmt.Errorf("create tasks: %w", err)
			}
		}

		for i := range askingTasks {
			askingTasks[i].OrderID = order.ID
		}
		if len(askingTasks) > 0 {
			if err := tx.Create(&askingTasks).Error; err != nil {
				return fmt.Errorf("create asking tasks: %w", err)
			}
		}

		if entry != nil {
			if e := entry(order); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return fmt.Errorf("create audit entry: %w", err)
				}
			}
		}
		return nil
	})
}

// AttachFolderLink sets the folder link and auto-assigns still-unassigned
// work items whose service snapshot carries an auto-assign target. The
// updates are guarded on assigned_to_id IS NULL, which makes re-running the
// re-evaluation idempotent.
func (r *GormOrderRepository) AttachFolderLink(orderID uint64, link string, entry func(old, updated *models.Order) *models.AuditLog) (*models.Order, error) {
	var updated *models.Order

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}

		old := order
		order.FolderLink = &link
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		var snapshots []models.OrderService
		if err := tx.Where("order_id = ? AND auto_assign_enabled = ? AND auto_assign_user_id IS NOT NULL",
			orderID, true).Find(&snapshots).Error; err != nil {
			return err
		}

		for _, snap := range snapshots {
			switch snap.ServiceType {
			case models.ServiceTypeTask:
				if err := tx.Model(&models.Task{}).
					Where("order_id = ? AND service_id = ? AND assigned_to_id IS NULL", orderID, snap.ServiceID).
					Updates(map[string]interface{}{
						"assigned_to_id": *snap.AutoAssignUserID,
						"status":         models.TaskStatusAssigned,
					}).Error; err != nil {
					return err
				}
			case models.ServiceTypeAsking:
				// Auto-assignment never advances the stage.
				if err := tx.Model(&models.AskingTask{}).
					Where("order_id = ? AND service_id = ? AND assigned_to_id IS NULL", orderID, snap.ServiceID).
					Update("assigned_to_id", *snap.AutoAssignUserID).Error; err != nil {
					return err
				}
			}
		}

		if entry != nil {
			if e := entry(&old, &order); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transition re-reads the order inside a transaction, applies the guarded
// mutation and writes the audit entry atomically. The apply callback is
// responsible for re-checking the source status against the fresh row.
func (r *GormOrderRepository) Transition(orderID uint64, apply func(*models.Order) (*models.AuditLog, error)) (*models.Order, error) {
	var updated *models.Order

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}

		entry, err := apply(&order)
		if err != nil {
			return err
		}

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateRevision inserts the revision order and its copied service snapshot.
// The active-revision precondition is re-checked inside the transaction so
// two concurrent conversions cannot both succeed.
func (r *GormOrderRepository) CreateRevision(revision *models.Order, services []models.OrderService, entry func(*models.Order) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Order{}).
			Where("revision_order_id = ? AND revision_completed_at IS NULL", *revision.RevisionOrderID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveRevisionExists
		}

		if err := tx.Create(revision).Error; err != nil {
			return err
		}

		for i := range services {
			services[i].ID = 0
			services[i].OrderID = revision.ID
		}
		if len(services) > 0 {
			if err := tx.Create(&services).Error; err != nil {
				return err
			}
		}

		if entry != nil {
			if e := entry(revision); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Deliver computes the work item statistics and applies the completion
// transition in the same transaction, so the stats recorded in the response
// and the audit entry describe exactly the delivered snapshot.
func (r *GormOrderRepository) Deliver(orderID uint64, apply func(*models.Order, WorkItemStats) (*models.AuditLog, error)) (*models.Order, WorkItemStats, error) {
	var (
		updated *models.Order
		stats   WorkItemStats
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}

		var err error
		if stats, err = workItemStats(tx, orderID); err != nil {
			return err
		}

		entry, err := apply(&order, stats)
		if err != nil {
			return err
		}

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	return updated, stats, nil
}

// workItemStats aggregates task/asking-task completion for an order. An
// asking task counts as completed once it reaches INFORMED_TEAM.
func workItemStats(tx *gorm.DB, orderID uint64) (WorkItemStats, error) {
	var stats WorkItemStats

	var taskTotal, taskDone, taskMandatoryOpen int64
	if err := tx.Model(&models.Task{}).Where("order_id = ?", orderID).Count(&taskTotal).Error; err != nil {
		return stats, err
	}
	if err := tx.Model(&models.Task{}).
		Where("order_id = ? AND status = ?", orderID, models.TaskStatusCompleted).
		Count(&taskDone).Error; err != nil {
		return stats, err
	}
	if err := tx.Model(&models.Task{}).
		Where("order_id = ? AND is_mandatory = ? AND status <> ?", orderID, true, models.TaskStatusCompleted).
		Count(&taskMandatoryOpen).Error; err != nil {
		return stats, err
	}

	var askTotal, askDone, askMandatoryOpen int64
	if err := tx.Model(&models.AskingTask{}).Where("order_id = ?", orderID).Count(&askTotal).Error; err != nil {
		return stats, err
	}
	if err := tx.Model(&models.AskingTask{}).
		Where("order_id = ? AND current_stage = ?", orderID, models.AskingStageInformedTeam).
		Count(&askDone).Error; err != nil {
		return stats, err
	}
	if err := tx.Model(&models.AskingTask{}).
		Where("order_id = ? AND is_mandatory = ? AND current_stage <> ?", orderID, true, models.AskingStageInformedTeam).
		Count(&askMandatoryOpen).Error; err != nil {
		return stats, err
	}

	stats.TotalItems = taskTotal + askTotal
	stats.CompletedItems = taskDone + askDone
	stats.MandatoryRemaining = taskMandatoryOpen + askMandatoryOpen
	return stats, nil
}
