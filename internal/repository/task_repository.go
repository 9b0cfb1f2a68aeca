package repository

import (
	"github.com/orderdesk/order-management-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOrder lists tasks belonging to an order
func (r *GormTaskRepository) ListByOrder(orderID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("AssignedTo").
		Where("order_id = ?", orderID).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create inserts a task and its audit entry atomically
func (r *GormTaskRepository) Create(task *models.Task, entry func(*models.Task) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if entry != nil {
			if e := entry(task); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Transition re-reads the task inside a transaction, applies the guarded
// mutation and writes the audit entry atomically. The apply callback must
// re-check the source status against the fresh row.
func (r *GormTaskRepository) Transition(taskID uint64, apply func(*models.Task) (*models.AuditLog, error)) (*models.Task, error) {
	var updated *models.Task

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		entry, err := apply(&task)
		if err != nil {
			return err
		}

		// Save skips zero-able fields cleared by the mutation (assigned_to
		// set back to NULL on discard), so persist via explicit selects.
		if err := tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Select("assigned_to_id", "status", "priority", "deadline", "notes", "started_at", "completed_at").
			Updates(map[string]interface{}{
				"assigned_to_id": task.AssignedToID,
				"status":         task.Status,
				"priority":       task.Priority,
				"deadline":       task.Deadline,
				"notes":          task.Notes,
				"started_at":     task.StartedAt,
				"completed_at":   task.CompletedAt,
			}).Error; err != nil {
			return err
		}

		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		updated = &task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
