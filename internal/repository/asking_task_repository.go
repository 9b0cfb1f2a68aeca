package repository

import (
	"github.com/orderdesk/order-management-api/internal/models"
	"gorm.io/gorm"
)

// GormAskingTaskRepository is a GORM implementation of AskingTaskRepository
type GormAskingTaskRepository struct {
	db *gorm.DB
}

// NewAskingTaskRepository creates a new AskingTaskRepository
func NewAskingTaskRepository(db *gorm.DB) AskingTaskRepository {
	return &GormAskingTaskRepository{db: db}
}

// FindByID finds an asking task by ID with optional preloading
func (r *GormAskingTaskRepository) FindByID(id uint64, preload ...string) (*models.AskingTask, error) {
	var askingTask models.AskingTask
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&askingTask, id).Error; err != nil {
		return nil, err
	}
	return &askingTask, nil
}

// ListByOrder lists asking tasks belonging to an order
func (r *GormAskingTaskRepository) ListByOrder(orderID uint64) ([]models.AskingTask, error) {
	var askingTasks []models.AskingTask
	if err := r.db.Preload("AssignedTo").
		Where("order_id = ?", orderID).
		Find(&askingTasks).Error; err != nil {
		return nil, err
	}
	return askingTasks, nil
}

// Transition re-reads the asking task inside a transaction, applies the
// mutation, appends the optional stage history row and writes the audit
// entry atomically.
func (r *GormAskingTaskRepository) Transition(id uint64, apply func(*models.AskingTask) (*models.AskingTaskStage, *models.AuditLog, error)) (*models.AskingTask, error) {
	var updated *models.AskingTask

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var askingTask models.AskingTask
		if err := tx.First(&askingTask, id).Error; err != nil {
			return err
		}

		stageRow, entry, err := apply(&askingTask)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.AskingTask{}).
			Where("id = ?", askingTask.ID).
			Select("assigned_to_id", "current_stage", "is_flagged", "notes", "completed_at").
			Updates(map[string]interface{}{
				"assigned_to_id": askingTask.AssignedToID,
				"current_stage":  askingTask.CurrentStage,
				"is_flagged":     askingTask.IsFlagged,
				"notes":          askingTask.Notes,
				"completed_at":   askingTask.CompletedAt,
			}).Error; err != nil {
			return err
		}

		if stageRow != nil {
			stageRow.AskingTaskID = askingTask.ID
			if err := tx.Create(stageRow).Error; err != nil {
				return err
			}
		}

		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		updated = &askingTask
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// StageHistory returns the append-only stage log, oldest first
func (r *GormAskingTaskRepository) StageHistory(askingTaskID uint64) ([]models.AskingTaskStage, error) {
	var stages []models.AskingTaskStage
	if err := r.db.Where("asking_task_id = ?", askingTaskID).
		Order("created_at ASC, id ASC").
		Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}
