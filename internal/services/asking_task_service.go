package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/orderdesk/order-management-api/internal/audit"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAskingTaskNotFound  = errors.New("asking task not found")
	ErrInvalidAskingStage  = errors.New("invalid asking task stage")
	ErrAskingTaskForbidden = errors.New("user is not permitted to update this asking task")
)

// AskingTaskService advances the staged inquiry workflow
// ASKED -> SHARED -> VERIFIED -> INFORMED_TEAM. Stages are accepted in any
// order; every accepted transition is recorded in the append-only history.
type AskingTaskService struct {
	askingTaskRepo repository.AskingTaskRepository
	teamRepo       repository.TeamRepository
}

// NewAskingTaskService creates a new AskingTaskService
func NewAskingTaskService(askingTaskRepo repository.AskingTaskRepository, teamRepo repository.TeamRepository) *AskingTaskService {
	return &AskingTaskService{
		askingTaskRepo: askingTaskRepo,
		teamRepo:       teamRepo,
	}
}

// AdvanceStageInput represents input for a stage transition
type AdvanceStageInput struct {
	Stage                   models.AskingStage
	InitialConfirmationNote string
	UpdateRequestNote       string
}

// AdvanceStage records a stage transition. Reaching INFORMED_TEAM also marks
// the asking task completed.
func (s *AskingTaskService) AdvanceStage(actor Actor, askingTaskID uint64, input AdvanceStageInput) (*models.AskingTask, error) {
	if !input.Stage.IsValid() {
		return nil, ErrInvalidAskingStage
	}

	if err := s.checkAccess(actor, askingTaskID); err != nil {
		return nil, err
	}

	now := time.Now()
	askingTask, err := s.askingTaskRepo.Transition(askingTaskID, func(a *models.AskingTask) (*models.AskingTaskStage, *models.AuditLog, error) {
		old := audit.OfAskingTask(a)

		a.CurrentStage = input.Stage
		if input.Stage == models.AskingStageInformedTeam {
			a.CompletedAt = &now
		}

		stageRow := &models.AskingTaskStage{
			Stage:                   input.Stage,
			InitialConfirmationNote: input.InitialConfirmationNote,
			UpdateRequestNote:       input.UpdateRequestNote,
			PerformedByID:           actor.ID,
		}

		entry := audit.Entry(models.AuditEntityAskingTask, a.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfAskingTask(a),
			fmt.Sprintf("Asking task %q moved to stage %s", a.Name, input.Stage))
		return stageRow, entry, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAskingTaskNotFound
		}
		return nil, err
	}

	return askingTask, nil
}

// SetFlag flags or unflags an asking task. A side channel; the stage is
// untouched.
func (s *AskingTaskService) SetFlag(actor Actor, askingTaskID uint64, flagged bool) (*models.AskingTask, error) {
	if err := s.checkAccess(actor, askingTaskID); err != nil {
		return nil, err
	}

	verb := "flagged"
	if !flagged {
		verb = "unflagged"
	}

	askingTask, err := s.askingTaskRepo.Transition(askingTaskID, func(a *models.AskingTask) (*models.AskingTaskStage, *models.AuditLog, error) {
		old := audit.OfAskingTask(a)
		a.IsFlagged = flagged
		entry := audit.Entry(models.AuditEntityAskingTask, a.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfAskingTask(a), fmt.Sprintf("Asking task %q %s", a.Name, verb))
		return nil, entry, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAskingTaskNotFound
		}
		return nil, err
	}

	return askingTask, nil
}

// UpdateNotes replaces the free-form notes. A side channel; the stage is
// untouched.
func (s *AskingTaskService) UpdateNotes(actor Actor, askingTaskID uint64, notes string) (*models.AskingTask, error) {
	if err := s.checkAccess(actor, askingTaskID); err != nil {
		return nil, err
	}

	askingTask, err := s.askingTaskRepo.Transition(askingTaskID, func(a *models.AskingTask) (*models.AskingTaskStage, *models.AuditLog, error) {
		old := audit.OfAskingTask(a)
		a.Notes = notes
		entry := audit.Entry(models.AuditEntityAskingTask, a.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfAskingTask(a), fmt.Sprintf("Asking task %q notes updated", a.Name))
		return nil, entry, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAskingTaskNotFound
		}
		return nil, err
	}

	return askingTask, nil
}

// ListForOrder lists the asking tasks fanned out for an order.
func (s *AskingTaskService) ListForOrder(orderID uint64) ([]models.AskingTask, error) {
	askingTasks, err := s.askingTaskRepo.ListByOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asking tasks: %w", err)
	}
	return askingTasks, nil
}

// StageHistory returns the append-only stage log, oldest first.
func (s *AskingTaskService) StageHistory(actor Actor, askingTaskID uint64) ([]models.AskingTaskStage, error) {
	if err := s.checkAccess(actor, askingTaskID); err != nil {
		return nil, err
	}

	stages, err := s.askingTaskRepo.StageHistory(askingTaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage history: %w", err)
	}
	return stages, nil
}

// GetAskingTask returns an asking task with its stage history
func (s *AskingTaskService) GetAskingTask(askingTaskID uint64) (*models.AskingTask, error) {
	askingTask, err := s.askingTaskRepo.FindByID(askingTaskID, "Team", "AssignedTo", "Stages")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAskingTaskNotFound
		}
		return nil, fmt.Errorf("failed to find asking task: %w", err)
	}
	return askingTask, nil
}

// checkAccess permits admins, the current assignee, and active members of
// the owning team.
func (s *AskingTaskService) checkAccess(actor Actor, askingTaskID uint64) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	askingTask, err := s.askingTaskRepo.FindByID(askingTaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAskingTaskNotFound
		}
		return fmt.Errorf("failed to find asking task: %w", err)
	}

	if askingTask.AssignedToID != nil && *askingTask.AssignedToID == actor.ID {
		return nil
	}

	if _, err := s.teamRepo.FindActiveMember(askingTask.TeamID, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAskingTaskForbidden
		}
		return fmt.Errorf("failed to check team membership: %w", err)
	}
	return nil
}
