package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orderdesk/order-management-api/internal/audit"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrTaskForbidden         = errors.New("only the owning team's leader or an admin can manage this task")
	ErrNotTaskAssignee       = errors.New("only the current assignee can perform this action")
	ErrAssigneeNotInTeam     = errors.New("assignee must be an active member of the task's team")
	ErrDeadlineAfterDelivery = errors.New("task deadline must be before the order's delivery date")
	ErrTaskNotUnassigned     = errors.New("task is already assigned")
	ErrTaskNotReassignable   = errors.New("task cannot be reassigned from its current status")
	ErrTaskAlreadyCompleted  = errors.New("task is already completed")
	ErrTaskNotStarted        = errors.New("task must be started before completion")
	ErrTaskNotAssignedYet    = errors.New("task must be assigned before starting")
	ErrTaskNotInProgress     = errors.New("task is not in progress")
	ErrTaskNotPaused         = errors.New("task is not paused")
	ErrInvalidPriority       = errors.New("invalid task priority")
)

// TaskService is the per-task state machine:
// NOT_ASSIGNED -> ASSIGNED -> IN_PROGRESS <-> PAUSED -> COMPLETED.
// Every transition re-checks the source status inside the write transaction.
type TaskService struct {
	taskRepo  repository.TaskRepository
	orderRepo repository.OrderRepository
	teamRepo  repository.TeamRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, orderRepo repository.OrderRepository, teamRepo repository.TeamRepository) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		orderRepo: orderRepo,
		teamRepo:  teamRepo,
	}
}

// AssignTaskInput represents input for assigning a task
type AssignTaskInput struct {
	AssigneeID uint64
	Deadline   time.Time
	Priority   models.TaskPriority
}

// Assign assigns an unassigned task to an active member of its team.
func (s *TaskService) Assign(actor Actor, taskID uint64, input AssignTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.checkAssignPreconditions(actor, task, input); err != nil {
		return nil, err
	}

	return s.transition(taskID, actor, "assigned", func(t *models.Task) error {
		if t.Status != models.TaskStatusNotAssigned {
			return ErrTaskNotUnassigned
		}
		t.AssignedToID = &input.AssigneeID
		t.Status = models.TaskStatusAssigned
		t.Deadline = input.Deadline
		t.Priority = input.Priority
		return nil
	})
}

// Reassign moves an already-assigned (possibly in-progress) task to another
// member and resets it to ASSIGNED.
func (s *TaskService) Reassign(actor Actor, taskID uint64, input AssignTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.checkAssignPreconditions(actor, task, input); err != nil {
		return nil, err
	}

	return s.transition(taskID, actor, "reassigned", func(t *models.Task) error {
		switch t.Status {
		case models.TaskStatusAssigned, models.TaskStatusInProgress, models.TaskStatusPaused:
		case models.TaskStatusCompleted:
			return ErrTaskAlreadyCompleted
		default:
			return ErrTaskNotReassignable
		}
		t.AssignedToID = &input.AssigneeID
		t.Status = models.TaskStatusAssigned
		t.Deadline = input.Deadline
		t.Priority = input.Priority
		t.StartedAt = nil
		return nil
	})
}

// Discard returns a task to NOT_ASSIGNED and clears the assignee.
func (s *TaskService) Discard(actor Actor, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.checkLeadership(actor, task.TeamID); err != nil {
		return nil, err
	}

	return s.transition(taskID, actor, "discarded", func(t *models.Task) error {
		if t.Status == models.TaskStatusCompleted {
			return ErrTaskAlreadyCompleted
		}
		t.AssignedToID = nil
		t.Status = models.TaskStatusNotAssigned
		t.StartedAt = nil
		t.Notes = appendNote(t.Notes, "[discarded]")
		return nil
	})
}

// Start moves an assigned task to IN_PROGRESS and records the start time.
func (s *TaskService) Start(actor Actor, taskID uint64) (*models.Task, error) {
	now := time.Now()
	return s.transition(taskID, actor, "started", func(t *models.Task) error {
		if err := requireAssignee(t, actor); err != nil {
			return err
		}
		if t.Status != models.TaskStatusAssigned {
			return ErrTaskNotAssignedYet
		}
		t.Status = models.TaskStatusInProgress
		t.StartedAt = &now
		return nil
	})
}

// Pause moves an in-progress task to PAUSED.
func (s *TaskService) Pause(actor Actor, taskID uint64) (*models.Task, error) {
	return s.transition(taskID, actor, "paused", func(t *models.Task) error {
		if err := requireAssignee(t, actor); err != nil {
			return err
		}
		if t.Status != models.TaskStatusInProgress {
			return ErrTaskNotInProgress
		}
		t.Status = models.TaskStatusPaused
		return nil
	})
}

// Resume moves a paused task back to IN_PROGRESS.
func (s *TaskService) Resume(actor Actor, taskID uint64) (*models.Task, error) {
	return s.transition(taskID, actor, "resumed", func(t *models.Task) error {
		if err := requireAssignee(t, actor); err != nil {
			return err
		}
		if t.Status != models.TaskStatusPaused {
			return ErrTaskNotPaused
		}
		t.Status = models.TaskStatusInProgress
		return nil
	})
}

// Complete finishes a started task, recording the completion time. The
// elapsed time falls out of CompletedAt - StartedAt.
func (s *TaskService) Complete(actor Actor, taskID uint64, notes string) (*models.Task, error) {
	now := time.Now()
	return s.transition(taskID, actor, "completed", func(t *models.Task) error {
		if err := requireAssignee(t, actor); err != nil {
			return err
		}
		switch t.Status {
		case models.TaskStatusCompleted:
			return ErrTaskAlreadyCompleted
		case models.TaskStatusAssigned, models.TaskStatusNotAssigned:
			return ErrTaskNotStarted
		}
		t.Status = models.TaskStatusCompleted
		t.CompletedAt = &now
		if strings.TrimSpace(notes) != "" {
			t.Notes = appendNote(t.Notes, notes)
		}
		return nil
	})
}

// ListForOrder lists the tasks fanned out for an order.
func (s *TaskService) ListForOrder(orderID uint64) ([]models.Task, error) {
	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	tasks, err := s.taskRepo.ListByOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Order", "Team", "AssignedTo", "Service")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Order")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// checkAssignPreconditions validates leadership, team membership, priority
// and the deadline-before-delivery rule shared by Assign and Reassign.
func (s *TaskService) checkAssignPreconditions(actor Actor, task *models.Task, input AssignTaskInput) error {
	if err := s.checkLeadership(actor, task.TeamID); err != nil {
		return err
	}

	switch input.Priority {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
	default:
		return ErrInvalidPriority
	}

	if input.Deadline.IsZero() || !input.Deadline.Before(task.Order.DeliveryDate) {
		return ErrDeadlineAfterDelivery
	}

	if _, err := s.teamRepo.FindActiveMember(task.TeamID, input.AssigneeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotInTeam
		}
		return fmt.Errorf("failed to check team membership: %w", err)
	}

	return nil
}

func (s *TaskService) checkLeadership(actor Actor, teamID uint64) error {
	isLeader, err := s.teamRepo.IsActiveLeader(teamID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check team leadership: %w", err)
	}
	if !models.CanAssignTask(actor.Role, isLeader) {
		return ErrTaskForbidden
	}
	return nil
}

func (s *TaskService) transition(taskID uint64, actor Actor, verb string, mutate func(*models.Task) error) (*models.Task, error) {
	task, err := s.taskRepo.Transition(taskID, func(t *models.Task) (*models.AuditLog, error) {
		old := audit.OfTask(t)
		if err := mutate(t); err != nil {
			return nil, err
		}
		return audit.Entry(models.AuditEntityTask, t.ID, models.AuditActionUpdate, actor.ID,
			old, audit.OfTask(t), fmt.Sprintf("Task %q %s", t.Name, verb)), nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func requireAssignee(t *models.Task, actor Actor) error {
	if t.AssignedToID == nil || *t.AssignedToID != actor.ID {
		return ErrNotTaskAssignee
	}
	return nil
}

func appendNote(notes, addition string) string {
	if strings.TrimSpace(notes) == "" {
		return addition
	}
	return notes + "\n" + addition
}
