// Package audit builds typed old/new value snapshots for audit log entries.
// Each entity type has its own snapshot struct so the JSON written to the
// audit table keeps its structure instead of degrading into free-form blobs.
package audit

import (
	"encoding/json"
	"time"

	"github.com/orderdesk/order-management-api/internal/models"
)

// OrderSnapshot captures the auditable state of an order.
type OrderSnapshot struct {
	OrderNumber         string             `json:"order_number"`
	Status              models.OrderStatus `json:"status"`
	FolderLink          *string            `json:"folder_link,omitempty"`
	IsRevision          bool               `json:"is_revision"`
	RevisionOrderID     *uint64            `json:"revision_order_id,omitempty"`
	RevisionCompletedAt *time.Time         `json:"revision_completed_at,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
}

// TaskSnapshot captures the auditable state of a task.
type TaskSnapshot struct {
	Status       models.TaskStatus   `json:"status"`
	AssignedToID *uint64             `json:"assigned_to_id,omitempty"`
	Priority     models.TaskPriority `json:"priority"`
	Deadline     time.Time           `json:"deadline"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// AskingTaskSnapshot captures the auditable state of an asking task.
type AskingTaskSnapshot struct {
	CurrentStage models.AskingStage `json:"current_stage"`
	AssignedToID *uint64            `json:"assigned_to_id,omitempty"`
	IsFlagged    bool               `json:"is_flagged"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

// TeamMemberSnapshot captures the auditable state of a team membership.
type TeamMemberSnapshot struct {
	TeamID   uint64 `json:"team_id"`
	UserID   uint64 `json:"user_id"`
	IsLeader bool   `json:"is_leader"`
	IsActive bool   `json:"is_active"`
}

func OfOrder(o *models.Order) OrderSnapshot {
	return OrderSnapshot{
		OrderNumber:         o.OrderNumber,
		Status:              o.Status,
		FolderLink:          o.FolderLink,
		IsRevision:          o.IsRevision,
		RevisionOrderID:     o.RevisionOrderID,
		RevisionCompletedAt: o.RevisionCompletedAt,
		CompletedAt:         o.CompletedAt,
	}
}

func OfTask(t *models.Task) TaskSnapshot {
	return TaskSnapshot{
		Status:       t.Status,
		AssignedToID: t.AssignedToID,
		Priority:     t.Priority,
		Deadline:     t.Deadline,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}

func OfAskingTask(a *models.AskingTask) AskingTaskSnapshot {
	return AskingTaskSnapshot{
		CurrentStage: a.CurrentStage,
		AssignedToID: a.AssignedToID,
		IsFlagged:    a.IsFlagged,
		CompletedAt:  a.CompletedAt,
	}
}

func OfTeamMember(m *models.TeamMember) TeamMemberSnapshot {
	return TeamMemberSnapshot{
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		IsLeader: m.IsLeader,
		IsActive: m.IsActive,
	}
}

// Marshal serializes a snapshot for storage in an audit log column.
// Serialization failures are swallowed into a nil value; the audit row is
// still written with the action and entity reference intact.
func Marshal(snapshot any) *string {
	if snapshot == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// Entry assembles an audit log row from typed snapshots.
func Entry(entityType models.AuditEntityType, entityID uint64, action models.AuditAction, actorID uint64, oldSnap, newSnap any, description string) *models.AuditLog {
	return &models.AuditLog{
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		PerformedByID: actorID,
		OldValue:      Marshal(oldSnap),
		NewValue:      Marshal(newSnap),
		Description:   description,
	}
}
