package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

type AuditEntityType string

const (
	AuditEntityOrder      AuditEntityType = "ORDER"
	AuditEntityTask       AuditEntityType = "TASK"
	AuditEntityAskingTask AuditEntityType = "ASKING_TASK"
	AuditEntityTeam       AuditEntityType = "TEAM"
	AuditEntityOrderType  AuditEntityType = "ORDER_TYPE"
	AuditEntityService    AuditEntityType = "SERVICE"
)

// AuditLog is an append-only record of every mutating engine/tracker
// operation. OldValue/NewValue hold JSON produced from the typed snapshots
// in internal/audit.
type AuditLog struct {
	ID            uint64          `gorm:"primarykey" json:"id"`
	EntityType    AuditEntityType `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID      uint64          `gorm:"not null;index" json:"entity_id"`
	Action        AuditAction     `gorm:"type:varchar(20);not null" json:"action"`
	PerformedByID uint64          `gorm:"not null;index" json:"performed_by_id"`
	OldValue      *string         `gorm:"type:text" json:"old_value"`
	NewValue      *string         `gorm:"type:text" json:"new_value"`
	Description   string          `gorm:"type:varchar(500)" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`

	// Relations
	PerformedBy User `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
}
