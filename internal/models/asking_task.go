package models

import (
	"time"

	"gorm.io/gorm"
)

type AskingStage string

const (
	AskingStageAsked        AskingStage = "ASKED"
	AskingStageShared       AskingStage = "SHARED"
	AskingStageVerified     AskingStage = "VERIFIED"
	AskingStageInformedTeam AskingStage = "INFORMED_TEAM"
)

// IsValid reports whether the stage belongs to the closed set.
func (s AskingStage) IsValid() bool {
	switch s {
	case AskingStageAsked, AskingStageShared, AskingStageVerified, AskingStageInformedTeam:
		return true
	}
	return false
}

type AskingTask struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	OrderID      uint64         `gorm:"not null;index" json:"order_id"`
	ServiceID    uint64         `gorm:"not null" json:"service_id"`
	TeamID       uint64         `gorm:"not null;index" json:"team_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	AssignedToID *uint64        `gorm:"index" json:"assigned_to_id"`
	CurrentStage AskingStage    `gorm:"type:varchar(20);not null;default:'ASKED'" json:"current_stage"`
	IsFlagged    bool           `gorm:"not null;default:false" json:"is_flagged"`
	IsMandatory  bool           `gorm:"not null;default:false" json:"is_mandatory"`
	Notes        string         `gorm:"type:text" json:"notes"`
	Deadline     time.Time      `gorm:"not null" json:"deadline"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Order      Order             `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Service    Service           `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Team       Team              `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	AssignedTo *User             `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Stages     []AskingTaskStage `gorm:"foreignKey:AskingTaskID;constraint:OnDelete:CASCADE" json:"stages,omitempty"`
}

// AskingTaskStage is an append-only history row, one per stage transition.
// Rows are never updated or deleted.
type AskingTaskStage struct {
	ID                      uint64      `gorm:"primarykey" json:"id"`
	AskingTaskID            uint64      `gorm:"not null;index" json:"asking_task_id"`
	Stage                   AskingStage `gorm:"type:varchar(20);not null" json:"stage"`
	InitialConfirmationNote string      `gorm:"type:text" json:"initial_confirmation_note"`
	UpdateRequestNote       string      `gorm:"type:text" json:"update_request_note"`
	PerformedByID           uint64      `gorm:"not null" json:"performed_by_id"`
	CreatedAt               time.Time   `json:"created_at"`

	// Relations
	PerformedBy User `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
}
