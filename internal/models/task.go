package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusNotAssigned TaskStatus = "NOT_ASSIGNED"
	TaskStatusAssigned    TaskStatus = "ASSIGNED"
	TaskStatusInProgress  TaskStatus = "IN_PROGRESS"
	TaskStatusPaused      TaskStatus = "PAUSED"
	TaskStatusCompleted   TaskStatus = "COMPLETED"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	OrderID        uint64         `gorm:"not null;index" json:"order_id"`
	ServiceID      *uint64        `json:"service_id"`
	TeamID         uint64         `gorm:"not null;index" json:"team_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	AssignedToID   *uint64        `gorm:"index" json:"assigned_to_id"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'NOT_ASSIGNED'" json:"status"`
	Priority       TaskPriority   `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Deadline       time.Time      `gorm:"not null" json:"deadline"`
	IsMandatory    bool           `gorm:"not null;default:false" json:"is_mandatory"`
	IsRevisionTask bool           `gorm:"not null;default:false" json:"is_revision_task"`
	Notes          string         `gorm:"type:text" json:"notes"`
	StartedAt      *time.Time     `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Order      Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Service    *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Team       Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	AssignedTo *User    `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// ElapsedTime returns the time spent on the task once completed.
func (t *Task) ElapsedTime() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
