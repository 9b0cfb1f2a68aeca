package models

import (
	"time"

	"gorm.io/gorm"
)

type ServiceType string

const (
	ServiceTypeTask   ServiceType = "SERVICE_TASK"
	ServiceTypeAsking ServiceType = "ASKING_SERVICE"
)

// Service is a catalog-defined unit of work. Its type decides whether an
// order spawns a Task or an AskingTask for it.
type Service struct {
	ID                uint64         `gorm:"primarykey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug              string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Type              ServiceType    `gorm:"type:varchar(30);not null" json:"type"`
	TeamID            uint64         `gorm:"not null" json:"team_id"`
	IsMandatory       bool           `gorm:"not null;default:false" json:"is_mandatory"`
	AutoAssignEnabled bool           `gorm:"not null;default:false" json:"auto_assign_enabled"`
	AutoAssignUserID  *uint64        `json:"auto_assign_user_id"`
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}
