package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderType struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	TimeLimitDays int            `gorm:"not null;default:0" json:"time_limit_days"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Services []Service `gorm:"many2many:order_type_services" json:"services,omitempty"`
}
