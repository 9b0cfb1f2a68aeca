package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
)

type Order struct {
	ID                  uint64         `gorm:"primarykey" json:"id"`
	OrderNumber         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_number"`
	OrderTypeID         uint64         `gorm:"not null" json:"order_type_id"`
	CustomerName        string         `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerContact     string         `gorm:"type:varchar(255)" json:"customer_contact"`
	Amount              float64        `gorm:"not null" json:"amount"`
	OrderDate           time.Time      `gorm:"not null" json:"order_date"`
	DeliveryDate        time.Time      `gorm:"not null" json:"delivery_date"`
	Status              OrderStatus    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	FolderLink          *string        `gorm:"type:varchar(1024)" json:"folder_link"`
	IsRevision          bool           `gorm:"not null;default:false" json:"is_revision"`
	RevisionOrderID     *uint64        `gorm:"index" json:"revision_order_id"`
	RevisionCompletedAt *time.Time     `json:"revision_completed_at"`
	CompletedAt         *time.Time     `json:"completed_at"`
	CreatedByID         uint64         `gorm:"not null" json:"created_by_id"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	OrderType   OrderType      `gorm:"foreignKey:OrderTypeID" json:"order_type,omitempty"`
	CreatedBy   User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Services    []OrderService `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
	Tasks       []Task         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
	AskingTasks []AskingTask   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"asking_tasks,omitempty"`
}

// OrderService snapshots a catalog service at order-creation time. Later
// catalog edits never change what an existing order fans out or auto-assigns.
type OrderService struct {
	ID                uint64      `gorm:"primarykey" json:"id"`
	OrderID           uint64      `gorm:"not null;index" json:"order_id"`
	ServiceID         uint64      `gorm:"not null" json:"service_id"`
	ServiceType       ServiceType `gorm:"type:varchar(30);not null" json:"service_type"`
	TeamID            uint64      `gorm:"not null" json:"team_id"`
	IsMandatory       bool        `gorm:"not null;default:false" json:"is_mandatory"`
	AutoAssignEnabled bool        `gorm:"not null;default:false" json:"auto_assign_enabled"`
	AutoAssignUserID  *uint64     `json:"auto_assign_user_id"`
	CreatedAt         time.Time   `json:"created_at"`
}
