package dto

import (
	"time"

	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/services"
)

// OrderDTO represents an order in API responses
type OrderDTO struct {
	ID                  uint64              `json:"id"`
	OrderNumber         string              `json:"order_number"`
	OrderTypeID         uint64              `json:"order_type_id"`
	CustomerName        string              `json:"customer_name"`
	CustomerContact     string              `json:"customer_contact,omitempty"`
	Amount              float64             `json:"amount"`
	OrderDate           time.Time           `json:"order_date"`
	DeliveryDate        time.Time           `json:"delivery_date"`
	Status              models.OrderStatus  `json:"status"`
	FolderLink          *string             `json:"folder_link"`
	IsRevision          bool                `json:"is_revision"`
	RevisionOrderID     *uint64             `json:"revision_order_id,omitempty"`
	RevisionCompletedAt *time.Time          `json:"revision_completed_at,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	Tasks               []models.Task       `json:"tasks,omitempty"`
	AskingTasks         []models.AskingTask `json:"asking_tasks,omitempty"`
}

// DeliveryStatsDTO reports work item completion at delivery time
type DeliveryStatsDTO struct {
	TotalItems         int64 `json:"total_items"`
	CompletedItems     int64 `json:"completed_items"`
	MandatoryRemaining int64 `json:"mandatory_remaining"`
}

// ToOrderDTO converts an Order model to OrderDTO
func ToOrderDTO(order models.Order) OrderDTO {
	return OrderDTO{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		OrderTypeID:         order.OrderTypeID,
		CustomerName:        order.CustomerName,
		CustomerContact:     order.CustomerContact,
		Amount:              order.Amount,
		OrderDate:           order.OrderDate,
		DeliveryDate:        order.DeliveryDate,
		Status:              order.Status,
		FolderLink:          order.FolderLink,
		IsRevision:          order.IsRevision,
		RevisionOrderID:     order.RevisionOrderID,
		RevisionCompletedAt: order.RevisionCompletedAt,
		CompletedAt:         order.CompletedAt,
		CreatedAt:           order.CreatedAt,
		Tasks:               order.Tasks,
		AskingTasks:         order.AskingTasks,
	}
}

// ToDeliveryStatsDTO converts engine delivery stats for API responses
func ToDeliveryStatsDTO(stats services.DeliveryStats) DeliveryStatsDTO {
	return DeliveryStatsDTO{
		TotalItems:         stats.TotalItems,
		CompletedItems:     stats.CompletedItems,
		MandatoryRemaining: stats.MandatoryRemaining,
	}
}
