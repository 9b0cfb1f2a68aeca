package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orderdesk/order-management-api/internal/audit"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrOrderTypeNotFound      = errors.New("order type not found")
	ErrServiceNotFound        = errors.New("referenced service not found or inactive")
	ErrCatalogForbidden       = errors.New("only admins can manage the catalog")
	ErrInvalidCatalogName     = errors.New("name and slug are required")
	ErrInvalidServiceType     = errors.New("service type must be SERVICE_TASK or ASKING_SERVICE")
	ErrOrderTypeHasOrders     = errors.New("order type already has orders")
	ErrServiceSlugTaken       = errors.New("service slug already exists")
	ErrAutoAssignTargetNeeded = errors.New("auto-assign requires a target user")
)

// CatalogService resolves order types into the services a new order spawns
// and carries the admin surface for maintaining them.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalogRepo repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// ResolveOrderType returns the snapshot rows a new order of this type fans
// out into. Read-only; fails with NotFound if the type is missing or any
// associated service is inactive.
func (s *CatalogService) ResolveOrderType(orderTypeID uint64) (*models.OrderType, []models.OrderService, error) {
	orderType, err := s.catalogRepo.FindOrderTypeWithServices(orderTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderTypeNotFound
		}
		return nil, nil, fmt.Errorf("failed to resolve order type: %w", err)
	}

	snapshots := make([]models.OrderService, 0, len(orderType.Services))
	for _, svc := range orderType.Services {
		if !svc.IsActive {
			return nil, nil, ErrServiceNotFound
		}
		snapshots = append(snapshots, models.OrderService{
			ServiceID:         svc.ID,
			ServiceType:       svc.Type,
			TeamID:            svc.TeamID,
			IsMandatory:       svc.IsMandatory,
			AutoAssignEnabled: svc.AutoAssignEnabled,
			AutoAssignUserID:  svc.AutoAssignUserID,
		})
	}

	return orderType, snapshots, nil
}

// CreateOrderTypeInput represents parameters to create a new order type
type CreateOrderTypeInput struct {
	Name          string
	Slug          string
	TimeLimitDays int
	ServiceIDs    []uint64
}

// CreateOrderType creates an order type with its service associations
func (s *CatalogService) CreateOrderType(actor Actor, input CreateOrderTypeInput) (*models.OrderType, error) {
	if !models.CanManageCatalog(actor.Role) {
		return nil, ErrCatalogForbidden
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
		return nil, ErrInvalidCatalogName
	}

	orderType := &models.OrderType{
		Name:          input.Name,
		Slug:          input.Slug,
		TimeLimitDays: input.TimeLimitDays,
	}

	err := s.catalogRepo.CreateOrderType(orderType, input.ServiceIDs, func(ot *models.OrderType) *models.AuditLog {
		return audit.Entry(models.AuditEntityOrderType, ot.ID, models.AuditActionCreate, actor.ID,
			nil, nil, fmt.Sprintf("Order type %q created", ot.Slug))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to create order type: %w", err)
	}

	return orderType, nil
}

// CreateServiceInput represents parameters to create a catalog service
type CreateServiceInput struct {
	Name              string
	Slug              string
	Type              models.ServiceType
	TeamID            uint64
	IsMandatory       bool
	AutoAssignEnabled bool
	AutoAssignUserID  *uint64
}

// CreateService creates a catalog service
func (s *CatalogService) CreateService(actor Actor, input CreateServiceInput) (*models.Service, error) {
	if !models.CanManageCatalog(actor.Role) {
		return nil, ErrCatalogForbidden
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
		return nil, ErrInvalidCatalogName
	}
	if input.Type != models.ServiceTypeTask && input.Type != models.ServiceTypeAsking {
		return nil, ErrInvalidServiceType
	}
	if input.AutoAssignEnabled && input.AutoAssignUserID == nil {
		return nil, ErrAutoAssignTargetNeeded
	}

	if _, err := s.catalogRepo.FindServiceBySlug(input.Slug); err == nil {
		return nil, ErrServiceSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check service slug: %w", err)
	}

	service := &models.Service{
		Name:              input.Name,
		Slug:              input.Slug,
		Type:              input.Type,
		TeamID:            input.TeamID,
		IsMandatory:       input.IsMandatory,
		AutoAssignEnabled: input.AutoAssignEnabled,
		AutoAssignUserID:  input.AutoAssignUserID,
		IsActive:          true,
	}

	err := s.catalogRepo.CreateService(service, func(svc *models.Service) *models.AuditLog {
		return audit.Entry(models.AuditEntityService, svc.ID, models.AuditActionCreate, actor.ID,
			nil, nil, fmt.Sprintf("Service %q created", svc.Slug))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return service, nil
}

// DeleteOrderType removes an order type. Types that already spawned orders
// are immutable and cannot be deleted.
func (s *CatalogService) DeleteOrderType(actor Actor, orderTypeID uint64) error {
	if !models.CanManageCatalog(actor.Role) {
		return ErrCatalogForbidden
	}

	orderType, err := s.catalogRepo.FindOrderTypeWithServices(orderTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderTypeNotFound
		}
		return fmt.Errorf("failed to find order type: %w", err)
	}

	hasOrders, err := s.catalogRepo.HasOrdersForType(orderTypeID)
	if err != nil {
		return fmt.Errorf("failed to check orders for type: %w", err)
	}
	if hasOrders {
		return ErrOrderTypeHasOrders
	}

	err = s.catalogRepo.DeleteOrderType(orderType, func(ot *models.OrderType) *models.AuditLog {
		return audit.Entry(models.AuditEntityOrderType, ot.ID, models.AuditActionDelete, actor.ID,
			nil, nil, fmt.Sprintf("Order type %q deleted", ot.Slug))
	})
	if err != nil {
		return fmt.Errorf("failed to delete order type: %w", err)
	}

	return nil
}

// ListOrderTypes lists all order types with their services
func (s *CatalogService) ListOrderTypes() ([]models.OrderType, error) {
	orderTypes, err := s.catalogRepo.ListOrderTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to list order types: %w", err)
	}
	return orderTypes, nil
}

// ListServices lists all catalog services
func (s *CatalogService) ListServices() ([]models.Service, error) {
	services, err := s.catalogRepo.ListServices()
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
