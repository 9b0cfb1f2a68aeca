package repository

import (
	"github.com/orderdesk/order-management-api/internal/models"
	"gorm.io/gorm"
)

// GormCatalogRepository is a GORM implementation of CatalogRepository
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindOrderTypeWithServices loads an order type and its service associations
func (r *GormCatalogRepository) FindOrderTypeWithServices(id uint64) (*models.OrderType, error) {
	var orderType models.OrderType
	if err := r.db.Preload("Services").First(&orderType, id).Error; err != nil {
		return nil, err
	}
	return &orderType, nil
}

// CreateOrderType creates an order type with its service associations
func (r *GormCatalogRepository) CreateOrderType(orderType *models.OrderType, serviceIDs []uint64, entry func(*models.OrderType) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(serviceIDs) > 0 {
			var services []models.Service
			if err := tx.Where("id IN ?", serviceIDs).Find(&services).Error; err != nil {
				return err
			}
			if len(services) != len(serviceIDs) {
				return gorm.ErrRecordNotFound
			}
			orderType.Services = services
		}

		if err := tx.Create(orderType).Error; err != nil {
			return err
		}

		if entry != nil {
			if e := entry(orderType); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CreateService creates a catalog service
func (r *GormCatalogRepository) CreateService(service *models.Service, entry func(*models.Service) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(service).Error; err != nil {
			return err
		}
		if entry != nil {
			if e := entry(service); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListOrderTypes lists all order types with services
func (r *GormCatalogRepository) ListOrderTypes() ([]models.OrderType, error) {
	var orderTypes []models.OrderType
	if err := r.db.Preload("Services").Find(&orderTypes).Error; err != nil {
		return nil, err
	}
	return orderTypes, nil
}

// ListServices lists all catalog services
func (r *GormCatalogRepository) ListServices() ([]models.Service, error) {
	var services []models.Service
	if err := r.db.Preload("Team").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// FindServiceBySlug finds a service by slug
func (r *GormCatalogRepository) FindServiceBySlug(slug string) (*models.Service, error) {
	var service models.Service
	if err := r.db.Where("slug = ?", slug).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// HasOrdersForType reports whether any order was created from the type
func (r *GormCatalogRepository) HasOrdersForType(orderTypeID uint64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).
		Where("order_type_id = ?", orderTypeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteOrderType soft-deletes an order type and writes the audit entry
// atomically
func (r *GormCatalogRepository) DeleteOrderType(orderType *models.OrderType, entry func(*models.OrderType) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(orderType).Error; err != nil {
			return err
		}
		if entry != nil {
			if e := entry(orderType); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
