package services

import (
	"errors"
	"fmt"

	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
)

var ErrAuditForbidden = errors.New("only admins can view audit logs")

// AuditLogService exposes the append-only audit trail for inspection.
type AuditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(auditRepo repository.AuditLogRepository) *AuditLogService {
	return &AuditLogService{auditRepo: auditRepo}
}

// ListAuditLogsInput represents filters for listing audit entries
type ListAuditLogsInput struct {
	EntityType *models.AuditEntityType
	EntityID   *uint64
	Page       int
	PageSize   int
}

// ListAuditLogs lists audit entries, newest first
func (s *AuditLogService) ListAuditLogs(actor Actor, input ListAuditLogsInput) ([]models.AuditLog, int64, error) {
	if !models.CanViewAuditLogs(actor.Role) {
		return nil, 0, ErrAuditForbidden
	}

	entries, total, err := s.auditRepo.List(repository.AuditLogFilter{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return entries, total, nil
}
