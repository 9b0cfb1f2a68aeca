package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockedRepo(t *testing.T) (AuditLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewAuditLogRepository(db), mock
}

func TestGormAuditLogRepository_Create(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.AuditLog{
		EntityType:    models.AuditEntityOrder,
		EntityID:      42,
		Action:        models.AuditActionCreate,
		PerformedByID: 7,
		Description:   "Order ORD-1001 created with 3 work items",
	}
	require.NoError(t, repo.Create(entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAuditLogRepository_List_FiltersByEntity(t *testing.T) {
	repo, mock := newMockedRepo(t)

	entityType := models.AuditEntityOrder
	entityID := uint64(42)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `audit_logs`").
		WithArgs(string(entityType), entityID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "performed_by_id", "description"}).
		AddRow(2, string(entityType), entityID, string(models.AuditActionUpdate), 7, "Order ORD-1001 verified").
		AddRow(1, string(entityType), entityID, string(models.AuditActionCreate), 7, "Order ORD-1001 created")
	mock.ExpectQuery("SELECT \\* FROM `audit_logs`").
		WithArgs(string(entityType), entityID).
		WillReturnRows(rows)

	entries, total, err := repo.List(AuditLogFilter{
		EntityType: &entityType,
		EntityID:   &entityID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	require.Equal(t, models.AuditActionUpdate, entries[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
