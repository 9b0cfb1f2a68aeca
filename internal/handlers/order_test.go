package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/order-management-api/internal/database"
	"github.com/orderdesk/order-management-api/internal/dto"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"github.com/orderdesk/order-management-api/internal/services"
	"github.com/orderdesk/order-management-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OrderHandlerTestSuite defines the test suite for OrderHandler
type OrderHandlerTestSuite struct {
	suite.Suite
	db        *gorm.DB
	handler   *OrderHandler
	auditRepo repository.AuditLogRepository
}

// SetupTest runs before each test
func (suite *OrderHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database; TranslateError matches the runtime
	// config so unique-index violations surface as gorm.ErrDuplicatedKey
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.OrderType{},
		&models.Service{},
		&models.Order{},
		&models.OrderService{},
		&models.Task{},
		&models.AskingTask{},
		&models.AskingTaskStage{},
		&models.AuditLog{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	orderRepo := repository.NewOrderRepository(suite.db)
	taskRepo := repository.NewTaskRepository(suite.db)
	askingTaskRepo := repository.NewAskingTaskRepository(suite.db)
	catalogRepo := repository.NewCatalogRepository(suite.db)
	teamRepo := repository.NewTeamRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	suite.auditRepo = repository.NewAuditLogRepository(suite.db)

	catalogService := services.NewCatalogService(catalogRepo)
	orderService := services.NewOrderService(orderRepo, taskRepo, askingTaskRepo, catalogService, teamRepo, userRepo)
	suite.handler = NewOrderHandler(orderService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *OrderHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *OrderHandlerTestSuite) createTestUser(username string, role models.Role) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	suite.db.Create(user)
	return user
}

func (suite *OrderHandlerTestSuite) createTestTeam(name string) *models.Team {
	team := &models.Team{Name: name}
	suite.db.Create(team)
	return team
}

func (suite *OrderHandlerTestSuite) addTeamMember(teamID, userID uint64, isLeader bool) {
	member := &models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		IsLeader: isLeader,
		IsActive: true,
		JoinedAt: time.Now(),
	}
	suite.db.Create(member)
}

func (suite *OrderHandlerTestSuite) createTestService(slug string, svcType models.ServiceType, teamID uint64, mandatory bool, autoAssignUserID *uint64) *models.Service {
	service := &models.Service{
		Name:              slug,
		Slug:              slug,
		Type:              svcType,
		TeamID:            teamID,
		IsMandatory:       mandatory,
		AutoAssignEnabled: autoAssignUserID != nil,
		AutoAssignUserID:  autoAssignUserID,
		IsActive:          true,
	}
	suite.db.Create(service)
	return service
}

func (suite *OrderHandlerTestSuite) createTestOrderType(slug string, svcs ...*models.Service) *models.OrderType {
	orderType := &models.OrderType{
		Name:          slug,
		Slug:          slug,
		TimeLimitDays: 14,
	}
	suite.db.Create(orderType)
	for _, svc := range svcs {
		suite.Require().NoError(suite.db.Model(orderType).Association("Services").Append(svc))
	}
	return orderType
}

// createAuthContext builds a request context with the authenticated user
// already loaded, the way RequireAuth leaves it.
func (suite *OrderHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("user_id", user.ID)
	c.Set("current_user", *user)

	return c, w
}

func (suite *OrderHandlerTestSuite) orderPayload(orderNumber string, orderTypeID uint64, folderLink *string) []byte {
	payload := map[string]interface{}{
		"order_number":     orderNumber,
		"order_type_id":    orderTypeID,
		"customer_name":    "ACME Corp",
		"customer_contact": "acme@example.com",
		"amount":           250.0,
		"order_date":       time.Now(),
		"delivery_date":    time.Now().AddDate(0, 0, 14),
	}
	if folderLink != nil {
		payload["folder_link"] = *folderLink
	}
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)
	return body
}

func (suite *OrderHandlerTestSuite) createOrderVia(creator *models.User, orderNumber string, orderTypeID uint64, folderLink *string) dto.OrderDTO {
	c, w := suite.createAuthContext("POST", "/api/orders", suite.orderPayload(orderNumber, orderTypeID, folderLink), creator)
	suite.handler.CreateOrder(c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response dto.OrderDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func idParam(c *gin.Context, id uint64) {
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(id, 10)}}
}

// TestCreateOrder_FansOutWorkItems tests that creating an order spawns one
// work item per catalog service, split by service type.
func (suite *OrderHandlerTestSuite) TestCreateOrder_FansOutWorkItems() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svcA := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	svcB := suite.createTestService("layout", models.ServiceTypeTask, team.ID, false, nil)
	svcC := suite.createTestService("confirm-specs", models.ServiceTypeAsking, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svcA, svcB, svcC)

	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.Len(suite.T(), order.Tasks, 2)
	assert.Len(suite.T(), order.AskingTasks, 1)

	for _, task := range order.Tasks {
		assert.Equal(suite.T(), models.TaskStatusNotAssigned, task.Status)
		assert.Nil(suite.T(), task.AssignedToID)
	}
	assert.Equal(suite.T(), models.AskingStageAsked, order.AskingTasks[0].CurrentStage)

	// The service snapshot is copied onto the order
	var snapshots int64
	suite.db.Model(&models.OrderService{}).Where("order_id = ?", order.ID).Count(&snapshots)
	assert.EqualValues(suite.T(), 3, snapshots)

	// Creation lands in the audit trail atomically
	var auditCount int64
	suite.db.Model(&models.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", models.AuditEntityOrder, order.ID).
		Count(&auditCount)
	assert.EqualValues(suite.T(), 1, auditCount)
}

// TestCreateOrder_AutoAssignsWithFolderLink tests auto-assignment at creation
// time when the folder link is present.
func (suite *OrderHandlerTestSuite) TestCreateOrder_AutoAssignsWithFolderLink() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	worker := suite.createTestUser("worker", models.RoleMember)
	team := suite.createTestTeam("Design")
	suite.addTeamMember(team.ID, worker.ID, false)
	taskSvc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, &worker.ID)
	askSvc := suite.createTestService("confirm-specs", models.ServiceTypeAsking, team.ID, true, &worker.ID)
	orderType := suite.createTestOrderType("standard", taskSvc, askSvc)

	link := "https://drive.example.com/orders/1001"
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, &link)

	suite.Require().Len(order.Tasks, 1)
	assert.Equal(suite.T(), models.TaskStatusAssigned, order.Tasks[0].Status)
	suite.Require().NotNil(order.Tasks[0].AssignedToID)
	assert.Equal(suite.T(), worker.ID, *order.Tasks[0].AssignedToID)

	// Asking tasks get the assignee but the stage never moves
	suite.Require().Len(order.AskingTasks, 1)
	assert.Equal(suite.T(), models.AskingStageAsked, order.AskingTasks[0].CurrentStage)
	suite.Require().NotNil(order.AskingTasks[0].AssignedToID)
	assert.Equal(suite.T(), worker.ID, *order.AskingTasks[0].AssignedToID)
}

// TestCreateOrder_GeneratesNumberWhenOmitted tests that an omitted order
// number is filled in by the generator.
func (suite *OrderHandlerTestSuite) TestCreateOrder_GeneratesNumberWhenOmitted() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)

	order := suite.createOrderVia(creator, "", orderType.ID, nil)

	assert.Regexp(suite.T(), `^ORD-[0-9A-F]{4}-[0-9A-F]{4}$`, order.OrderNumber)
}

// TestCreateOrder_DuplicateNumber tests the unique order number rule.
func (suite *OrderHandlerTestSuite) TestCreateOrder_DuplicateNumber() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)

	suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("POST", "/api/orders", suite.orderPayload("ORD-1001", orderType.ID, nil), creator)
	suite.handler.CreateOrder(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestCreateOrder_ForbiddenForMember tests the role gate on order creation.
func (suite *OrderHandlerTestSuite) TestCreateOrder_ForbiddenForMember() {
	member := suite.createTestUser("member", models.RoleMember)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)

	c, w := suite.createAuthContext("POST", "/api/orders", suite.orderPayload("ORD-1001", orderType.ID, nil), member)
	suite.handler.CreateOrder(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestAttachFolderLink_AutoAssignSkipsAssigned tests that re-running the
// folder link auto-assignment never overwrites an existing assignee.
func (suite *OrderHandlerTestSuite) TestAttachFolderLink_AutoAssignSkipsAssigned() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	worker := suite.createTestUser("worker", models.RoleMember)
	other := suite.createTestUser("other", models.RoleMember)
	team := suite.createTestTeam("Design")
	suite.addTeamMember(team.ID, worker.ID, false)
	suite.addTeamMember(team.ID, other.ID, false)
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, &worker.ID)
	orderType := suite.createTestOrderType("standard", svc)

	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)
	suite.Require().Len(order.Tasks, 1)
	assert.Nil(suite.T(), order.Tasks[0].AssignedToID)

	body, _ := json.Marshal(map[string]string{"folder_link": "https://drive.example.com/x"})
	c, w := suite.createAuthContext("PATCH", "/api/orders/1/folder-link", body, creator)
	idParam(c, order.ID)
	suite.handler.AttachFolderLink(c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var task models.Task
	suite.db.First(&task, order.Tasks[0].ID)
	suite.Require().NotNil(task.AssignedToID)
	assert.Equal(suite.T(), worker.ID, *task.AssignedToID)

	// Hand the task to someone else, then re-attach the link
	suite.db.Model(&task).Update("assigned_to_id", other.ID)

	c, w = suite.createAuthContext("PATCH", "/api/orders/1/folder-link", body, creator)
	idParam(c, order.ID)
	suite.handler.AttachFolderLink(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	suite.db.First(&task, task.ID)
	suite.Require().NotNil(task.AssignedToID)
	assert.Equal(suite.T(), other.ID, *task.AssignedToID, "manual assignment must survive re-evaluation")
}

// TestVerifyOrder tests the PENDING -> IN_PROGRESS transition and its guard.
func (suite *OrderHandlerTestSuite) TestVerifyOrder() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("PATCH", "/api/orders/1/verify", nil, creator)
	idParam(c, order.ID)
	suite.handler.VerifyOrder(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var response dto.OrderDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), models.OrderStatusInProgress, response.Status)

	// Verifying a non-pending order is an illegal transition
	c, w = suite.createAuthContext("PATCH", "/api/orders/1/verify", nil, creator)
	idParam(c, order.ID)
	suite.handler.VerifyOrder(c)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestVerifyOrder_TeamLeaderAllowed tests that a leader of an owning team can
// verify even without a privileged role.
func (suite *OrderHandlerTestSuite) TestVerifyOrder_TeamLeaderAllowed() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	leader := suite.createTestUser("leader", models.RoleMember)
	team := suite.createTestTeam("Design")
	suite.addTeamMember(team.ID, leader.ID, true)
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("PATCH", "/api/orders/1/verify", nil, leader)
	idParam(c, order.ID)
	suite.handler.VerifyOrder(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
}

// TestDeliverOrder tests delivery with outstanding mandatory work and the
// double-delivery guard.
func (suite *OrderHandlerTestSuite) TestDeliverOrder() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svcA := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	svcB := suite.createTestService("confirm-specs", models.ServiceTypeAsking, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svcA, svcB)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	// Delivery is allowed with every mandatory item still open
	c, w := suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var response struct {
		Order dto.OrderDTO         `json:"order"`
		Stats dto.DeliveryStatsDTO `json:"delivery_stats"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), models.OrderStatusCompleted, response.Order.Status)
	assert.NotNil(suite.T(), response.Order.CompletedAt)
	assert.EqualValues(suite.T(), 2, response.Stats.TotalItems)
	assert.EqualValues(suite.T(), 0, response.Stats.CompletedItems)
	assert.EqualValues(suite.T(), 2, response.Stats.MandatoryRemaining)

	// Delivering twice is an illegal transition
	c, w = suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestDeliverOrder_StatsMatchDeliveredSnapshot tests that the recorded
// statistics and the audit entry describe the state at delivery time.
func (suite *OrderHandlerTestSuite) TestDeliverOrder_StatsMatchDeliveredSnapshot() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svcA := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	svcB := suite.createTestService("layout", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svcA, svcB)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	suite.Require().NoError(suite.db.Model(&models.Task{}).
		Where("order_id = ? AND service_id = ?", order.ID, svcA.ID).
		Update("status", models.TaskStatusCompleted).Error)

	c, w := suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Stats dto.DeliveryStatsDTO `json:"delivery_stats"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.EqualValues(suite.T(), 2, response.Stats.TotalItems)
	assert.EqualValues(suite.T(), 1, response.Stats.CompletedItems)
	assert.EqualValues(suite.T(), 1, response.Stats.MandatoryRemaining)

	// The audit entry carries the same numbers
	var entry models.AuditLog
	suite.Require().NoError(suite.db.
		Where("entity_type = ? AND entity_id = ? AND action = ?",
			models.AuditEntityOrder, order.ID, models.AuditActionUpdate).
		Order("id DESC").First(&entry).Error)
	assert.Contains(suite.T(), entry.Description, "1/2 items complete")
	assert.Contains(suite.T(), entry.Description, "1 mandatory remaining")
}

// TestConvertToRevision tests the revision sub-flow end to end.
func (suite *OrderHandlerTestSuite) TestConvertToRevision() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	revisioner := suite.createTestUser("revisioner", models.RoleRevisionManager)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	// Origin must be completed first
	c, w := suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// Deliver, then convert
	c, w = suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var revision dto.OrderDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &revision))
	assert.True(suite.T(), revision.IsRevision)
	assert.Equal(suite.T(), models.OrderStatusInProgress, revision.Status)
	suite.Require().NotNil(revision.RevisionOrderID)
	assert.Equal(suite.T(), order.ID, *revision.RevisionOrderID)
	assert.NotEqual(suite.T(), order.OrderNumber, revision.OrderNumber)
	assert.Contains(suite.T(), revision.OrderNumber, order.OrderNumber)

	// The snapshot is cloned, not shared
	var snapshots int64
	suite.db.Model(&models.OrderService{}).Where("order_id = ?", revision.ID).Count(&snapshots)
	assert.EqualValues(suite.T(), 1, snapshots)

	// A second conversion while the revision is active is rejected
	c, w = suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// Completing the revision frees the origin for another conversion
	c, w = suite.createAuthContext("POST", "/api/orders/2/complete-revision", nil, revisioner)
	idParam(c, revision.ID)
	suite.handler.CompleteRevision(c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var completed dto.OrderDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &completed))
	assert.Equal(suite.T(), models.OrderStatusCompleted, completed.Status)
	assert.NotNil(suite.T(), completed.RevisionCompletedAt)

	c, w = suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)
	assert.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
}

// TestConvertToRevision_NumberCollisionConflicts tests that a revision order
// number colliding with an existing order surfaces as Conflict, not 500. The
// generated number is occupied up front so the insert hits the unique index.
func (suite *OrderHandlerTestSuite) TestConvertToRevision_NumberCollisionConflicts() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	revisioner := suite.createTestUser("revisioner", models.RoleRevisionManager)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	// Take both numbers the generator can land on around now, to stay
	// stable across a second boundary
	now := time.Now()
	for _, ts := range []time.Time{now, now.Add(time.Second)} {
		taken := &models.Order{
			OrderNumber:  utils.RevisionOrderNumber(order.OrderNumber, ts),
			OrderTypeID:  orderType.ID,
			Amount:       100,
			OrderDate:    now,
			DeliveryDate: now.AddDate(0, 0, 14),
			Status:       models.OrderStatusPending,
			CreatedByID:  creator.ID,
		}
		suite.Require().NoError(suite.db.Create(taken).Error)
	}

	c, w = suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code, w.Body.String())
}

// TestCompleteRevision_NotARevision tests the guard on the completion side.
func (suite *OrderHandlerTestSuite) TestCompleteRevision_NotARevision() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	revisioner := suite.createTestUser("revisioner", models.RoleRevisionManager)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("POST", "/api/orders/1/complete-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.CompleteRevision(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestAddRevisionTask tests that revision tasks start pre-assigned.
func (suite *OrderHandlerTestSuite) TestAddRevisionTask() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	revisioner := suite.createTestUser("revisioner", models.RoleRevisionManager)
	worker := suite.createTestUser("worker", models.RoleMember)
	team := suite.createTestTeam("Design")
	suite.addTeamMember(team.ID, worker.ID, false)
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createAuthContext("POST", "/api/orders/1/convert-to-revision", nil, revisioner)
	idParam(c, order.ID)
	suite.handler.ConvertToRevision(c)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var revision dto.OrderDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &revision))

	body, _ := json.Marshal(map[string]interface{}{
		"name":      "Fix header colors",
		"member_id": worker.ID,
		"deadline":  time.Now().AddDate(0, 0, 3),
	})
	c, w = suite.createAuthContext("POST", "/api/orders/2/revision-tasks", body, revisioner)
	idParam(c, revision.ID)
	suite.handler.AddRevisionTask(c)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(suite.T(), models.TaskStatusAssigned, task.Status)
	assert.Equal(suite.T(), models.TaskPriorityHigh, task.Priority)
	assert.True(suite.T(), task.IsMandatory)
	assert.True(suite.T(), task.IsRevisionTask)
	suite.Require().NotNil(task.AssignedToID)
	assert.Equal(suite.T(), worker.ID, *task.AssignedToID)
}

// TestAddRevisionTask_RejectsNonRevision tests the ordinary-order guard.
func (suite *OrderHandlerTestSuite) TestAddRevisionTask_RejectsNonRevision() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	revisioner := suite.createTestUser("revisioner", models.RoleRevisionManager)
	worker := suite.createTestUser("worker", models.RoleMember)
	team := suite.createTestTeam("Design")
	suite.addTeamMember(team.ID, worker.ID, false)
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"name":      "Fix header colors",
		"member_id": worker.ID,
		"deadline":  time.Now().AddDate(0, 0, 3),
	})
	c, w := suite.createAuthContext("POST", "/api/orders/1/revision-tasks", body, revisioner)
	idParam(c, order.ID)
	suite.handler.AddRevisionTask(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestListOrders tests filtering and pagination metadata.
func (suite *OrderHandlerTestSuite) TestListOrders() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)
	suite.createOrderVia(creator, "ORD-1002", orderType.ID, nil)

	c, w := suite.createAuthContext("GET", "/api/orders", nil, creator)
	c.Request.URL.RawQuery = "status=PENDING"
	suite.handler.ListOrders(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(suite.T(), response, "orders")
	assert.Contains(suite.T(), response, "pagination")
	orders := response["orders"].([]interface{})
	assert.Len(suite.T(), orders, 2)
}

// TestAuditTrail tests that every lifecycle mutation leaves an audit entry.
func (suite *OrderHandlerTestSuite) TestAuditTrail() {
	creator := suite.createTestUser("creator", models.RoleOrderCreator)
	team := suite.createTestTeam("Design")
	svc := suite.createTestService("retouch", models.ServiceTypeTask, team.ID, true, nil)
	orderType := suite.createTestOrderType("standard", svc)
	order := suite.createOrderVia(creator, "ORD-1001", orderType.ID, nil)

	c, w := suite.createAuthContext("PATCH", "/api/orders/1/verify", nil, creator)
	idParam(c, order.ID)
	suite.handler.VerifyOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createAuthContext("POST", "/api/orders/1/deliver", nil, creator)
	idParam(c, order.ID)
	suite.handler.DeliverOrder(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	entries, total, err := suite.auditRepo.List(repository.AuditLogFilter{
		EntityType: ptrOf(models.AuditEntityOrder),
		EntityID:   &order.ID,
	})
	suite.Require().NoError(err)
	assert.EqualValues(suite.T(), 3, total)
	for _, entry := range entries {
		assert.Equal(suite.T(), creator.ID, entry.PerformedByID)
	}
}

func ptrOf[T any](v T) *T {
	return &v
}

// TestSuite runs the test suite
func TestOrderHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
