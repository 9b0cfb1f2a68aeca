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
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"github.com/orderdesk/order-management-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TeamHandlerTestSuite defines the test suite for TeamHandler
type TeamHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TeamHandler

	admin  *models.User
	member *models.User
}

// SetupTest runs before each test
func (suite *TeamHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.AuditLog{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	teamRepo := repository.NewTeamRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	teamService := services.NewTeamService(teamRepo, userRepo)
	suite.handler = NewTeamHandler(teamService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	suite.admin = &models.User{Username: "admin", PasswordHash: "hashedpassword", Role: models.RoleAdmin}
	suite.db.Create(suite.admin)
	suite.member = &models.User{Username: "member", PasswordHash: "hashedpassword", Role: models.RoleMember}
	suite.db.Create(suite.member)
}

// TearDownTest runs after each test
func (suite *TeamHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TeamHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
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

func (suite *TeamHandlerTestSuite) createTeamVia(user *models.User, name string) models.Team {
	body, _ := json.Marshal(map[string]string{"name": name})
	c, w := suite.createAuthContext("POST", "/api/teams", body, user)
	suite.handler.CreateTeam(c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var team models.Team
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &team))
	return team
}

// TestCreateTeam tests team creation and its role gate.
func (suite *TeamHandlerTestSuite) TestCreateTeam() {
	team := suite.createTeamVia(suite.admin, "Design")
	assert.Equal(suite.T(), "Design", team.Name)

	body, _ := json.Marshal(map[string]string{"name": "Rogue"})
	c, w := suite.createAuthContext("POST", "/api/teams", body, suite.member)
	suite.handler.CreateTeam(c)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestAddMember tests adding a member to a team.
func (suite *TeamHandlerTestSuite) TestAddMember() {
	team := suite.createTeamVia(suite.admin, "Design")

	body, _ := json.Marshal(map[string]interface{}{
		"user_id":   suite.member.ID,
		"is_leader": true,
	})
	c, w := suite.createAuthContext("POST", "/api/teams/1/members", body, suite.admin)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(team.ID, 10)}}
	suite.handler.AddMember(c)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var response models.TeamMember
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response.IsLeader)
	assert.True(suite.T(), response.IsActive)
}

// TestRemoveAndRejoin tests that a removed membership is reactivated on
// rejoin instead of duplicated.
func (suite *TeamHandlerTestSuite) TestRemoveAndRejoin() {
	team := suite.createTeamVia(suite.admin, "Design")

	suite.db.Create(&models.TeamMember{
		TeamID:   team.ID,
		UserID:   suite.member.ID,
		IsActive: true,
		JoinedAt: time.Now(),
	})

	c, w := suite.createAuthContext("DELETE", "/api/teams/1/members/2", nil, suite.admin)
	c.Params = gin.Params{
		{Key: "id", Value: strconv.FormatUint(team.ID, 10)},
		{Key: "userId", Value: strconv.FormatUint(suite.member.ID, 10)},
	}
	suite.handler.RemoveMember(c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var stored models.TeamMember
	suite.db.Where("team_id = ? AND user_id = ?", team.ID, suite.member.ID).First(&stored)
	assert.False(suite.T(), stored.IsActive)

	// Rejoin reactivates the same row
	body, _ := json.Marshal(map[string]interface{}{"user_id": suite.member.ID})
	c, w = suite.createAuthContext("POST", "/api/teams/1/members", body, suite.admin)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(team.ID, 10)}}
	suite.handler.AddMember(c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var count int64
	suite.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", team.ID, suite.member.ID).
		Count(&count)
	assert.EqualValues(suite.T(), 1, count)

	suite.db.Where("team_id = ? AND user_id = ?", team.ID, suite.member.ID).First(&stored)
	assert.True(suite.T(), stored.IsActive)
}

// TestSuite runs the test suite
func TestTeamHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TeamHandlerTestSuite))
}
