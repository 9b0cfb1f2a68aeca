package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orderdesk/order-management-api/internal/audit"
	"github.com/orderdesk/order-management-api/internal/models"
	"github.com/orderdesk/order-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamForbidden      = errors.New("only admins can manage teams")
	ErrInvalidTeamName    = errors.New("team name cannot be empty")
	ErrTeamMemberNotFound = errors.New("team member not found")
)

// TeamService provides business logic for team and membership operations.
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
	}
}

// CreateTeam creates a new team.
func (s *TeamService) CreateTeam(actor Actor, name string) (*models.Team, error) {
	if !models.CanManageTeams(actor.Role) {
		return nil, ErrTeamForbidden
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidTeamName
	}

	team := &models.Team{Name: name}
	err := s.teamRepo.Create(team, func(t *models.Team) *models.AuditLog {
		return audit.Entry(models.AuditEntityTeam, t.ID, models.AuditActionCreate, actor.ID,
			nil, nil, fmt.Sprintf("Team %q created", t.Name))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// AddMemberInput represents parameters to add a team member.
type AddMemberInput struct {
	UserID   uint64
	IsLeader bool
}

// AddMember adds a user to a team. A previously removed membership is
// reactivated rather than recreated.
func (s *TeamService) AddMember(actor Actor, teamID uint64, input AddMemberInput) (*models.TeamMember, error) {
	if !models.CanManageTeams(actor.Role) {
		return nil, ErrTeamForbidden
	}

	if _, err := s.teamRepo.FindByID(teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	member := &models.TeamMember{
		TeamID:   teamID,
		UserID:   input.UserID,
		IsLeader: input.IsLeader,
		IsActive: true,
		JoinedAt: time.Now(),
	}

	result, err := s.teamRepo.UpsertMember(member, func(old, updated *models.TeamMember) *models.AuditLog {
		var oldSnap any
		if old != nil {
			oldSnap = audit.OfTeamMember(old)
		}
		return audit.Entry(models.AuditEntityTeam, teamID, models.AuditActionUpdate, actor.ID,
			oldSnap, audit.OfTeamMember(updated),
			fmt.Sprintf("User %d added to team %d", input.UserID, teamID))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}

	return result, nil
}

// RemoveMember soft-removes a member from a team.
func (s *TeamService) RemoveMember(actor Actor, teamID, userID uint64) error {
	if !models.CanManageTeams(actor.Role) {
		return ErrTeamForbidden
	}

	err := s.teamRepo.DeactivateMember(teamID, userID, func(old, updated *models.TeamMember) *models.AuditLog {
		return audit.Entry(models.AuditEntityTeam, teamID, models.AuditActionUpdate, actor.ID,
			audit.OfTeamMember(old), audit.OfTeamMember(updated),
			fmt.Sprintf("User %d removed from team %d", userID, teamID))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	return nil
}
