package repository

import (
	"errors"

	"github.com/orderdesk/order-management-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team and writes the audit entry atomically
func (r *GormTeamRepository) Create(team *models.Team, entry func(*models.Team) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		if entry != nil {
			if e := entry(team); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindActiveMember finds an active membership row
func (r *GormTeamRepository) FindActiveMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// IsActiveLeader reports whether the user is an active leader of the team
func (r *GormTeamRepository) IsActiveLeader(teamID, userID uint64) (bool, error) {
	member, err := r.FindActiveMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.IsLeader, nil
}

// FirstActiveMembership returns the user's first active membership
func (r *GormTeamRepository) FirstActiveMembership(userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("joined_at ASC").
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertMember adds a member or reactivates a previously removed one. A
// removed membership keeps its row; rejoining flips is_active back on.
func (r *GormTeamRepository) UpsertMember(member *models.TeamMember, entry func(old, new *models.TeamMember) *models.AuditLog) (*models.TeamMember, error) {
	var result *models.TeamMember

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.TeamMember
		err := tx.Where("team_id = ? AND user_id = ?", member.TeamID, member.UserID).
			First(&existing).Error

		var old *models.TeamMember
		switch {
		case err == nil:
			snapshot := existing
			old = &snapshot

			existing.IsActive = true
			existing.IsLeader = member.IsLeader
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(member).Error; err != nil {
				return err
			}
			result = member
		default:
			return err
		}

		if entry != nil {
			if e := entry(old, result); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeactivateMember soft-removes a member
func (r *GormTeamRepository) DeactivateMember(teamID, userID uint64, entry func(old, new *models.TeamMember) *models.AuditLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var member models.TeamMember
		if err := tx.Where("team_id = ? AND user_id = ?", teamID, userID).
			First(&member).Error; err != nil {
			return err
		}

		old := member
		member.IsActive = false
		if err := tx.Save(&member).Error; err != nil {
			return err
		}

		if entry != nil {
			if e := entry(&old, &member); e != nil {
				if err := tx.Create(e).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
