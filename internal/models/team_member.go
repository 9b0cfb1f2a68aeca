package models

import "time"

// TeamMember joins users to teams. Membership is soft-deleted via IsActive
// and reactivated on rejoin rather than recreated.
type TeamMember struct {
	TeamID   uint64    `gorm:"primarykey" json:"team_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	IsLeader bool      `gorm:"not null;default:false" json:"is_leader"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
