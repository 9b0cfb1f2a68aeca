package models

type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleOrderCreator    Role = "ORDER_CREATOR"
	RoleRevisionManager Role = "REVISION_MANAGER"
	RoleMember          Role = "MEMBER"
)

// IsValid reports whether the role belongs to the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrderCreator, RoleRevisionManager, RoleMember:
		return true
	}
	return false
}

// Capability table. Role checks live here instead of inline string
// comparisons scattered across handlers.

func CanCreateOrder(role Role) bool {
	return role == RoleAdmin || role == RoleOrderCreator
}

func CanVerifyOrder(role Role, isTeamLeader bool) bool {
	return role == RoleAdmin || role == RoleOrderCreator || isTeamLeader
}

func CanDeliverOrder(role Role) bool {
	return role == RoleAdmin || role == RoleOrderCreator
}

func CanManageRevisions(role Role) bool {
	return role == RoleAdmin || role == RoleRevisionManager
}

func CanManageCatalog(role Role) bool {
	return role == RoleAdmin
}

func CanManageTeams(role Role) bool {
	return role == RoleAdmin
}

// CanAssignTask covers assign, reassign and discard on a task owned by a team.
func CanAssignTask(role Role, isOwningTeamLeader bool) bool {
	return role == RoleAdmin || isOwningTeamLeader
}

func CanViewAuditLogs(role Role) bool {
	return role == RoleAdmin
}
