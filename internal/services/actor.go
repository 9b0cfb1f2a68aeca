package services

import "github.com/orderdesk/order-management-api/internal/models"

// Actor is the authenticated caller identity, threaded explicitly into every
// engine/tracker operation instead of being pulled from ambient session
// state.
type Actor struct {
	ID   uint64
	Role models.Role
}

// ActorFromUser builds an Actor from a loaded user record.
func ActorFromUser(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}
