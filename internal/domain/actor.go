package domain

import "github.com/google/uuid"

type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleProvider ActorRole = "provider"
	RoleSystem   ActorRole = "system"
)

func (r ActorRole) IsValid() bool {
	return r == RoleCustomer || r == RoleProvider
}

// Actor is the authenticated identity an operation is performed on behalf of.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role ActorRole `json:"role"`
}

// SystemActor is used by in-process flows that act without a caller, such as
// marking a booking reviewed once its review is stored.
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

func (a Actor) IsProvider() bool {
	return a.Role == RoleProvider
}
