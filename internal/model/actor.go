package model

import "github.com/google/uuid"

type Role string

const (
	RoleMedic  Role = "MEDIC"
	RoleDoctor Role = "DOCTOR"
	RoleAdmin  Role = "ADMIN"
)

// Actor is the verified identity behind a request. Authentication happens at
// the gateway; the API only consumes the resulting id and role.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsDoctor() bool {
	return a.Role == RoleDoctor
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
