package domain

import "time"

// Role is the role carried by an authenticated actor.
type Role string

const (
	RoleDriver     Role = "driver"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// IsSuperAdmin reports whether the actor may act on any admin's records.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// Admin represents an admin or sub-admin account. Profile management lives
// outside this service; only lookups and cascade deletion happen here.
type Admin struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
