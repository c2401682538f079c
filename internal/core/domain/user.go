package domain

import "time"

// User models a staff or client account in the main user table. Portal
// principals are not users; they authenticate through PortalAccess records.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	AgencyID     string    `json:"agency_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the user into the principal shape consumed by the RBAC
// filter and the resource guards.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, AgencyID: u.AgencyID}
}
