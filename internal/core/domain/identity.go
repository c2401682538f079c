package domain

const (
	RoleOwner        = "owner"
	RoleAgency       = "agency"
	RoleDirectClient = "direct_client"
	RoleEndClient    = "end_client"
)

// ValidRole reports whether role is one of the recognized CRM roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAgency, RoleDirectClient, RoleEndClient:
		return true
	}
	return false
}

// RequiresAgency reports whether the role must carry an agency affiliation.
// Every role except owner is scoped to exactly one agency; a non-owner
// identity without one is a configuration error, not an ordinary denial.
func RequiresAgency(role string) bool {
	return ValidRole(role) && role != RoleOwner
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	AgencyID string `json:"agency_id,omitempty"`
}

// IsClientRole reports whether the identity belongs to a portal-side client
// user (direct or end client) rather than agency staff.
func (i Identity) IsClientRole() bool {
	return i.Role == RoleDirectClient || i.Role == RoleEndClient
}
