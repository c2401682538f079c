// Package guard implements the per-resource authorization decision layer.
//
// Each guard is a stateless decision component over an (identity, resource)
// pair. Denial is an ordinary false result, never an error; errors are
// reserved for store failures during the assignment lookup. The guards
// complement the database row-level-security policies, they do not replace
// them.
package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// Guard is the contract every resource guard implements.
type Guard interface {
	CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error)
	CanCreate(identity domain.Identity) bool
	CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error)
	CanDelete(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error)
}

// base carries the shared assignment lookup and the common role matrix.
type base struct {
	assignments ports.AssignmentRepository
}

// agencyMatch is the agency-role tenant check. Blank on either side denies:
// a resource without an agency is malformed, and an agency identity without
// an agency is a configuration error surfaced elsewhere.
func (b base) agencyMatch(identity domain.Identity, r domain.Resource) bool {
	return identity.AgencyID != "" && r.AgencyID != "" && identity.AgencyID == r.AgencyID
}

// assignedToClient checks for an active assignment between the identity and
// the resource's client. Resources without a client deny immediately.
func (b base) assignedToClient(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	if identity.ID == "" || r.ClientID == "" {
		return false, nil
	}
	return b.assignments.ActiveAssignmentExists(ctx, identity.ID, r.ClientID)
}

// decide applies the common decision matrix: owner passes, agency needs a
// tenant match, client roles need an active assignment AND membership in the
// guard's allowed client-role set. Unknown roles fail closed.
func (b base) decide(ctx context.Context, identity domain.Identity, r domain.Resource, clientRoles ...string) (bool, error) {
	switch identity.Role {
	case domain.RoleOwner:
		return true, nil
	case domain.RoleAgency:
		return b.agencyMatch(identity, r), nil
	case domain.RoleDirectClient, domain.RoleEndClient:
		for _, role := range clientRoles {
			if role == identity.Role {
				return b.assignedToClient(ctx, identity, r)
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// staffCanCreate is the default create policy: owner and agency staff only.
func staffCanCreate(identity domain.Identity) bool {
	return identity.Role == domain.RoleOwner || identity.Role == domain.RoleAgency
}
