package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// ClientGuard authorizes operations on client records. Both client roles may
// view and edit a client they are assigned to, but only the owner may delete
// one — agencies manage clients, they do not remove them.
type ClientGuard struct {
	base
}

func NewClientGuard(assignments ports.AssignmentRepository) *ClientGuard {
	return &ClientGuard{base{assignments: assignments}}
}

func (g *ClientGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *ClientGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

func (g *ClientGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *ClientGuard) CanDelete(_ context.Context, identity domain.Identity, _ domain.Resource) (bool, error) {
	return identity.Role == domain.RoleOwner, nil
}

// CanManageUsers authorizes assignment management on a client. Same rule as
// edit.
func (g *ClientGuard) CanManageUsers(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.CanEdit(ctx, identity, r)
}
