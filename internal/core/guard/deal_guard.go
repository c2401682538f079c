package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// DealGuard authorizes operations on deals. Both client roles qualify
// through assignment; every workflow action shares the edit rule.
type DealGuard struct {
	base
}

func NewDealGuard(assignments ports.AssignmentRepository) *DealGuard {
	return &DealGuard{base{assignments: assignments}}
}

func (g *DealGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *DealGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

func (g *DealGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *DealGuard) CanDelete(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *DealGuard) CanMoveStage(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.CanEdit(ctx, identity, r)
}

func (g *DealGuard) CanCloseDeal(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.CanEdit(ctx, identity, r)
}

func (g *DealGuard) CanConvertToProject(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.CanEdit(ctx, identity, r)
}
