package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// PipelineGuard authorizes operations on pipelines. Pipelines are
// agency-internal: client roles get no access regardless of assignment.
type PipelineGuard struct {
	base
}

func NewPipelineGuard(assignments ports.AssignmentRepository) *PipelineGuard {
	return &PipelineGuard{base{assignments: assignments}}
}

func (g *PipelineGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}

func (g *PipelineGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

func (g *PipelineGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}

func (g *PipelineGuard) CanDelete(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r)
}
