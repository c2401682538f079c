package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// ProposalGuard authorizes operations on proposals. Role checks follow the
// common matrix (both client roles qualify through assignment); edit, delete
// and the workflow actions are additionally gated by the proposal's status.
type ProposalGuard struct {
	base
}

func NewProposalGuard(assignments ports.AssignmentRepository) *ProposalGuard {
	return &ProposalGuard{base{assignments: assignments}}
}

func (g *ProposalGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}

func (g *ProposalGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

// CanEdit allows modification only while the proposal is in draft, rejected
// or expired status, on top of the role check.
func (g *ProposalGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	if !domain.ProposalStatus(r.Status).Editable() {
		return false, nil
	}
	return g.editRole(ctx, identity, r)
}

// CanDelete allows removal only while the proposal is still a draft.
func (g *ProposalGuard) CanDelete(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	if !domain.ProposalStatus(r.Status).Deletable() {
		return false, nil
	}
	return g.editRole(ctx, identity, r)
}

// CanSend authorizes the draft → sent transition.
func (g *ProposalGuard) CanSend(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	if domain.ProposalStatus(r.Status) != domain.ProposalDraft {
		return false, nil
	}
	return g.editRole(ctx, identity, r)
}

// CanRespond reports whether the proposal accepts a client response. There is
// no identity: responses arrive through the portal's client access token, so
// only the workflow state matters here.
func (g *ProposalGuard) CanRespond(r domain.Resource) bool {
	return domain.ProposalStatus(r.Status).Respondable()
}

// CanConvertToInvoice requires an accepted proposal that has not already been
// converted, plus the edit-equivalent role check. The proposal is normalized
// before this call, so the status comparison is always against the typed
// value.
func (g *ProposalGuard) CanConvertToInvoice(ctx context.Context, identity domain.Identity, p domain.Proposal) (bool, error) {
	if p.Status != domain.ProposalAccepted || p.ConvertedToInvoiceID != "" {
		return false, nil
	}
	return g.editRole(ctx, identity, p.Resource())
}

// IsValidStatusTransition exposes the workflow table independent of role.
func (g *ProposalGuard) IsValidStatusTransition(from, to domain.ProposalStatus) bool {
	return from.CanTransitionTo(to)
}

// AllowedTransitions returns the statuses reachable from the given one.
func (g *ProposalGuard) AllowedTransitions(from domain.ProposalStatus) []domain.ProposalStatus {
	return from.AllowedTransitions()
}

// editRole is the role half of the edit decision, without the status gate.
func (g *ProposalGuard) editRole(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient, domain.RoleEndClient)
}
