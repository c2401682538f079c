package guard

import (
	"context"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// RecurringInvoiceGuard authorizes operations on recurring invoices. It is
// stricter than the proposal guard: end_client is denied outright, even with
// an active assignment, and only the owner may delete a schedule.
type RecurringInvoiceGuard struct {
	base
}

func NewRecurringInvoiceGuard(assignments ports.AssignmentRepository) *RecurringInvoiceGuard {
	return &RecurringInvoiceGuard{base{assignments: assignments}}
}

func (g *RecurringInvoiceGuard) CanView(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.decide(ctx, identity, r, domain.RoleDirectClient)
}

func (g *RecurringInvoiceGuard) CanCreate(identity domain.Identity) bool {
	return staffCanCreate(identity)
}

// CanEdit denies once the schedule reaches a terminal status.
func (g *RecurringInvoiceGuard) CanEdit(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	if !domain.RecurringStatus(r.Status).Editable() {
		return false, nil
	}
	return g.decide(ctx, identity, r, domain.RoleDirectClient)
}

func (g *RecurringInvoiceGuard) CanDelete(_ context.Context, identity domain.Identity, _ domain.Resource) (bool, error) {
	return identity.Role == domain.RoleOwner, nil
}

// CanPause authorizes active → paused.
func (g *RecurringInvoiceGuard) CanPause(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.transition(ctx, identity, r, domain.RecurringPaused)
}

// CanResume authorizes paused → active.
func (g *RecurringInvoiceGuard) CanResume(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.transition(ctx, identity, r, domain.RecurringActive)
}

// CanCancel authorizes active/paused → cancelled.
func (g *RecurringInvoiceGuard) CanCancel(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error) {
	return g.transition(ctx, identity, r, domain.RecurringCancelled)
}

// IsValidStatusTransition exposes the workflow table independent of role.
func (g *RecurringInvoiceGuard) IsValidStatusTransition(from, to domain.RecurringStatus) bool {
	return from.CanTransitionTo(to)
}

// AllowedTransitions returns the statuses reachable from the given one.
func (g *RecurringInvoiceGuard) AllowedTransitions(from domain.RecurringStatus) []domain.RecurringStatus {
	return from.AllowedTransitions()
}

// transition checks the status machine first, then delegates to CanEdit.
func (g *RecurringInvoiceGuard) transition(ctx context.Context, identity domain.Identity, r domain.Resource, to domain.RecurringStatus) (bool, error) {
	if !domain.RecurringStatus(r.Status).CanTransitionTo(to) {
		return false, nil
	}
	return g.CanEdit(ctx, identity, r)
}
