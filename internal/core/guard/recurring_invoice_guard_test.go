package guard

import (
	"context"
	"testing"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

func recurringResource(status domain.RecurringStatus) domain.Resource {
	return domain.Resource{AgencyID: "A1", ClientID: "c1", Status: string(status)}
}

func TestRecurringInvoiceGuard_EndClientAlwaysDenied(t *testing.T) {
	ctx := context.Background()
	assignments := newStubAssignments("u1:c1")
	g := NewRecurringInvoiceGuard(assignments)
	r := recurringResource(domain.RecurringActive)

	got, err := g.CanView(ctx, endClient("u1"), r)
	mustDecide(t, got, err, false, "end client view despite assignment")

	got, err = g.CanEdit(ctx, endClient("u1"), r)
	mustDecide(t, got, err, false, "end client edit despite assignment")

	// direct_client still qualifies through assignment.
	got, err = g.CanView(ctx, directClient("u1"), r)
	mustDecide(t, got, err, true, "direct client view")
}

func TestRecurringInvoiceGuard_DeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	g := NewRecurringInvoiceGuard(newStubAssignments("u1:c1"))
	r := recurringResource(domain.RecurringActive)

	got, err := g.CanDelete(ctx, owner(), r)
	mustDecide(t, got, err, true, "owner delete")

	got, err = g.CanDelete(ctx, agency("A1"), r)
	mustDecide(t, got, err, false, "agency delete")

	got, err = g.CanDelete(ctx, directClient("u1"), r)
	mustDecide(t, got, err, false, "direct client delete")
}

func TestRecurringInvoiceGuard_TerminalStatusLocksEdits(t *testing.T) {
	ctx := context.Background()
	g := NewRecurringInvoiceGuard(newStubAssignments())

	for _, st := range []domain.RecurringStatus{domain.RecurringCompleted, domain.RecurringCancelled} {
		got, err := g.CanEdit(ctx, agency("A1"), recurringResource(st))
		mustDecide(t, got, err, false, "edit "+string(st))
	}

	got, err := g.CanEdit(ctx, agency("A1"), recurringResource(domain.RecurringPaused))
	mustDecide(t, got, err, true, "edit paused")
}

func TestRecurringInvoiceGuard_PauseResumeCancel(t *testing.T) {
	ctx := context.Background()
	g := NewRecurringInvoiceGuard(newStubAssignments())
	id := agency("A1")

	paused := recurringResource(domain.RecurringPaused)
	active := recurringResource(domain.RecurringActive)

	got, err := g.CanResume(ctx, id, paused)
	mustDecide(t, got, err, true, "resume paused")

	got, err = g.CanPause(ctx, id, paused)
	mustDecide(t, got, err, false, "pause paused")

	got, err = g.CanPause(ctx, id, active)
	mustDecide(t, got, err, true, "pause active")

	got, err = g.CanResume(ctx, id, active)
	mustDecide(t, got, err, false, "resume active")

	got, err = g.CanCancel(ctx, id, active)
	mustDecide(t, got, err, true, "cancel active")

	got, err = g.CanCancel(ctx, id, recurringResource(domain.RecurringCancelled))
	mustDecide(t, got, err, false, "cancel cancelled")
}

func TestRecurringInvoiceGuard_TransitionTable(t *testing.T) {
	g := NewRecurringInvoiceGuard(newStubAssignments())

	if !g.IsValidStatusTransition(domain.RecurringActive, domain.RecurringPaused) {
		t.Errorf("active -> paused must be valid")
	}
	if !g.IsValidStatusTransition(domain.RecurringPaused, domain.RecurringActive) {
		t.Errorf("paused -> active must be valid")
	}
	if g.IsValidStatusTransition(domain.RecurringCompleted, domain.RecurringCompleted) {
		t.Errorf("completed must have no self-transition")
	}
	if g.IsValidStatusTransition(domain.RecurringCancelled, domain.RecurringActive) {
		t.Errorf("cancelled is terminal")
	}
	if len(g.AllowedTransitions(domain.RecurringCompleted)) != 0 {
		t.Errorf("completed must have no allowed transitions")
	}
}
