package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type RecurringInvoiceHandler struct {
	recurring ports.RecurringInvoiceRepository
	guard     *guard.RecurringInvoiceGuard
}

func NewRecurringInvoiceHandler(recurring ports.RecurringInvoiceRepository, g *guard.RecurringInvoiceGuard) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{recurring: recurring, guard: g}
}

type recurringRequest struct {
	AgencyID        string     `json:"agency_id"`
	ClientID        string     `json:"client_id" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Amount          float64    `json:"amount" validate:"gt=0"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	Frequency       string     `json:"frequency" validate:"required,oneof=weekly monthly quarterly yearly"`
	NextInvoiceDate time.Time  `json:"next_invoice_date" validate:"required"`
	EndDate         *time.Time `json:"end_date"`
}

// Get returns one recurring invoice schedule.
//
// @Summary      Get a recurring invoice
// @Tags         recurring-invoices
// @Produce      json
// @Param        id   path      string  true  "Recurring invoice ID"
// @Success      200  {object}  domain.RecurringInvoice
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /billing/recurring/{id} [get]
func (h *RecurringInvoiceHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	ri, err := h.recurring.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, ri.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("recurring_invoice", "view")
	}

	return c.JSON(http.StatusOK, ri)
}

// Create starts a new billing schedule.
//
// @Summary      Create a recurring invoice
// @Tags         recurring-invoices
// @Accept       json
// @Produce      json
// @Param        body  body      recurringRequest  true  "Schedule details"
// @Success      201   {object}  domain.RecurringInvoice
// @Failure      403   {object}  map[string]string
// @Router       /billing/recurring [post]
func (h *RecurringInvoiceHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("recurring_invoice", "create")
	}

	var req recurringRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	agencyID := req.AgencyID
	if identity.Role == domain.RoleAgency {
		agencyID = identity.AgencyID
	}

	ri, err := h.recurring.Create(c.Request().Context(), &domain.RecurringInvoice{
		AgencyID:        agencyID,
		ClientID:        req.ClientID,
		Title:           req.Title,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Frequency:       req.Frequency,
		Status:          domain.RecurringActive,
		NextInvoiceDate: req.NextInvoiceDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ri)
}

// Update modifies a schedule. Terminal schedules are immutable.
//
// @Summary      Update a recurring invoice
// @Tags         recurring-invoices
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Recurring invoice ID"
// @Param        body  body      recurringRequest  true  "Schedule details"
// @Success      200   {object}  domain.RecurringInvoice
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /billing/recurring/{id} [put]
func (h *RecurringInvoiceHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	ri, err := h.recurring.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanEdit(c.Request().Context(), identity, ri.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("recurring_invoice", "edit")
	}

	var req recurringRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ri.Title = req.Title
	ri.Amount = req.Amount
	ri.Currency = req.Currency
	ri.Frequency = req.Frequency
	ri.NextInvoiceDate = req.NextInvoiceDate
	ri.EndDate = req.EndDate
	ri.UpdatedAt = time.Now().UTC()

	if err := h.recurring.Update(c.Request().Context(), ri); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ri)
}

// Delete removes a schedule. Owner only.
//
// @Summary      Delete a recurring invoice
// @Tags         recurring-invoices
// @Param        id  path  string  true  "Recurring invoice ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /billing/recurring/{id} [delete]
func (h *RecurringInvoiceHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	ri, err := h.recurring.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, ri.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("recurring_invoice", "delete")
	}

	if err := h.recurring.Delete(c.Request().Context(), ri.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Pause suspends an active schedule.
//
// @Summary      Pause a recurring invoice
// @Tags         recurring-invoices
// @Produce      json
// @Param        id   path      string  true  "Recurring invoice ID"
// @Success      200  {object}  domain.RecurringInvoice
// @Failure      403  {object}  map[string]string
// @Router       /billing/recurring/{id}/pause [post]
func (h *RecurringInvoiceHandler) Pause(c echo.Context) error {
	return h.transition(c, domain.RecurringPaused, "pause", h.guard.CanPause)
}

// Resume reactivates a paused schedule.
//
// @Summary      Resume a recurring invoice
// @Tags         recurring-invoices
// @Produce      json
// @Param        id   path      string  true  "Recurring invoice ID"
// @Success      200  {object}  domain.RecurringInvoice
// @Failure      403  {object}  map[string]string
// @Router       /billing/recurring/{id}/resume [post]
func (h *RecurringInvoiceHandler) Resume(c echo.Context) error {
	return h.transition(c, domain.RecurringActive, "resume", h.guard.CanResume)
}

// Cancel terminates a schedule permanently.
//
// @Summary      Cancel a recurring invoice
// @Tags         recurring-invoices
// @Produce      json
// @Param        id   path      string  true  "Recurring invoice ID"
// @Success      200  {object}  domain.RecurringInvoice
// @Failure      403  {object}  map[string]string
// @Router       /billing/recurring/{id}/cancel [post]
func (h *RecurringInvoiceHandler) Cancel(c echo.Context) error {
	return h.transition(c, domain.RecurringCancelled, "cancel", h.guard.CanCancel)
}

type recurringCheck func(ctx context.Context, identity domain.Identity, r domain.Resource) (bool, error)

func (h *RecurringInvoiceHandler) transition(c echo.Context, to domain.RecurringStatus, action string, allowed recurringCheck) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	ri, err := h.recurring.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := allowed(c.Request().Context(), identity, ri.Resource())
	if err != nil {
		return err
	}
	if !ok {
		if !ri.Status.CanTransitionTo(to) {
			return domain.ErrInvalidTransition
		}
		return deny("recurring_invoice", action)
	}

	ri.Status = to
	ri.UpdatedAt = time.Now().UTC()
	if err := h.recurring.Update(c.Request().Context(), ri); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ri)
}
