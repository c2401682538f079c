package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type ProposalHandler struct {
	proposals ports.ProposalRepository
	invoices  ports.RecurringInvoiceRepository
	guard     *guard.ProposalGuard
}

func NewProposalHandler(proposals ports.ProposalRepository, invoices ports.RecurringInvoiceRepository, g *guard.ProposalGuard) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, invoices: invoices, guard: g}
}

type proposalRequest struct {
	AgencyID string  `json:"agency_id"`
	ClientID string  `json:"client_id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

type proposalStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type transitionsResponse struct {
	Status      domain.ProposalStatus   `json:"status"`
	Transitions []domain.ProposalStatus `json:"transitions"`
}

// Get returns one proposal.
//
// @Summary      Get a proposal
// @Tags         proposals
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  domain.Proposal
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /proposals/{id} [get]
func (h *ProposalHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "view")
	}

	return c.JSON(http.StatusOK, proposal)
}

// Create drafts a new proposal.
//
// @Summary      Create a proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Param        body  body      proposalRequest  true  "Proposal details"
// @Success      201   {object}  domain.Proposal
// @Failure      403   {object}  map[string]string
// @Router       /proposals [post]
func (h *ProposalHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("proposal", "create")
	}

	var req proposalRequest
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

	proposal, err := h.proposals.Create(c.Request().Context(), &domain.Proposal{
		AgencyID: agencyID,
		ClientID: req.ClientID,
		Title:    req.Title,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   domain.ProposalDraft,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, proposal)
}

// Update modifies a proposal. Only draft, rejected and expired proposals are
// editable.
//
// @Summary      Update a proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Proposal ID"
// @Param        body  body      proposalRequest  true  "Proposal details"
// @Success      200   {object}  domain.Proposal
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /proposals/{id} [put]
func (h *ProposalHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanEdit(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "edit")
	}

	var req proposalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	proposal.Title = req.Title
	proposal.Amount = req.Amount
	proposal.Currency = req.Currency

	if err := h.proposals.Update(c.Request().Context(), proposal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposal)
}

// Delete removes a proposal. Drafts only.
//
// @Summary      Delete a proposal
// @Tags         proposals
// @Param        id  path  string  true  "Proposal ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /proposals/{id} [delete]
func (h *ProposalHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "delete")
	}

	if err := h.proposals.Delete(c.Request().Context(), proposal.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Send moves a draft proposal to sent.
//
// @Summary      Send a proposal
// @Tags         proposals
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  domain.Proposal
// @Failure      403  {object}  map[string]string
// @Router       /proposals/{id}/send [post]
func (h *ProposalHandler) Send(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanSend(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "send")
	}

	proposal.Status = domain.ProposalSent
	proposal.SentAt = time.Now().UTC()
	if err := h.proposals.Update(c.Request().Context(), proposal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposal)
}

// UpdateStatus applies a workflow transition under the status machine.
//
// @Summary      Transition a proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Proposal ID"
// @Param        body  body      proposalStatusRequest  true  "Target status"
// @Success      200   {object}  domain.Proposal
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /proposals/{id}/status [post]
func (h *ProposalHandler) UpdateStatus(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	var req proposalStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	next := domain.ProposalStatus(req.Status)
	if !h.guard.IsValidStatusTransition(proposal.Status, next) {
		return domain.ErrInvalidTransition
	}

	// Transitions bypass the edit status gate; the role check alone applies.
	ok, err := h.guard.CanView(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "transition")
	}

	proposal.Status = next
	if err := h.proposals.Update(c.Request().Context(), proposal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposal)
}

// Transitions lists the statuses reachable from the proposal's current one.
//
// @Summary      List allowed proposal transitions
// @Tags         proposals
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  transitionsResponse
// @Failure      403  {object}  map[string]string
// @Router       /proposals/{id}/transitions [get]
func (h *ProposalHandler) Transitions(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, proposal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "view")
	}

	return c.JSON(http.StatusOK, transitionsResponse{
		Status:      proposal.Status,
		Transitions: h.guard.AllowedTransitions(proposal.Status),
	})
}

// ConvertToInvoice turns an accepted proposal into an invoice. A proposal can
// be converted once.
//
// @Summary      Convert a proposal to an invoice
// @Tags         proposals
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      201  {object}  domain.Invoice
// @Failure      403  {object}  map[string]string
// @Router       /proposals/{id}/invoice [post]
func (h *ProposalHandler) ConvertToInvoice(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanConvertToInvoice(c.Request().Context(), identity, *proposal)
	if err != nil {
		return err
	}
	if !ok {
		return deny("proposal", "convert")
	}

	now := time.Now().UTC()
	invoice, err := h.invoices.InsertInvoice(c.Request().Context(), &domain.Invoice{
		AgencyID:    proposal.AgencyID,
		ClientID:    proposal.ClientID,
		Title:       proposal.Title,
		Amount:      proposal.Amount,
		Currency:    proposal.Currency,
		PeriodStart: now,
		IssuedAt:    now,
	})
	if err != nil {
		return err
	}

	proposal.ConvertedToInvoiceID = invoice.ID
	if err := h.proposals.Update(c.Request().Context(), proposal); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoice)
}
