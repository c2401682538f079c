package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/api/metrics"
	"github.com/agencyhub/crm-api/internal/api/middleware"
	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// PortalHandler serves the client portal: credential login, session lifecycle
// and the portal-scoped resource reads. Portal principals never pass through
// the staff guards; authorization is the permission map plus tenant isolation.
type PortalHandler struct {
	portal        ports.PortalService
	proposals     ports.ProposalRepository
	recurring     ports.RecurringInvoiceRepository
	proposalGuard *guard.ProposalGuard
}

func NewPortalHandler(portal ports.PortalService, proposals ports.ProposalRepository, recurring ports.RecurringInvoiceRepository, pg *guard.ProposalGuard) *PortalHandler {
	return &PortalHandler{portal: portal, proposals: proposals, recurring: recurring, proposalGuard: pg}
}

type portalLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type portalSessionResponse struct {
	SessionToken string             `json:"session_token"`
	Auth         *domain.PortalAuth `json:"auth"`
}

type portalRespondRequest struct {
	Accept bool `json:"accept"`
}

// LoginWithToken exchanges a long-lived access token for a portal session.
//
// @Summary      Portal login with access token
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      portalLoginRequest  true  "Access token"
// @Success      200   {object}  portalSessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /portal/login/token [post]
func (h *PortalHandler) LoginWithToken(c echo.Context) error {
	return h.login(c, "token", h.portal.AuthenticateWithToken)
}

// LoginWithMagicLink consumes a single-use magic link and issues a session.
// A replay of the same link fails, even under concurrent redemption.
//
// @Summary      Portal login with magic link
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      portalLoginRequest  true  "Magic-link token"
// @Success      200   {object}  portalSessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /portal/login/magic-link [post]
func (h *PortalHandler) LoginWithMagicLink(c echo.Context) error {
	return h.login(c, "magic_link", h.portal.AuthenticateWithMagicLink)
}

func (h *PortalHandler) login(c echo.Context, method string, authenticate func(ctx context.Context, token string) (*domain.PortalAuth, error)) error {
	var req portalLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	auth, err := authenticate(c.Request().Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrPortalUnauthenticated) {
			metrics.PortalAuthTotal.WithLabelValues(method, "failure").Inc()
		}
		return err
	}
	metrics.PortalAuthTotal.WithLabelValues(method, "success").Inc()

	session, err := h.portal.CreateSession(c.Request().Context(), auth.AccessID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	metrics.PortalSessionsCreatedTotal.Inc()

	return c.JSON(http.StatusOK, portalSessionResponse{SessionToken: session.Token, Auth: auth})
}

// Logout terminates the portal session. Idempotent: logging out twice is fine.
//
// @Summary      Portal logout
// @Tags         portal
// @Success      204
// @Router       /portal/logout [post]
func (h *PortalHandler) Logout(c echo.Context) error {
	if _, ok := middleware.PortalAuthFrom(c); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	if _, err := h.portal.Logout(c.Request().Context(), middleware.BearerToken(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated portal principal.
//
// @Summary      Current portal principal
// @Tags         portal
// @Produce      json
// @Success      200  {object}  domain.PortalAuth
// @Failure      401  {object}  map[string]string
// @Router       /portal/me [get]
func (h *PortalHandler) Me(c echo.Context) error {
	auth, ok := middleware.PortalAuthFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return c.JSON(http.StatusOK, auth)
}

// GetProposal returns a proposal visible to the portal principal.
//
// @Summary      Portal view of a proposal
// @Tags         portal
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  domain.Proposal
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /portal/proposals/{id} [get]
func (h *PortalHandler) GetProposal(c echo.Context) error {
	auth, ok := middleware.PortalAuthFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	if !auth.HasPermission(domain.PermViewProposals) {
		return domain.ErrForbidden
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !auth.CanAccessResource(proposal.ClientID) {
		return domain.ErrForbidden
	}

	return c.JSON(http.StatusOK, proposal)
}

// RespondToProposal records the client's accept or reject decision. Only the
// workflow state gates the response; the proposal must be sent or viewed.
//
// @Summary      Accept or reject a proposal
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Proposal ID"
// @Param        body  body      portalRespondRequest  true  "Decision"
// @Success      200   {object}  domain.Proposal
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /portal/proposals/{id}/respond [post]
func (h *PortalHandler) RespondToProposal(c echo.Context) error {
	auth, ok := middleware.PortalAuthFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	if !auth.HasPermission(domain.PermViewProposals) {
		return domain.ErrForbidden
	}

	proposal, err := h.proposals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !auth.CanAccessResource(proposal.ClientID) {
		return domain.ErrForbidden
	}

	if !h.proposalGuard.CanRespond(proposal.Resource()) {
		return domain.ErrInvalidTransition
	}

	var req portalRespondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if req.Accept {
		proposal.Status = domain.ProposalAccepted
	} else {
		proposal.Status = domain.ProposalRejected
	}
	if err := h.proposals.Update(c.Request().Context(), proposal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposal)
}

// GetRecurringInvoice returns a billing schedule visible to the portal
// principal under the view_invoices permission.
//
// @Summary      Portal view of a recurring invoice
// @Tags         portal
// @Produce      json
// @Param        id   path      string  true  "Recurring invoice ID"
// @Success      200  {object}  domain.RecurringInvoice
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /portal/invoices/recurring/{id} [get]
func (h *PortalHandler) GetRecurringInvoice(c echo.Context) error {
	auth, ok := middleware.PortalAuthFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	if !auth.HasPermission(domain.PermViewInvoices) {
		return domain.ErrForbidden
	}

	ri, err := h.recurring.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !auth.CanAccessResource(ri.ClientID) {
		return domain.ErrForbidden
	}

	return c.JSON(http.StatusOK, ri)
}
