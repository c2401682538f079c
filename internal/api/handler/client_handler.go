package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type ClientHandler struct {
	clients ports.ClientRepository
	guard   *guard.ClientGuard
}

func NewClientHandler(clients ports.ClientRepository, g *guard.ClientGuard) *ClientHandler {
	return &ClientHandler{clients: clients, guard: g}
}

type clientRequest struct {
	AgencyID string `json:"agency_id"`
	Name     string `json:"name" validate:"required"`
	Company  string `json:"company"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
}

type assignmentRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Get returns one client record.
//
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  domain.Client
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, client.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("client", "view")
	}

	return c.JSON(http.StatusOK, client)
}

// Create registers a new client under the caller's agency.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body      clientRequest  true  "Client details"
// @Success      201   {object}  domain.Client
// @Failure      403   {object}  map[string]string
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("client", "create")
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Agency staff always create inside their own tenant; only the owner may
	// pick an agency explicitly.
	agencyID := req.AgencyID
	if identity.Role == domain.RoleAgency {
		agencyID = identity.AgencyID
	}

	client, err := h.clients.Create(c.Request().Context(), &domain.Client{
		AgencyID: agencyID,
		Name:     req.Name,
		Company:  req.Company,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, client)
}

// Update modifies a client record.
//
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Client ID"
// @Param        body  body      clientRequest  true  "Client details"
// @Success      200   {object}  domain.Client
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanEdit(c.Request().Context(), identity, client.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("client", "edit")
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	client.Name = req.Name
	client.Company = req.Company
	client.Email = req.Email
	client.Phone = req.Phone

	if err := h.clients.Update(c.Request().Context(), client); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// Delete removes a client. Owner only.
//
// @Summary      Delete a client
// @Tags         clients
// @Param        id  path  string  true  "Client ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, client.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("client", "delete")
	}

	if err := h.clients.Delete(c.Request().Context(), client.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignUser links a user to the client, granting client-role visibility.
//
// @Summary      Assign a user to a client
// @Tags         clients
// @Accept       json
// @Param        id    path  string             true  "Client ID"
// @Param        body  body  assignmentRequest  true  "User to assign"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /clients/{id}/users [post]
func (h *ClientHandler) AssignUser(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanManageUsers(c.Request().Context(), identity, client.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("client", "manage_users")
	}

	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.clients.AssignUser(c.Request().Context(), req.UserID, client.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnassignUser deactivates a user's assignment to the client.
//
// @Summary      Unassign a user from a client
// @Tags         clients
// @Param        id      path  string  true  "Client ID"
// @Param        userID  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /clients/{id}/users/{userID} [delete]
func (h *ClientHandler) UnassignUser(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanManageUsers(c.Request().Context(), identity, client.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("client", "manage_users")
	}

	if err := h.clients.UnassignUser(c.Request().Context(), c.Param("userID"), client.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
