package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type DealHandler struct {
	deals ports.DealRepository
	guard *guard.DealGuard
}

func NewDealHandler(deals ports.DealRepository, g *guard.DealGuard) *DealHandler {
	return &DealHandler{deals: deals, guard: g}
}

type dealRequest struct {
	AgencyID   string  `json:"agency_id"`
	ClientID   string  `json:"client_id" validate:"required"`
	PipelineID string  `json:"pipeline_id" validate:"required"`
	Stage      string  `json:"stage" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	Value      float64 `json:"value" validate:"gte=0"`
	Currency   string  `json:"currency" validate:"required,len=3"`
}

type moveStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type closeDealRequest struct {
	Won bool `json:"won"`
}

// Get returns one deal.
//
// @Summary      Get a deal
// @Tags         deals
// @Produce      json
// @Param        id   path      string  true  "Deal ID"
// @Success      200  {object}  domain.Deal
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /deals/{id} [get]
func (h *DealHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "view")
	}

	return c.JSON(http.StatusOK, deal)
}

// Create opens a new deal.
//
// @Summary      Create a deal
// @Tags         deals
// @Accept       json
// @Produce      json
// @Param        body  body      dealRequest  true  "Deal details"
// @Success      201   {object}  domain.Deal
// @Failure      403   {object}  map[string]string
// @Router       /deals [post]
func (h *DealHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("deal", "create")
	}

	var req dealRequest
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

	deal, err := h.deals.Create(c.Request().Context(), &domain.Deal{
		AgencyID:   agencyID,
		ClientID:   req.ClientID,
		PipelineID: req.PipelineID,
		Stage:      req.Stage,
		Title:      req.Title,
		Value:      req.Value,
		Currency:   req.Currency,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, deal)
}

// Update modifies a deal.
//
// @Summary      Update a deal
// @Tags         deals
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Deal ID"
// @Param        body  body      dealRequest  true  "Deal details"
// @Success      200   {object}  domain.Deal
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /deals/{id} [put]
func (h *DealHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanEdit(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "edit")
	}

	var req dealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deal.Title = req.Title
	deal.Value = req.Value
	deal.Currency = req.Currency

	if err := h.deals.Update(c.Request().Context(), deal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deal)
}

// Delete removes a deal.
//
// @Summary      Delete a deal
// @Tags         deals
// @Param        id  path  string  true  "Deal ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /deals/{id} [delete]
func (h *DealHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "delete")
	}

	if err := h.deals.Delete(c.Request().Context(), deal.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MoveStage moves the deal to another pipeline stage.
//
// @Summary      Move a deal to another stage
// @Tags         deals
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Deal ID"
// @Param        body  body      moveStageRequest  true  "Target stage"
// @Success      200   {object}  domain.Deal
// @Failure      403   {object}  map[string]string
// @Router       /deals/{id}/stage [post]
func (h *DealHandler) MoveStage(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanMoveStage(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "move_stage")
	}

	var req moveStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deal.Stage = req.Stage
	if err := h.deals.Update(c.Request().Context(), deal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deal)
}

// Close marks the deal won or lost.
//
// @Summary      Close a deal
// @Tags         deals
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Deal ID"
// @Param        body  body      closeDealRequest  true  "Outcome"
// @Success      200   {object}  domain.Deal
// @Failure      403   {object}  map[string]string
// @Router       /deals/{id}/close [post]
func (h *DealHandler) Close(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanCloseDeal(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "close")
	}

	var req closeDealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	deal.Closed = true
	deal.Won = req.Won
	if err := h.deals.Update(c.Request().Context(), deal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deal)
}

// ConvertToProject turns a won deal into a project reference.
//
// @Summary      Convert a deal to a project
// @Tags         deals
// @Produce      json
// @Param        id   path      string  true  "Deal ID"
// @Success      200  {object}  domain.Deal
// @Failure      403  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /deals/{id}/convert [post]
func (h *DealHandler) ConvertToProject(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	deal, err := h.deals.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanConvertToProject(c.Request().Context(), identity, deal.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("deal", "convert")
	}

	if !deal.Won || deal.ProjectID != "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "deal must be won and not yet converted")
	}

	deal.ProjectID = uuid.NewString()
	if err := h.deals.Update(c.Request().Context(), deal); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deal)
}
