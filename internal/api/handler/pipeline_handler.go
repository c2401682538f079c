package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type PipelineHandler struct {
	pipelines ports.PipelineRepository
	guard     *guard.PipelineGuard
}

func NewPipelineHandler(pipelines ports.PipelineRepository, g *guard.PipelineGuard) *PipelineHandler {
	return &PipelineHandler{pipelines: pipelines, guard: g}
}

type pipelineRequest struct {
	AgencyID string   `json:"agency_id"`
	Name     string   `json:"name" validate:"required"`
	Stages   []string `json:"stages" validate:"required,min=1"`
}

// Get returns one pipeline.
//
// @Summary      Get a pipeline
// @Tags         pipelines
// @Produce      json
// @Param        id   path      string  true  "Pipeline ID"
// @Success      200  {object}  domain.Pipeline
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /pipelines/{id} [get]
func (h *PipelineHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	pipeline, err := h.pipelines.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, pipeline.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("pipeline", "view")
	}

	return c.JSON(http.StatusOK, pipeline)
}

// Create adds a pipeline.
//
// @Summary      Create a pipeline
// @Tags         pipelines
// @Accept       json
// @Produce      json
// @Param        body  body      pipelineRequest  true  "Pipeline details"
// @Success      201   {object}  domain.Pipeline
// @Failure      403   {object}  map[string]string
// @Router       /pipelines [post]
func (h *PipelineHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("pipeline", "create")
	}

	var req pipelineRequest
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

	pipeline, err := h.pipelines.Create(c.Request().Context(), &domain.Pipeline{
		AgencyID: agencyID,
		Name:     req.Name,
		Stages:   req.Stages,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, pipeline)
}

// Update modifies a pipeline.
//
// @Summary      Update a pipeline
// @Tags         pipelines
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Pipeline ID"
// @Param        body  body      pipelineRequest  true  "Pipeline details"
// @Success      200   {object}  domain.Pipeline
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /pipelines/{id} [put]
func (h *PipelineHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	pipeline, err := h.pipelines.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanEdit(c.Request().Context(), identity, pipeline.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("pipeline", "edit")
	}

	var req pipelineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pipeline.Name = req.Name
	pipeline.Stages = req.Stages

	if err := h.pipelines.Update(c.Request().Context(), pipeline); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pipeline)
}

// Delete removes a pipeline.
//
// @Summary      Delete a pipeline
// @Tags         pipelines
// @Param        id  path  string  true  "Pipeline ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /pipelines/{id} [delete]
func (h *PipelineHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	pipeline, err := h.pipelines.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, pipeline.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("pipeline", "delete")
	}

	if err := h.pipelines.Delete(c.Request().Context(), pipeline.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
