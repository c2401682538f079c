package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/api/metrics"
	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

type CsvImportHandler struct {
	imports ports.CsvImportRepository
	guard   *guard.CsvImportGuard
}

func NewCsvImportHandler(imports ports.CsvImportRepository, g *guard.CsvImportGuard) *CsvImportHandler {
	return &CsvImportHandler{imports: imports, guard: g}
}

// Upload accepts a multipart CSV file, validates it against the import rules
// and records the import. Rejections return every violation at once.
//
// @Summary      Upload a CSV import
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      201   {object}  domain.CsvImport
// @Failure      400   {object}  guard.FileValidation
// @Failure      403   {object}  map[string]string
// @Router       /imports [post]
func (h *CsvImportHandler) Upload(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	if !h.guard.CanCreate(identity) {
		return deny("csv_import", "create")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is not readable")
	}
	defer src.Close()

	validation := h.guard.ValidateFile(fh.Filename, fh.Size, src)
	if !validation.Valid {
		metrics.CsvValidationFailuresTotal.Inc()
		return c.JSON(http.StatusBadRequest, validation)
	}

	imp, err := h.imports.Create(c.Request().Context(), &domain.CsvImport{
		AgencyID:   identity.AgencyID,
		UploadedBy: identity.ID,
		Filename:   fh.Filename,
		StoredName: h.guard.SanitizeFilename(fh.Filename),
		SizeBytes:  fh.Size,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, imp)
}

// Get returns one import record.
//
// @Summary      Get a CSV import
// @Tags         imports
// @Produce      json
// @Param        id   path      string  true  "Import ID"
// @Success      200  {object}  domain.CsvImport
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /imports/{id} [get]
func (h *CsvImportHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	imp, err := h.imports.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanView(c.Request().Context(), identity, imp.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("csv_import", "view")
	}

	return c.JSON(http.StatusOK, imp)
}

// Delete removes an import record.
//
// @Summary      Delete a CSV import
// @Tags         imports
// @Param        id  path  string  true  "Import ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /imports/{id} [delete]
func (h *CsvImportHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	imp, err := h.imports.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	ok, err := h.guard.CanDelete(c.Request().Context(), identity, imp.Resource())
	if err != nil {
		return err
	}
	if !ok {
		return deny("csv_import", "delete")
	}

	if err := h.imports.Delete(c.Request().Context(), imp.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
