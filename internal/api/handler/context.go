package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/api/metrics"
	"github.com/agencyhub/crm-api/internal/api/middleware"
	"github.com/agencyhub/crm-api/internal/core/domain"
)

// identityFrom extracts the staff identity injected by the Auth middleware
// and fast-fails before any service call:
//   - the identity must be present (presence proves the middleware ran)
//   - a role is required; role-less accounts cannot be authorized
func identityFrom(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if identity.Role == "" {
		return domain.Identity{}, domain.ErrMissingRole
	}
	return identity, nil
}

// deny records a guard denial and returns the canonical forbidden error. The
// error handler turns it into a 403 with a generic message so the response
// never reveals which rule failed.
func deny(resource, action string) error {
	metrics.GuardDenialsTotal.WithLabelValues(resource, action).Inc()
	return domain.ErrForbidden
}
