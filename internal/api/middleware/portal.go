package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// BearerToken extracts the bearer credential from the Authorization header,
// or returns empty when the header is absent or malformed.
func BearerToken(c echo.Context) string {
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Portal authenticates client-portal requests via a Bearer session token and
// injects the resulting PortalAuth into context. Portal principals are a
// separate identity domain from staff users; the staff Auth/RBAC chain never
// runs on portal routes.
func Portal(portal ports.PortalService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing portal session token")
			}

			auth, err := portal.AuthenticateWithSession(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrPortalUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				return err
			}

			c.Set("portal_auth", auth)
			return next(c)
		}
	}
}

// PortalAuthFrom extracts the PortalAuth injected by Portal.
func PortalAuthFrom(c echo.Context) (*domain.PortalAuth, bool) {
	auth, ok := c.Get("portal_auth").(*domain.PortalAuth)
	return auth, ok && auth != nil
}
