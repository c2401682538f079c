package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/api/metrics"
	"github.com/agencyhub/crm-api/internal/audit"
	"github.com/agencyhub/crm-api/internal/core/domain"
)

// financialRoutePrefixes are route groups end_client may never enter.
var financialRoutePrefixes = []string{
	"/invoices",
	"/quotes",
	"/billing",
	"/payments",
	"/reports/financial",
}

// adminRoutePrefixes are route groups reserved for the owner.
var adminRoutePrefixes = []string{
	"/admin",
	"/settings",
	"/users",
	"/agencies",
}

// RBAC enforces the route-prefix restrictions, one pass per request, before
// any resource guard runs. Denials on restricted prefixes are security
// violations and go to the audit trail; configuration problems (no role, no
// agency) deny with an actionable message instead of a generic forbidden.
func RBAC(secLog *audit.SecurityLog, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				// Unreachable when the auth middleware ran first; treat as a
				// lost session rather than a denial.
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			if identity.Role == "" {
				log.Warn().Str("user_id", identity.ID).Msg("identity has no role")
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrMissingRole.Error())
			}

			path := c.Request().URL.Path

			if identity.Role == domain.RoleEndClient && hasAnyPrefix(path, financialRoutePrefixes) {
				recordViolation(c, secLog, log, identity, path, "financial route access denied for role "+identity.Role)
				metrics.SecurityViolationsTotal.WithLabelValues("financial").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			if identity.Role != domain.RoleOwner && hasAnyPrefix(path, adminRoutePrefixes) {
				recordViolation(c, secLog, log, identity, path, "admin route access denied for role "+identity.Role)
				metrics.SecurityViolationsTotal.WithLabelValues("admin").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			if (identity.Role == domain.RoleAgency || identity.Role == domain.RoleDirectClient) && identity.AgencyID == "" {
				log.Warn().Str("user_id", identity.ID).Str("role", identity.Role).Msg("identity has no agency")
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrMissingAgency.Error())
			}

			return next(c)
		}
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func recordViolation(c echo.Context, secLog *audit.SecurityLog, log zerolog.Logger, identity domain.Identity, path, reason string) {
	if err := secLog.Record(audit.Violation{
		UserID:            identity.ID,
		UserEmail:         identity.Email,
		UserRole:          identity.Role,
		AttemptedResource: path,
		Reason:            reason,
		IPAddress:         c.RealIP(),
		UserAgent:         c.Request().UserAgent(),
	}); err != nil {
		log.Error().Err(err).Msg("failed to write security violation")
	}
}
