package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

// Auth validates the staff JWT and injects the identity claims into context.
// The downstream RBAC filter and guards consume these via IdentityFrom.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("user_id", claims["user_id"])
			c.Set("email", claims["email"])
			c.Set("role", claims["role"])
			c.Set("agency_id", claims["agency_id"])

			return next(c)
		}
	}
}

// IdentityFrom rebuilds the identity injected by Auth. The second result is
// false when the authentication middleware never ran on this request.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" && role == "" {
		return domain.Identity{}, false
	}

	email, _ := c.Get("email").(string)
	agencyID, _ := c.Get("agency_id").(string)
	return domain.Identity{ID: userID, Email: email, Role: role, AgencyID: agencyID}, true
}
