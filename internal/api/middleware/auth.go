package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// SessionResolver resolves a bearer token to the user of a live session.
type SessionResolver interface {
	LoggedUser(ctx context.Context, token string) (*domain.User, bool)
}

// Auth resolves the bearer session token and injects the user, its role and
// the token into context.
func Auth(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, ok := sessions.LoggedUser(c.Request().Context(), parts[1])
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set("user", user)
			c.Set("role", user.Role.Name)
			c.Set("token", parts[1])

			return next(c)
		}
	}
}
