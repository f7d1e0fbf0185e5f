package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// RBAC admits callers whose session role is one of allowedRoles. It must run
// after Auth, which sets the role. Denials are returned as
// domain.ErrOperationNotAllowed so they render like service-level denials.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return fmt.Errorf("role %q on %s: %w", role, c.Path(), domain.ErrOperationNotAllowed)
			}
			return next(c)
		}
	}
}
