package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// ctxUser extracts the user injected by the Auth middleware. Its absence
// means the route was mounted without authentication.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get("user").(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}

func ctxToken(c echo.Context) string {
	token, _ := c.Get("token").(string)
	return token
}
