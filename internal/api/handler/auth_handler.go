package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

type AuthHandler struct {
	teller ports.Teller
}

func NewAuthHandler(teller ports.Teller) *AuthHandler {
	return &AuthHandler{teller: teller}
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	session, ok := h.teller.LogIn(c.Request().Context(), req.Username, []byte(req.Password))
	if !ok {
		return domain.ErrUnknownUserOrBadPassword
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  operationResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}
	ok := h.teller.LogOut(c.Request().Context(), ctxToken(c))
	return c.JSON(http.StatusOK, operationResponse{Success: ok})
}

// Me returns the user behind the session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
