package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// errorStatus maps a domain sentinel to the status and public message it is
// rendered with. Order matters: the first match wins.
type errorStatus struct {
	err  error
	code int
	msg  string // empty means err.Error() is safe to show
}

var errorStatuses = []errorStatus{
	{domain.ErrOperationNotAllowed, http.StatusForbidden, "operation not allowed"},
	{domain.ErrUnknownUserOrBadPassword, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrSessionNotFound, http.StatusUnauthorized, "session not found"},
	{domain.ErrSameAccount, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity, ""},
	{domain.ErrAccountNotFound, http.StatusNotFound, "account not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
}

// NewHTTPErrorHandler renders every handler error as {"error": "..."}.
// Known domain errors get their own status. Anything else, and any transfer
// that could not be rolled back, is logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", requestID(c)).
				Bool("inconsistent", errors.Is(err, domain.ErrTransferInconsistent)).
				Msg("unhandled error")
		}

		_ = c.JSON(code, errorResponse{Error: msg, RequestID: requestID(c)})
	}
}

func resolveError(err error) (int, string) {
	// Inconsistency outranks every sentinel it is joined with.
	if errors.Is(err, domain.ErrTransferInconsistent) {
		return http.StatusInternalServerError, "internal server error"
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			if s.msg == "" {
				return s.code, s.err.Error()
			}
			return s.code, s.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
