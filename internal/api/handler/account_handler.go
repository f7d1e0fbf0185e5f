package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/bank-teller/internal/core/ports"
)

// AccountHandler exposes the money operations. A false result with no error
// is a business refusal and is reported as {"success": false}.
type AccountHandler struct {
	teller   ports.Teller
	interest ports.InterestService
}

func NewAccountHandler(teller ports.Teller, interest ports.InterestService) *AccountHandler {
	return &AccountHandler{teller: teller, interest: interest}
}

// Deposit credits an account. Deposits need no ownership.
//
// @Summary      Deposit
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Account ID"
// @Param        body  body      amountRequest  true  "Amount and description"
// @Success      200   {object}  operationResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/accounts/{id}/deposit [post]
func (h *AccountHandler) Deposit(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.teller.PaymentIn(c.Request().Context(), user, parseAmount(req.Amount), req.Description, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, operationResponse{Success: ok})
}

// Withdraw debits an account owned by the caller.
//
// @Summary      Withdraw
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Account ID"
// @Param        body  body      amountRequest  true  "Amount and description"
// @Success      200   {object}  operationResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/accounts/{id}/withdraw [post]
func (h *AccountHandler) Withdraw(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.teller.PaymentOut(c.Request().Context(), user, parseAmount(req.Amount), req.Description, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, operationResponse{Success: ok})
}

// Transfer moves money between two accounts.
//
// @Summary      Transfer
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transferRequest  true  "Source, destination and amount"
// @Success      200   {object}  operationResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/transfers [post]
func (h *AccountHandler) Transfer(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.teller.InternalPayment(c.Request().Context(), user, parseAmount(req.Amount), req.Description, req.SourceID, req.DestID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, operationResponse{Success: ok})
}

// ApplyInterest credits interest to one account. Admin only.
//
// @Summary      Apply interest
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  operationResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /v1/accounts/{id}/interest [post]
func (h *AccountHandler) ApplyInterest(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	ok, err := h.interest.ApplyToAccount(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, operationResponse{Success: ok})
}

func accountID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
