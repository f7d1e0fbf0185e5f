package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Amounts are accepted as JSON numbers or numeric strings.
type amountRequest struct {
	Amount      json.Number `json:"amount"      validate:"required,money"`
	Description string      `json:"description" validate:"max=256"`
}

type transferRequest struct {
	SourceID    int64       `json:"source_id"   validate:"required,gt=0"`
	DestID      int64       `json:"dest_id"     validate:"required,gt=0,nefield=SourceID"`
	Amount      json.Number `json:"amount"      validate:"required,money"`
	Description string      `json:"description" validate:"max=256"`
}

type operationResponse struct {
	Success bool `json:"success"`
}

func parseAmount(n json.Number) decimal.Decimal {
	// Validation has already accepted n.
	return decimal.RequireFromString(n.String())
}
