package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a balance owned by a user. The balance only changes through
// Income and Outcome; callers persist the account afterwards.
type Account struct {
	ID        int64           `json:"id"`
	Owner     string          `json:"owner"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Income credits amount. Negative amounts are rejected.
func (a *Account) Income(amount decimal.Decimal) bool {
	if amount.IsNegative() {
		return false
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now().UTC()
	return true
}

// Outcome debits amount. It refuses negative amounts and never lets the
// balance go below zero.
func (a *Account) Outcome(amount decimal.Decimal) bool {
	if amount.IsNegative() || a.Balance.LessThan(amount) {
		return false
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now().UTC()
	return true
}

// Clone returns a copy safe to mutate independently.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
