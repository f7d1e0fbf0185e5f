package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/metrics"
)

const (
	DefaultInterestSystemUser = "InterestOperator"
	interestDescription       = "Interest ..."
)

// DefaultInterestRate is the 20% rate applied when none is configured.
var DefaultInterestRate = decimal.RequireFromString("0.20")

// InterestOperator applies interest through the ordinary deposit path, acting
// as a dedicated system user, and keeps its own audit trail.
type InterestOperator struct {
	store      ports.CredentialStore
	depositor  ports.Depositor
	history    ports.History
	rate       decimal.Decimal
	systemUser string
	log        zerolog.Logger
}

func NewInterestOperator(
	store ports.CredentialStore,
	depositor ports.Depositor,
	history ports.History,
	rate decimal.Decimal,
	systemUser string,
	log zerolog.Logger,
) *InterestOperator {
	if systemUser == "" {
		systemUser = DefaultInterestSystemUser
	}
	return &InterestOperator{
		store:      store,
		depositor:  depositor,
		history:    history,
		rate:       rate,
		systemUser: systemUser,
		log:        log,
	}
}

// CountInterestForAccount deposits balance*rate into account as the system
// user and records an Interest audit mirroring the deposit result. Only the
// account id is taken from account: the balance is read again under the
// account lock, so a debit that lands first is never paid interest on. A
// failure to resolve the system user is returned before anything is
// deposited.
func (o *InterestOperator) CountInterestForAccount(ctx context.Context, account *domain.Account) (bool, error) {
	user, err := o.store.FindUserByName(ctx, o.systemUser)
	if err != nil {
		return false, fmt.Errorf("count interest: system user %q: %w", o.systemUser, err)
	}
	if user == nil {
		return false, fmt.Errorf("count interest: system user %q: %w", o.systemUser, domain.ErrUserNotFound)
	}

	interest, ok, depErr := o.depositor.PaymentInComputed(ctx, user, o.interestOn, interestDescription, account.ID)

	auditErr := o.history.LogOperation(ctx, domain.NewInterest(user, interest, o.rate, account.ID), ok && depErr == nil)

	result := metrics.OutcomeSuccess
	switch {
	case depErr != nil || auditErr != nil:
		result = "error"
	case !ok:
		result = metrics.OutcomeFailure
	}
	metrics.InterestAppliedTotal.WithLabelValues(result).Inc()

	if depErr != nil || auditErr != nil {
		return false, errors.Join(depErr, auditErr)
	}

	o.log.Info().
		Int64("account_id", account.ID).
		Str("interest", interest.String()).
		Bool("success", ok).
		Msg("interest applied")
	return ok, nil
}

func (o *InterestOperator) interestOn(balance decimal.Decimal) decimal.Decimal {
	return balance.Mul(o.rate).Round(2)
}

// ApplyToAccount loads accountID and applies interest to it. A missing
// account yields false.
func (o *InterestOperator) ApplyToAccount(ctx context.Context, accountID int64) (bool, error) {
	account, err := o.store.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("apply interest: %w", err)
	}
	return o.CountInterestForAccount(ctx, account)
}
