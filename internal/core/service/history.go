package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/metrics"
)

// BankHistory translates operation attempts into audit records. It holds no
// state beyond the store it writes to.
type BankHistory struct {
	store ports.CredentialStore
	log   zerolog.Logger
}

func NewBankHistory(store ports.CredentialStore, log zerolog.Logger) *BankHistory {
	return &BankHistory{store: store, log: log}
}

// LogOperation records an attempt the policy permitted. success may still be
// false for a business failure such as a rejected debit or a failed write.
func (h *BankHistory) LogOperation(ctx context.Context, op domain.Operation, success bool) error {
	return h.write(ctx, domain.NewAuditRecord(op, success, false))
}

// LogUnauthorizedOperation records an attempt the policy denied.
func (h *BankHistory) LogUnauthorizedOperation(ctx context.Context, op domain.Operation) error {
	return h.write(ctx, domain.NewAuditRecord(op, false, true))
}

func (h *BankHistory) LogLoginSuccess(ctx context.Context, user *domain.User) error {
	return h.LogOperation(ctx, domain.NewLogIn(user, ""), true)
}

// LogLoginFailure records a failed login. user is nil when the name was unknown.
func (h *BankHistory) LogLoginFailure(ctx context.Context, user *domain.User, info string) error {
	return h.LogOperation(ctx, domain.NewLogIn(user, info), false)
}

func (h *BankHistory) LogLogOut(ctx context.Context, user *domain.User) error {
	return h.LogOperation(ctx, domain.NewLogOut(user), true)
}

// LogPaymentIn is not supported: deposits are audited through a typed
// PaymentIn operation via LogOperation.
func (h *BankHistory) LogPaymentIn(_ *domain.Account, _ decimal.Decimal, _ bool) error {
	return fmt.Errorf("log payment in: %w", domain.ErrUntypedAudit)
}

// LogPaymentOut is not supported for the same reason as LogPaymentIn.
func (h *BankHistory) LogPaymentOut(_ *domain.Account, _ decimal.Decimal, _ bool) error {
	return fmt.Errorf("log payment out: %w", domain.ErrUntypedAudit)
}

func (h *BankHistory) write(ctx context.Context, rec domain.AuditRecord) error {
	if err := h.store.LogOperation(ctx, rec); err != nil {
		metrics.AuditErrorsTotal.WithLabelValues(string(rec.Type)).Inc()
		h.log.Error().Err(err).
			Str("type", string(rec.Type)).
			Str("user", rec.UserName).
			Msg("failed to write audit record")
		return fmt.Errorf("audit %s: %w", rec.Type, err)
	}

	outcome := metrics.OutcomeFailure
	switch {
	case rec.Unauthorized:
		outcome = metrics.OutcomeUnauthorized
	case rec.Success:
		outcome = metrics.OutcomeSuccess
	}
	metrics.AuditRecordsTotal.WithLabelValues(string(rec.Type), outcome).Inc()

	h.log.Debug().
		Str("audit_id", rec.ID).
		Str("type", string(rec.Type)).
		Str("user", rec.UserName).
		Str("outcome", outcome).
		Msg("audit record written")
	return nil
}
