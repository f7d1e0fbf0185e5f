package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/metrics"
)

// AccountManager coordinates money movement. Restricted operations follow
// lock → look up → authorize → mutate → persist → release → audit.
type AccountManager struct {
	store    ports.CredentialStore
	auth     ports.Authenticator
	history  ports.History
	sessions ports.Sessions
	locker   ports.AccountLocker
	log      zerolog.Logger
}

func NewAccountManager(
	store ports.CredentialStore,
	auth ports.Authenticator,
	history ports.History,
	sessions ports.Sessions,
	locker ports.AccountLocker,
	log zerolog.Logger,
) *AccountManager {
	return &AccountManager{
		store:    store,
		auth:     auth,
		history:  history,
		sessions: sessions,
		locker:   locker,
		log:      log,
	}
}

// LogIn authenticates and opens a session. Any failure yields (nil, false).
func (m *AccountManager) LogIn(ctx context.Context, username string, password []byte) (*domain.Session, bool) {
	user, err := m.auth.LogIn(ctx, username, password)
	if err != nil || user == nil {
		if err != nil && !errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
			m.log.Error().Err(err).Str("user", username).Msg("login failed")
		}
		return nil, false
	}

	session, err := m.sessions.Issue(ctx, user)
	if err != nil {
		m.log.Error().Err(err).Str("user", username).Msg("failed to open session")
		return nil, false
	}
	return session, true
}

// LogOut ends the session behind token once the logout has been recorded.
func (m *AccountManager) LogOut(ctx context.Context, token string) bool {
	user, ok := m.LoggedUser(ctx, token)
	if !ok {
		return false
	}

	out, err := m.auth.LogOut(ctx, user)
	if err != nil {
		m.log.Error().Err(err).Str("user", user.Name).Msg("logout failed")
		return false
	}
	if !out {
		return false
	}

	if err := m.sessions.Revoke(ctx, token); err != nil {
		m.log.Error().Err(err).Str("user", user.Name).Msg("failed to revoke session")
		return false
	}
	return true
}

// LoggedUser returns the user of a live session.
func (m *AccountManager) LoggedUser(ctx context.Context, token string) (*domain.User, bool) {
	user, err := m.sessions.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.log.Warn().Err(err).Msg("session lookup failed")
		}
		return nil, false
	}
	return user, true
}

// PaymentIn credits accountID. Deposits need no authorization. A missing
// account yields false without an audit record.
func (m *AccountManager) PaymentIn(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, accountID int64) (bool, error) {
	_, ok, err := m.deposit(ctx, user, func(decimal.Decimal) decimal.Decimal { return amount }, description, accountID)
	return ok, err
}

// PaymentInComputed is PaymentIn with the amount derived from the balance as
// read under the account lock, so no other operation can change the balance
// between the read and the credit. It returns the amount that was credited.
func (m *AccountManager) PaymentInComputed(
	ctx context.Context,
	user *domain.User,
	amountFor func(balance decimal.Decimal) decimal.Decimal,
	description string,
	accountID int64,
) (decimal.Decimal, bool, error) {
	return m.deposit(ctx, user, amountFor, description, accountID)
}

func (m *AccountManager) deposit(
	ctx context.Context,
	user *domain.User,
	amountFor func(balance decimal.Decimal) decimal.Decimal,
	description string,
	accountID int64,
) (decimal.Decimal, bool, error) {
	defer observe(domain.OpPaymentIn, time.Now())

	release, err := m.locker.Lock(ctx, accountID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("payment in: lock: %w", err)
	}

	account, err := m.findAccount(ctx, accountID)
	if err != nil || account == nil {
		release()
		return decimal.Zero, false, err
	}

	amount := amountFor(account.Balance)
	op := domain.NewPaymentIn(user, amount, description, accountID)
	success, err := m.credit(ctx, account, amount)
	release()

	ok, err := m.finish(ctx, op, success, err)
	return amount, ok, err
}

// PaymentOut debits accountID on behalf of user. A denied attempt is audited
// as unauthorized and returns domain.ErrOperationNotAllowed without touching
// the balance.
func (m *AccountManager) PaymentOut(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, accountID int64) (bool, error) {
	defer observe(domain.OpWithdraw, time.Now())

	release, err := m.locker.Lock(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("payment out: lock: %w", err)
	}

	account, err := m.findAccount(ctx, accountID)
	if err != nil || account == nil {
		release()
		return false, err
	}

	op := domain.NewWithdraw(user, amount, description, accountID).OwnedBy(account.Owner)
	if !m.auth.CanInvokeOperation(op, user) {
		release()
		return false, m.deny(ctx, op)
	}

	success, err := m.debit(ctx, account, amount)
	release()

	return m.finish(ctx, op, success, err)
}

// InternalPayment moves amount between two accounts. Authorization is decided
// once, before either account is touched. If the second leg cannot be
// persisted the first leg is rolled back before the fault is returned.
func (m *AccountManager) InternalPayment(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, sourceID, destID int64) (bool, error) {
	defer observe(domain.OpTransfer, time.Now())

	if sourceID == destID {
		return false, fmt.Errorf("internal payment: %w", domain.ErrSameAccount)
	}

	release, err := m.locker.Lock(ctx, sourceID, destID)
	if err != nil {
		return false, fmt.Errorf("internal payment: lock: %w", err)
	}

	source, err := m.findAccount(ctx, sourceID)
	if err != nil || source == nil {
		release()
		return false, err
	}
	dest, err := m.findAccount(ctx, destID)
	if err != nil || dest == nil {
		release()
		return false, err
	}

	op := domain.NewTransfer(user, amount, description, sourceID, destID)
	if !m.auth.CanInvokeOperation(op, user) {
		release()
		return false, m.deny(ctx, op)
	}

	success, err := m.transfer(ctx, source, dest, amount)
	release()

	return m.finish(ctx, op, success, err)
}

func (m *AccountManager) transfer(ctx context.Context, source, dest *domain.Account, amount decimal.Decimal) (bool, error) {
	original := source.Clone()

	if !source.Outcome(amount) {
		return false, nil
	}
	if !dest.Income(amount) {
		return false, nil
	}

	if ok, err := m.persist(ctx, source); err != nil || !ok {
		return false, err
	}

	ok, err := m.persist(ctx, dest)
	if err == nil && ok {
		return true, nil
	}

	// The source leg is already committed; put it back before reporting.
	restored, rbErr := m.store.UpdateAccountState(ctx, original)
	if rbErr == nil && !restored {
		rbErr = wrapPersist(original.ID, nil)
	}
	if rbErr != nil {
		m.log.Error().Err(rbErr).
			Int64("source", source.ID).
			Int64("dest", dest.ID).
			Msg("failed to roll back transfer source")
		legErr := err
		if legErr == nil {
			legErr = wrapPersist(dest.ID, nil)
		}
		return false, errors.Join(domain.ErrTransferInconsistent, legErr, rbErr)
	}
	return false, err
}

func (m *AccountManager) credit(ctx context.Context, account *domain.Account, amount decimal.Decimal) (bool, error) {
	if !account.Income(amount) {
		return false, nil
	}
	return m.persist(ctx, account)
}

func (m *AccountManager) debit(ctx context.Context, account *domain.Account, amount decimal.Decimal) (bool, error) {
	if !account.Outcome(amount) {
		return false, nil
	}
	return m.persist(ctx, account)
}

// persist reports whether the write matched. An unmatched write is a
// business failure, not a fault.
func (m *AccountManager) persist(ctx context.Context, account *domain.Account) (bool, error) {
	ok, err := m.store.UpdateAccountState(ctx, account)
	if err != nil {
		return false, wrapPersist(account.ID, err)
	}
	return ok, nil
}

// findAccount folds "not found" into a nil account.
func (m *AccountManager) findAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := m.store.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return account, nil
}

// finish records the outcome once it is known and returns it.
func (m *AccountManager) finish(ctx context.Context, op domain.Operation, success bool, opErr error) (bool, error) {
	auditErr := m.history.LogOperation(ctx, op, success)

	ev := m.log.Info()
	if opErr != nil {
		ev = m.log.Error().Err(opErr)
	}
	ev.Str("type", string(op.Type())).
		Str("user", actorName(op)).
		Bool("success", success).
		Msg("operation completed")

	if opErr != nil || auditErr != nil {
		return false, errors.Join(opErr, auditErr)
	}
	return success, nil
}

func (m *AccountManager) deny(ctx context.Context, op domain.Operation) error {
	m.log.Warn().
		Str("type", string(op.Type())).
		Str("user", actorName(op)).
		Msg("operation not allowed")

	if err := m.history.LogUnauthorizedOperation(ctx, op); err != nil {
		return errors.Join(domain.ErrOperationNotAllowed, err)
	}
	return domain.ErrOperationNotAllowed
}

func wrapPersist(id int64, err error) error {
	if err == nil {
		return fmt.Errorf("update account %d: no matching account", id)
	}
	return fmt.Errorf("update account %d: %w", id, err)
}

func actorName(op domain.Operation) string {
	if u := op.Actor(); u != nil {
		return u.Name
	}
	return ""
}

func observe(t domain.OperationType, start time.Time) {
	metrics.OperationDuration.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())
}
