package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/metrics"
)

// AuthenticationManager verifies credentials, decides per-operation
// authorization and owns the password hashing scheme.
type AuthenticationManager struct {
	store   ports.CredentialStore
	history ports.History
	hasher  *PasswordHasher
	log     zerolog.Logger
}

func NewAuthenticationManager(
	store ports.CredentialStore,
	history ports.History,
	hasher *PasswordHasher,
	log zerolog.Logger,
) *AuthenticationManager {
	if hasher == nil {
		hasher = NewPasswordHasher(SchemeSHA256, "")
	}
	return &AuthenticationManager{store: store, history: history, hasher: hasher, log: log}
}

// LogIn verifies username and password. Every failure is audited before the
// error is returned. password is zeroed before LogIn returns.
func (m *AuthenticationManager) LogIn(ctx context.Context, username string, password []byte) (*domain.User, error) {
	defer scrub(password)

	user, err := m.store.FindUserByName(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("log in: find user: %w", err)
	}
	if user == nil {
		return nil, m.reject(ctx, nil, "bad username "+username, domain.ErrUnknownUserOrBadPassword)
	}

	stored, err := m.store.FindPasswordForUser(ctx, user)
	if err != nil && !errors.Is(err, domain.ErrPasswordNotFound) {
		return nil, fmt.Errorf("log in: find password: %w", err)
	}

	ok, err := m.hasher.Matches(stored, password)
	if err != nil {
		return nil, m.reject(ctx, user, "password hashing unavailable", err)
	}
	if !ok {
		return nil, m.reject(ctx, user, "bad password", domain.ErrUnknownUserOrBadPassword)
	}

	if err := m.history.LogLoginSuccess(ctx, user); err != nil {
		return nil, fmt.Errorf("log in: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	m.log.Info().Str("user", user.Name).Msg("user logged in")
	return user, nil
}

// LogOut always succeeds at the policy level; it only fails when the audit
// record cannot be written. Clearing the session is the caller's job.
func (m *AuthenticationManager) LogOut(ctx context.Context, user *domain.User) (bool, error) {
	if err := m.history.LogLogOut(ctx, user); err != nil {
		return false, fmt.Errorf("log out: %w", err)
	}
	return true, nil
}

// CanInvokeOperation applies the authorization policy table.
func (m *AuthenticationManager) CanInvokeOperation(op domain.Operation, user *domain.User) bool {
	return Authorize(op, user)
}

// HashPassword digests secret with the configured scheme and zeroes it.
func (m *AuthenticationManager) HashPassword(secret []byte) (string, error) {
	return m.hasher.Hash(secret)
}

// Authorize is the closed policy table: admins may do anything, anyone may
// deposit, users may withdraw only as themselves and only from their own
// account when the owner is known. Every other operation type
// is denied until it is listed here.
//
// The owner check is stricter than an actor-only rule, under which a caller
// could withdraw from any account since the caller is always the actor.
func Authorize(op domain.Operation, user *domain.User) bool {
	if user == nil || op == nil {
		return false
	}
	if user.Role.IsAdmin() {
		return true
	}

	switch o := op.(type) {
	case domain.PaymentIn:
		return true
	case domain.Withdraw:
		if o.AccountOwner != "" && o.AccountOwner != user.Name {
			return false
		}
		return o.Actor().SameIdentity(user)
	default:
		return false
	}
}

func (m *AuthenticationManager) reject(ctx context.Context, user *domain.User, info string, cause error) error {
	metrics.LoginsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	m.log.Warn().Str("info", info).Msg("login rejected")

	if err := m.history.LogLoginFailure(ctx, user, info); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
