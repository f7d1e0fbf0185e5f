package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// Authenticator verifies credentials and decides per-operation authorization.
type Authenticator interface {
	LogIn(ctx context.Context, username string, password []byte) (*domain.User, error)
	LogOut(ctx context.Context, user *domain.User) (bool, error)
	CanInvokeOperation(op domain.Operation, user *domain.User) bool
}

// History records every attempted operation.
type History interface {
	LogOperation(ctx context.Context, op domain.Operation, success bool) error
	LogUnauthorizedOperation(ctx context.Context, op domain.Operation) error
	LogLoginSuccess(ctx context.Context, user *domain.User) error
	LogLoginFailure(ctx context.Context, user *domain.User, info string) error
	LogLogOut(ctx context.Context, user *domain.User) error
}

// Sessions issues and resolves session tokens.
type Sessions interface {
	Issue(ctx context.Context, user *domain.User) (*domain.Session, error)
	Resolve(ctx context.Context, token string) (*domain.User, error)
	Revoke(ctx context.Context, token string) error
}

// Depositor is the deposit entry point reused by interest accrual.
// PaymentInComputed evaluates amountFor on the balance read under the
// account lock and returns the amount it credited.
type Depositor interface {
	PaymentIn(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, accountID int64) (bool, error)
	PaymentInComputed(
		ctx context.Context,
		user *domain.User,
		amountFor func(balance decimal.Decimal) decimal.Decimal,
		description string,
		accountID int64,
	) (decimal.Decimal, bool, error)
}

// Teller is the full money-movement surface used by transport adapters.
type Teller interface {
	Depositor
	LogIn(ctx context.Context, username string, password []byte) (*domain.Session, bool)
	LogOut(ctx context.Context, token string) bool
	LoggedUser(ctx context.Context, token string) (*domain.User, bool)
	PaymentOut(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, accountID int64) (bool, error)
	InternalPayment(ctx context.Context, user *domain.User, amount decimal.Decimal, description string, sourceID, destID int64) (bool, error)
}

// InterestService applies interest to one account.
type InterestService interface {
	ApplyToAccount(ctx context.Context, accountID int64) (bool, error)
}
