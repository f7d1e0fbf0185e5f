package ports

import (
	"context"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// CredentialStore is the persistence boundary for users, passwords, accounts
// and raw audit records. Lookups report absence with the domain not-found
// sentinels; any other error is a store fault.
type CredentialStore interface {
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	// UpdateAccountState writes the account's balance. It reports false when
	// no stored account matched.
	UpdateAccountState(ctx context.Context, account *domain.Account) (bool, error)
	FindUserByName(ctx context.Context, name string) (*domain.User, error)
	FindPasswordForUser(ctx context.Context, user *domain.User) (*domain.Password, error)
	// LogOperation appends one audit record. Records are never updated.
	LogOperation(ctx context.Context, record domain.AuditRecord) error
	// ListAccountIDs returns every account id, used by the interest scheduler.
	ListAccountIDs(ctx context.Context) ([]int64, error)
}
