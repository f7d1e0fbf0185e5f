package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

// Store is an in-memory CredentialStore used for local runs and tests.
// Values are copied on the way in and out so callers never share state with it.
type Store struct {
	mu sync.RWMutex

	accounts  map[int64]*domain.Account
	users     map[string]*domain.User
	passwords map[string]string
	audit     []domain.AuditRecord
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts:  make(map[int64]*domain.Account),
		users:     make(map[string]*domain.User),
		passwords: make(map[string]string),
	}
}

var _ ports.CredentialStore = (*Store)(nil)

// Seeding

func (s *Store) PutUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.Name] = &u
}

// EnsureUser stores user unless one with the same name exists.
func (s *Store) EnsureUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Name]; ok {
		return nil
	}
	u := *user
	s.users[u.Name] = &u
	return nil
}

// PutPassword stores an already encoded digest for userName.
func (s *Store) PutPassword(userName, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[userName] = hash
}

func (s *Store) PutAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account.Clone()
}

// AuditRecords returns a copy of everything logged so far, oldest first.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditRecord, len(s.audit))
	copy(out, s.audit)
	return out
}

// CredentialStore

func (s *Store) FindAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *Store) UpdateAccountState(_ context.Context, account *domain.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[account.ID]
	if !ok {
		return false, nil
	}
	current.Balance = account.Balance
	current.UpdatedAt = account.UpdatedAt
	return true, nil
}

func (s *Store) FindUserByName(_ context.Context, name string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[name]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *Store) FindPasswordForUser(_ context.Context, user *domain.User) (*domain.Password, error) {
	if user == nil {
		return nil, domain.ErrPasswordNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.passwords[user.Name]
	if !ok {
		return nil, domain.ErrPasswordNotFound
	}
	return &domain.Password{UserName: user.Name, Hash: hash}, nil
}

func (s *Store) LogOperation(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, record)
	return nil
}

func (s *Store) ListAccountIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
