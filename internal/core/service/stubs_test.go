package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Credential store stub
// ---------------------------------------------------------------------------

type stubStore struct {
	mu        sync.Mutex
	accounts  map[int64]*domain.Account
	users     map[string]*domain.User
	passwords map[string]*domain.Password
	records   []domain.AuditRecord

	findAccountCalls int
	updateCalls      int
	findUserErr      error
	findAccountErr   error
	logErr           error
	// updateErr returns an error for a given account id on the nth update of
	// that account (1-based); zero means never.
	updateErrFor  map[int64]int
	updateSeen    map[int64]int
	updateUnmatch map[int64]bool
	// unmatchOn reports no match for a given account id on the nth update
	// of that account (1-based).
	unmatchOn map[int64]int
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts:      make(map[int64]*domain.Account),
		users:         make(map[string]*domain.User),
		passwords:     make(map[string]*domain.Password),
		updateErrFor:  make(map[int64]int),
		updateSeen:    make(map[int64]int),
		updateUnmatch: make(map[int64]bool),
		unmatchOn:     make(map[int64]int),
	}
}

func (s *stubStore) putAccount(id int64, balance string) {
	s.accounts[id] = &domain.Account{ID: id, Balance: decimal.RequireFromString(balance)}
}

func (s *stubStore) putUser(name, role string) *domain.User {
	u := &domain.User{ID: "u-" + name, Name: name, Role: domain.Role{Name: role}}
	s.users[name] = u
	return u
}

func (s *stubStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

func (s *stubStore) FindAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findAccountCalls++
	if s.findAccountErr != nil {
		return nil, s.findAccountErr
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *stubStore) UpdateAccountState(_ context.Context, a *domain.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	s.updateSeen[a.ID]++
	if n := s.updateErrFor[a.ID]; n != 0 && s.updateSeen[a.ID] == n {
		return false, errStore
	}
	if n := s.unmatchOn[a.ID]; n != 0 && s.updateSeen[a.ID] == n {
		return false, nil
	}
	if s.updateUnmatch[a.ID] {
		return false, nil
	}
	if _, ok := s.accounts[a.ID]; !ok {
		return false, nil
	}
	s.accounts[a.ID] = a.Clone()
	return true, nil
}

func (s *stubStore) FindUserByName(_ context.Context, name string) (*domain.User, error) {
	if s.findUserErr != nil {
		return nil, s.findUserErr
	}
	u, ok := s.users[name]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubStore) FindPasswordForUser(_ context.Context, u *domain.User) (*domain.Password, error) {
	p, ok := s.passwords[u.Name]
	if !ok {
		return nil, domain.ErrPasswordNotFound
	}
	return p, nil
}

func (s *stubStore) LogOperation(_ context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logErr != nil {
		return s.logErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *stubStore) ListAccountIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---------------------------------------------------------------------------
// History recorder
// ---------------------------------------------------------------------------

type loggedOp struct {
	op           domain.Operation
	success      bool
	unauthorized bool
}

type stubHistory struct {
	mu      sync.Mutex
	ops     []loggedOp
	failure []string
	err     error
}

func (h *stubHistory) add(op domain.Operation, success, unauthorized bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.ops = append(h.ops, loggedOp{op: op, success: success, unauthorized: unauthorized})
	return nil
}

func (h *stubHistory) LogOperation(_ context.Context, op domain.Operation, success bool) error {
	return h.add(op, success, false)
}

func (h *stubHistory) LogUnauthorizedOperation(_ context.Context, op domain.Operation) error {
	return h.add(op, false, true)
}

func (h *stubHistory) LogLoginSuccess(_ context.Context, u *domain.User) error {
	return h.add(domain.NewLogIn(u, ""), true, false)
}

func (h *stubHistory) LogLoginFailure(_ context.Context, u *domain.User, info string) error {
	h.mu.Lock()
	h.failure = append(h.failure, info)
	h.mu.Unlock()
	return h.add(domain.NewLogIn(u, info), false, false)
}

func (h *stubHistory) LogLogOut(_ context.Context, u *domain.User) error {
	return h.add(domain.NewLogOut(u), true, false)
}

func (h *stubHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ops)
}

// ---------------------------------------------------------------------------
// Authenticator stub
// ---------------------------------------------------------------------------

type stubAuth struct {
	allow      bool
	canCalls   int
	loginUser  *domain.User
	loginErr   error
	logoutOK   bool
	logoutErr  error
	lastOp     domain.Operation
	lastCaller *domain.User
}

func (a *stubAuth) LogIn(_ context.Context, _ string, _ []byte) (*domain.User, error) {
	return a.loginUser, a.loginErr
}

func (a *stubAuth) LogOut(_ context.Context, _ *domain.User) (bool, error) {
	return a.logoutOK, a.logoutErr
}

func (a *stubAuth) CanInvokeOperation(op domain.Operation, u *domain.User) bool {
	a.canCalls++
	a.lastOp = op
	a.lastCaller = u
	return a.allow
}

// ---------------------------------------------------------------------------
// Session store and locker
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.User
	saveErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.User)}
}

func (s *stubSessionStore) Save(_ context.Context, id string, u *domain.User, _ time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = u
	return nil
}

func (s *stubSessionStore) Load(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return u, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// mutexLocker serialises everything behind one mutex; enough for tests.
type mutexLocker struct {
	mu    sync.Mutex
	calls [][]int64
}

func (l *mutexLocker) Lock(_ context.Context, ids ...int64) (func(), error) {
	l.mu.Lock()
	l.calls = append(l.calls, ids)
	return l.mu.Unlock, nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errStore = errString("store unavailable")

var discardLogger = zerolog.Nop()

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
