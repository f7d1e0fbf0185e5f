package service

import (
	"context"
	"errors"
	"testing"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

func newAuthFixture(t *testing.T) (*AuthenticationManager, *stubStore, *stubHistory) {
	t.Helper()
	store := newStubStore()
	hist := &stubHistory{}
	mgr := NewAuthenticationManager(store, hist, NewPasswordHasher(SchemeSHA256, ""), discardLogger)
	return mgr, store, hist
}

func setPassword(t *testing.T, mgr *AuthenticationManager, store *stubStore, name, secret string) {
	t.Helper()
	digest, err := mgr.HashPassword([]byte(secret))
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	store.passwords[name] = &domain.Password{UserName: name, Hash: digest}
}

func TestAuthenticationManager_LogIn_Success(t *testing.T) {
	mgr, store, hist := newAuthFixture(t)
	want := store.putUser("alice", domain.RoleUser)
	setPassword(t, mgr, store, "alice", "s3cret")

	got, err := mgr.LogIn(context.Background(), "alice", []byte("s3cret"))
	if err != nil {
		t.Fatalf("LogIn returned error: %v", err)
	}
	if got != want {
		t.Fatalf("expected the stored user, got %+v", got)
	}
	if hist.count() != 1 || !hist.ops[0].success || hist.ops[0].op.Type() != domain.OpLogIn {
		t.Fatalf("expected one successful LOG_IN audit, got %+v", hist.ops)
	}
}

func TestAuthenticationManager_LogIn_UnknownUser(t *testing.T) {
	mgr, _, hist := newAuthFixture(t)

	user, err := mgr.LogIn(context.Background(), "testUser", []byte("pw"))
	if user != nil {
		t.Fatalf("expected no user")
	}
	if !errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
		t.Fatalf("expected ErrUnknownUserOrBadPassword, got %v", err)
	}
	if len(hist.failure) != 1 || hist.failure[0] != "bad username testUser" {
		t.Fatalf("unexpected failure info: %v", hist.failure)
	}
	if hist.ops[0].op.Actor() != nil {
		t.Fatalf("unknown-user failure must not carry a user")
	}
}

func TestAuthenticationManager_LogIn_BadPassword(t *testing.T) {
	mgr, store, hist := newAuthFixture(t)
	user := store.putUser("alice", domain.RoleUser)
	setPassword(t, mgr, store, "alice", "right")

	_, err := mgr.LogIn(context.Background(), "alice", []byte("wrong"))
	if !errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
		t.Fatalf("expected ErrUnknownUserOrBadPassword, got %v", err)
	}
	if len(hist.failure) != 1 || hist.failure[0] != "bad password" {
		t.Fatalf("unexpected failure info: %v", hist.failure)
	}
	if !hist.ops[0].op.Actor().SameIdentity(user) {
		t.Fatalf("bad-password failure must carry the user")
	}
}

func TestAuthenticationManager_LogIn_TamperedDigest(t *testing.T) {
	mgr, store, _ := newAuthFixture(t)
	store.putUser("alice", domain.RoleUser)
	setPassword(t, mgr, store, "alice", "right")
	store.passwords["alice"].Hash += "x"

	if _, err := mgr.LogIn(context.Background(), "alice", []byte("right")); !errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
		t.Fatalf("expected a tampered digest to fail, got %v", err)
	}
}

func TestAuthenticationManager_LogIn_MissingPassword(t *testing.T) {
	mgr, store, hist := newAuthFixture(t)
	store.putUser("alice", domain.RoleUser)

	_, err := mgr.LogIn(context.Background(), "alice", []byte("anything"))
	if !errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
		t.Fatalf("expected ErrUnknownUserOrBadPassword, got %v", err)
	}
	if hist.count() != 1 || hist.ops[0].success {
		t.Fatalf("expected one failed audit")
	}
}

func TestAuthenticationManager_LogIn_ZeroesPassword(t *testing.T) {
	mgr, store, _ := newAuthFixture(t)
	store.putUser("alice", domain.RoleUser)
	setPassword(t, mgr, store, "alice", "s3cret")

	cases := map[string]string{
		"success":      "alice",
		"unknown user": "bob",
	}
	for name, username := range cases {
		t.Run(name, func(t *testing.T) {
			pw := []byte("s3cret")
			_, _ = mgr.LogIn(context.Background(), username, pw)
			for i, b := range pw {
				if b != 0 {
					t.Fatalf("byte %d not zeroed", i)
				}
			}
		})
	}
}

func TestAuthenticationManager_LogIn_StoreFault(t *testing.T) {
	mgr, store, hist := newAuthFixture(t)
	store.findUserErr = errStore

	_, err := mgr.LogIn(context.Background(), "alice", []byte("pw"))
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store fault, got %v", err)
	}
	if errors.Is(err, domain.ErrUnknownUserOrBadPassword) {
		t.Fatalf("store fault must not look like bad credentials")
	}
	if hist.count() != 0 {
		t.Fatalf("store fault must not be audited as a login failure")
	}
}

func TestAuthenticationManager_LogIn_FailureAuditFault(t *testing.T) {
	mgr, _, hist := newAuthFixture(t)
	hist.err = errStore

	_, err := mgr.LogIn(context.Background(), "ghost", []byte("pw"))
	if !errors.Is(err, domain.ErrUnknownUserOrBadPassword) || !errors.Is(err, errStore) {
		t.Fatalf("expected both causes, got %v", err)
	}
}

func TestAuthenticationManager_LogIn_HashUnavailable(t *testing.T) {
	store := newStubStore()
	hist := &stubHistory{}
	store.putUser("alice", domain.RoleUser)
	store.passwords["alice"] = &domain.Password{UserName: "alice", Hash: "whatever"}
	mgr := NewAuthenticationManager(store, hist, NewPasswordHasher("md4", ""), discardLogger)

	user, err := mgr.LogIn(context.Background(), "alice", []byte("pw"))
	if user != nil {
		t.Fatalf("login must fail closed")
	}
	if !errors.Is(err, domain.ErrHashUnavailable) {
		t.Fatalf("expected ErrHashUnavailable, got %v", err)
	}
	if len(hist.failure) != 1 || hist.failure[0] != "password hashing unavailable" {
		t.Fatalf("unexpected failure info: %v", hist.failure)
	}
}

func TestAuthenticationManager_LogOut(t *testing.T) {
	mgr, store, hist := newAuthFixture(t)
	user := store.putUser("alice", domain.RoleUser)

	ok, err := mgr.LogOut(context.Background(), user)
	if err != nil || !ok {
		t.Fatalf("expected (true, nil), got (%v, %v)", ok, err)
	}
	if hist.count() != 1 || hist.ops[0].op.Type() != domain.OpLogOut {
		t.Fatalf("expected one LOG_OUT audit")
	}

	hist.err = errStore
	ok, err = mgr.LogOut(context.Background(), user)
	if ok || !errors.Is(err, errStore) {
		t.Fatalf("expected audit fault to propagate, got (%v, %v)", ok, err)
	}
}

func TestAuthorize(t *testing.T) {
	alice := &domain.User{Name: "alice", Role: domain.Role{Name: domain.RoleUser}}
	bob := &domain.User{Name: "bob", Role: domain.Role{Name: domain.RoleUser}}
	admin := &domain.User{Name: "root", Role: domain.Role{Name: domain.RoleAdmin}}
	amount := dec("10")

	tests := []struct {
		name string
		op   domain.Operation
		user *domain.User
		want bool
	}{
		{"admin transfer", domain.NewTransfer(admin, amount, "", 1, 2), admin, true},
		{"admin interest", domain.NewInterest(admin, amount, dec("0.2"), 1), admin, true},
		{"admin foreign withdraw", domain.NewWithdraw(alice, amount, "", 1).OwnedBy("alice"), admin, true},
		{"user deposit", domain.NewPaymentIn(alice, amount, "", 1), alice, true},
		{"user deposit by someone else", domain.NewPaymentIn(bob, amount, "", 1), alice, true},
		{"user own withdraw", domain.NewWithdraw(alice, amount, "", 1), alice, true},
		{"user own withdraw from own account", domain.NewWithdraw(alice, amount, "", 1).OwnedBy("alice"), alice, true},
		{"user withdraw from foreign account", domain.NewWithdraw(alice, amount, "", 1).OwnedBy("bob"), alice, false},
		{"user withdraw as someone else", domain.NewWithdraw(bob, amount, "", 1), alice, false},
		{"withdraw with no actor", domain.NewWithdraw(nil, amount, "", 1), alice, false},
		{"user transfer", domain.NewTransfer(alice, amount, "", 1, 2), alice, false},
		{"user interest", domain.NewInterest(alice, amount, dec("0.2"), 1), alice, false},
		{"user login op", domain.NewLogIn(alice, ""), alice, false},
		{"user logout op", domain.NewLogOut(alice), alice, false},
		{"nil user", domain.NewPaymentIn(alice, amount, "", 1), nil, false},
		{"nil op", nil, admin, false},
		{"unknown role", domain.NewTransfer(alice, amount, "", 1, 2), &domain.User{Name: "x", Role: domain.Role{Name: "Teller"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.op, tt.user); got != tt.want {
				t.Fatalf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}
