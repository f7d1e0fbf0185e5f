package bank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/core/service"
	"github.com/99minutos/bank-teller/internal/infrastructure/db/memory"
	"github.com/99minutos/bank-teller/internal/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "secret",
		SessionTTL:   time.Hour,
		StoreBackend: config.BackendMemory,
		LockBackend:  config.BackendLocal,
		LockTTL:      time.Second,
		Interest: config.InterestConfig{
			Rate:       "0.20",
			SystemUser: service.DefaultInterestSystemUser,
			Interval:   time.Hour,
			Workers:    2,
		},
		Password: config.PasswordConfig{Scheme: service.SchemeSHA256},
	}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.PutUser(&domain.User{ID: "1", Name: "alice", Role: domain.Role{Name: domain.RoleUser}})
	digest, err := service.NewPasswordHasher(service.SchemeSHA256, "").Hash([]byte("s3cret"))
	require.NoError(t, err)
	store.PutPassword("alice", digest)
	store.PutAccount(&domain.Account{ID: 13, Owner: "alice", Balance: decimal.Zero})
	return store
}

func storeFactory(store ports.CredentialStore, closed *bool) StoreFactory {
	return func(context.Context, *config.Config, zerolog.Logger) (ports.CredentialStore, CloseFunc, CheckFunc, error) {
		return store, func(context.Context) error { *closed = true; return nil }, nil, nil
	}
}

func TestBuild_InMemory(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	var closed bool

	b, err := Build(ctx, testConfig(), zerolog.Nop(), WithStoreFactory(storeFactory(store, &closed)))
	require.NoError(t, err)
	require.NotNil(t, b)

	_, err = store.FindUserByName(ctx, service.DefaultInterestSystemUser)
	require.NoError(t, err, "the interest system user must be created")

	session, ok := b.Accounts.LogIn(ctx, "alice", []byte("s3cret"))
	require.True(t, ok)

	user, ok := b.Accounts.LoggedUser(ctx, session.Token)
	require.True(t, ok)

	ok, err = b.Accounts.PaymentIn(ctx, user, decimal.NewFromInt(1000), "salary", 13)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Interest.ApplyToAccount(ctx, 13)
	require.NoError(t, err)
	require.True(t, ok)

	account, err := store.FindAccountByID(ctx, 13)
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(1200)), "got %s", account.Balance)

	require.True(t, b.Accounts.LogOut(ctx, session.Token))

	types := make([]domain.OperationType, 0)
	for _, r := range store.AuditRecords() {
		types = append(types, r.Type)
	}
	require.Equal(t, []domain.OperationType{
		domain.OpLogIn, domain.OpPaymentIn, domain.OpPaymentIn, domain.OpInterest, domain.OpLogOut,
	}, types)

	require.NoError(t, b.Close(ctx))
	require.True(t, closed)
}

func TestBuild_DefaultMemoryBackend(t *testing.T) {
	b, err := Build(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, b.Scheduler)
	require.Empty(t, b.Checks)
}

func TestBuild_StoreFailure(t *testing.T) {
	failing := func(context.Context, *config.Config, zerolog.Logger) (ports.CredentialStore, CloseFunc, CheckFunc, error) {
		return nil, nil, nil, errors.New("store down")
	}

	b, err := Build(context.Background(), testConfig(), zerolog.Nop(), WithStoreFactory(failing))
	require.Error(t, err)
	require.Nil(t, b)
}

func TestBuild_RedisFailureClosesStore(t *testing.T) {
	cfg := testConfig()
	cfg.LockBackend = config.BackendRedis
	cfg.Redis.Addr = "127.0.0.1:1"
	var closed bool

	b, err := Build(context.Background(), cfg, zerolog.Nop(), WithStoreFactory(storeFactory(memory.New(), &closed)))
	require.Error(t, err)
	require.Nil(t, b)
	require.True(t, closed, "the store opened before the failure must be closed")
}

func TestBuild_InvalidRate(t *testing.T) {
	cfg := testConfig()
	cfg.Interest.Rate = "abc"

	b, err := Build(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	require.Nil(t, b)
}

func TestBuild_WithRedis(t *testing.T) {
	ctx := context.Background()
	mini := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	cfg.LockBackend = config.BackendRedis
	var closed bool

	b, err := Build(ctx, cfg, zerolog.Nop(),
		WithStoreFactory(storeFactory(seededStore(t), &closed)),
		WithRedisClient(client),
	)
	require.NoError(t, err)
	require.Contains(t, b.Checks, "redis")
	require.NoError(t, b.Checks["redis"](ctx))

	session, ok := b.Accounts.LogIn(ctx, "alice", []byte("s3cret"))
	require.True(t, ok)
	require.NotEmpty(t, mini.Keys())

	user, ok := b.Accounts.LoggedUser(ctx, session.Token)
	require.True(t, ok)

	ok, err = b.Accounts.PaymentIn(ctx, user, decimal.NewFromInt(5), "", 13)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Close(ctx))
	require.NoError(t, client.Ping(ctx).Err(), "an injected client is left open")
}
