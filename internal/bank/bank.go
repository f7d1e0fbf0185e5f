// Package bank wires the teller core to its storage, session, lock and
// scheduling backends.
package bank

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/core/service"
	"github.com/99minutos/bank-teller/internal/infrastructure/db/memory"
	"github.com/99minutos/bank-teller/internal/infrastructure/db/mongo"
	"github.com/99minutos/bank-teller/internal/infrastructure/db/redis"
	"github.com/99minutos/bank-teller/internal/infrastructure/lock"
	"github.com/99minutos/bank-teller/internal/infrastructure/queue"
	"github.com/99minutos/bank-teller/internal/pkg/config"
	"github.com/99minutos/bank-teller/pkg/logger"
)

// CloseFunc releases a backend opened during Build.
type CloseFunc func(ctx context.Context) error

// CheckFunc reports whether a backend is reachable.
type CheckFunc func(ctx context.Context) error

// StoreFactory opens the credential store. The returned CloseFunc may be nil.
type StoreFactory func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, CloseFunc, CheckFunc, error)

// Bank is a fully wired teller. It is only ever returned complete.
type Bank struct {
	Store      ports.CredentialStore
	History    *service.BankHistory
	Auth       *service.AuthenticationManager
	Sessions   *service.SessionManager
	Accounts   *service.AccountManager
	Interest   *service.InterestOperator
	Dispatcher *queue.Dispatcher
	Scheduler  *queue.Scheduler

	// Checks are the readiness probes, keyed by backend name.
	Checks map[string]CheckFunc

	closers []CloseFunc
}

type options struct {
	storeFactory StoreFactory
	redisClient  *goredis.Client
}

type Option func(*options)

// WithStoreFactory replaces the store selected by STORE_BACKEND.
func WithStoreFactory(f StoreFactory) Option {
	return func(o *options) { o.storeFactory = f }
}

// WithRedisClient uses client instead of dialling REDIS_ADDR. Build does not
// close a client it was given.
func WithRedisClient(client *goredis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

// userEnsurer is implemented by stores that can create the interest system
// user on first start.
type userEnsurer interface {
	EnsureUser(ctx context.Context, user *domain.User) error
}

// Build opens every backend and wires the services. On any failure the
// backends already opened are closed and no Bank is returned.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (b *Bank, err error) {
	o := options{storeFactory: defaultStoreFactory}
	for _, opt := range opts {
		opt(&o)
	}

	rate, err := cfg.InterestRate()
	if err != nil {
		return nil, err
	}

	built := &Bank{Checks: make(map[string]CheckFunc)}
	defer func() {
		if err != nil {
			if cerr := built.Close(context.Background()); cerr != nil {
				log.Error().Err(cerr).Msg("failed to close partially built bank")
			}
			b = nil
		}
	}()

	store, closeStore, checkStore, err := o.storeFactory(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	built.Store = store
	built.addCloser(closeStore)
	if checkStore != nil {
		built.Checks["store"] = checkStore
	}

	sessionStore, locker, err := built.openCoordination(ctx, cfg, o.redisClient, log)
	if err != nil {
		return nil, err
	}

	if ensurer, ok := store.(userEnsurer); ok {
		systemUser := &domain.User{Name: cfg.Interest.SystemUser, Role: domain.Role{Name: domain.RoleAdmin}}
		if err := ensurer.EnsureUser(ctx, systemUser); err != nil {
			return nil, fmt.Errorf("ensure interest system user: %w", err)
		}
	}

	hasher := service.NewPasswordHasher(cfg.Password.Scheme, cfg.Password.Pepper)
	built.History = service.NewBankHistory(store, logger.Component(log, "history"))
	built.Auth = service.NewAuthenticationManager(store, built.History, hasher, logger.Component(log, "auth"))
	built.Sessions = service.NewSessionManager(sessionStore, cfg.JWTSecret, cfg.SessionTTL)
	built.Accounts = service.NewAccountManager(
		store,
		built.Auth,
		built.History,
		built.Sessions,
		locker,
		logger.Component(log, "accounts"),
	)
	built.Interest = service.NewInterestOperator(
		store,
		built.Accounts,
		built.History,
		rate,
		cfg.Interest.SystemUser,
		logger.Component(log, "interest"),
	)
	built.Dispatcher = queue.NewDispatcher(cfg.Interest.Workers, built.Interest, logger.Component(log, "dispatcher"))
	built.Scheduler = queue.NewScheduler(store, built.Dispatcher, cfg.Interest.Interval, logger.Component(log, "scheduler"))

	return built, nil
}

func (b *Bank) openCoordination(
	ctx context.Context,
	cfg *config.Config,
	client *goredis.Client,
	log zerolog.Logger,
) (ports.SessionStore, ports.AccountLocker, error) {
	if !cfg.UsesRedis() {
		return memory.NewSessionStore(), lock.NewLocal(), nil
	}

	if client == nil {
		var err error
		client, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Password: cfg.Redis.Password})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		b.addCloser(func(context.Context) error { return client.Close() })
	}
	b.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	return redis.NewSessionStore(client),
		redis.NewAccountLocker(client, cfg.LockTTL, logger.Component(log, "locker")),
		nil
}

func (b *Bank) addCloser(c CloseFunc) {
	if c != nil {
		b.closers = append(b.closers, c)
	}
}

// Close releases every backend in reverse order of opening.
func (b *Bank) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func defaultStoreFactory(ctx context.Context, cfg *config.Config, _ zerolog.Logger) (ports.CredentialStore, CloseFunc, CheckFunc, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.New(), nil, nil, nil
	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, err
		}
		closer := func(ctx context.Context) error { return client.Disconnect(ctx) }

		store := mongo.NewCredentialStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = closer(ctx)
			return nil, nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		check := func(ctx context.Context) error { return mongo.Ping(ctx, client) }
		return store, closer, check, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
