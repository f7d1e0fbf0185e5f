package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

const (
	collectionAccounts  = "accounts"
	collectionUsers     = "users"
	collectionPasswords = "passwords"
	collectionAuditLog  = "audit_log"
)

// CredentialStore keeps accounts, users, password digests and the audit log
// in MongoDB. Balances are stored as Decimal128.
type CredentialStore struct {
	accounts  *mongo.Collection
	users     *mongo.Collection
	passwords *mongo.Collection
	audit     *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{
		accounts:  db.Collection(collectionAccounts),
		users:     db.Collection(collectionUsers),
		passwords: db.Collection(collectionPasswords),
		audit:     db.Collection(collectionAuditLog),
	}
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

func (s *CredentialStore) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := s.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain()
}

// UpdateAccountState writes balance and updated_at. Owner is never changed here.
func (s *CredentialStore) UpdateAccountState(ctx context.Context, account *domain.Account) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	balance, err := toDecimal128(account.Balance)
	if err != nil {
		return false, err
	}

	res, err := s.accounts.UpdateOne(ctx,
		bson.M{"_id": account.ID},
		bson.M{"$set": bson.M{"balance": balance, "updated_at": account.UpdatedAt}},
	)
	if err != nil {
		return false, fmt.Errorf("update account: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *CredentialStore) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) FindPasswordForUser(ctx context.Context, user *domain.User) (*domain.Password, error) {
	if user == nil {
		return nil, domain.ErrPasswordNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc passwordDoc
	if err := s.passwords.FindOne(ctx, bson.M{"user_name": user.Name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPasswordNotFound
		}
		return nil, fmt.Errorf("find password: %w", err)
	}
	return &domain.Password{UserName: doc.UserName, Hash: doc.Hash}, nil
}

func (s *CredentialStore) LogOperation(ctx context.Context, record domain.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newAuditDoc(record)
	if err != nil {
		return err
	}
	if _, err := s.audit.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *CredentialStore) ListAccountIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.accounts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var ids []int64
	for cur.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return ids, nil
}

// CreateAccount inserts a new account. Used for seeding.
func (s *CredentialStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newAccountDoc(account)
	if err != nil {
		return err
	}
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// EnsureUser inserts user unless a user with the same name exists.
func (s *CredentialStore) EnsureUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.users.UpdateOne(ctx,
		bson.M{"name": user.Name},
		bson.M{"$setOnInsert": bson.M{"name": user.Name, "role": user.Role.Name, "created_at": createdAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique lookups the store relies on.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.passwords.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_name", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("passwords index: %w", err)
	}

	_, err := s.audit.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_name", Value: 1}, {Key: "recorded_at", Value: -1}}},
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "recorded_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("audit_log index: %w", err)
	}
	return nil
}
