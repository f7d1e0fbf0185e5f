package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

type accountDoc struct {
	ID        int64                `bson:"_id"`
	Owner     string               `bson:"owner"`
	Balance   primitive.Decimal128 `bson:"balance"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
}

type passwordDoc struct {
	UserName string `bson:"user_name"`
	Hash     string `bson:"hash"`
}

type auditDoc struct {
	ID            string                `bson:"_id"`
	Type          string                `bson:"type"`
	UserName      string                `bson:"user_name,omitempty"`
	Success       bool                  `bson:"success"`
	Unauthorized  bool                  `bson:"unauthorized"`
	Amount        *primitive.Decimal128 `bson:"amount,omitempty"`
	Description   string                `bson:"description,omitempty"`
	AccountID     int64                 `bson:"account_id,omitempty"`
	DestAccountID int64                 `bson:"dest_account_id,omitempty"`
	Info          string                `bson:"info,omitempty"`
	OccurredAt    time.Time             `bson:"occurred_at"`
	RecordedAt    time.Time             `bson:"recorded_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}

func (d accountDoc) toDomain() (*domain.Account, error) {
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        d.ID,
		Owner:     d.Owner,
		Balance:   balance,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func newAccountDoc(a *domain.Account) (accountDoc, error) {
	balance, err := toDecimal128(a.Balance)
	if err != nil {
		return accountDoc{}, err
	}
	return accountDoc{ID: a.ID, Owner: a.Owner, Balance: balance, UpdatedAt: a.UpdatedAt}, nil
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Role:      domain.Role{Name: d.Role},
		CreatedAt: d.CreatedAt,
	}
}

func newAuditDoc(r domain.AuditRecord) (auditDoc, error) {
	doc := auditDoc{
		ID:            r.ID,
		Type:          string(r.Type),
		UserName:      r.UserName,
		Success:       r.Success,
		Unauthorized:  r.Unauthorized,
		Description:   r.Description,
		AccountID:     r.AccountID,
		DestAccountID: r.DestAccountID,
		Info:          r.Info,
		OccurredAt:    r.OccurredAt,
		RecordedAt:    r.RecordedAt,
	}
	if r.Amount.Valid {
		amount, err := toDecimal128(r.Amount.Decimal)
		if err != nil {
			return auditDoc{}, err
		}
		doc.Amount = &amount
	}
	return doc, nil
}
