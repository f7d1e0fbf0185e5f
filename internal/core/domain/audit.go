package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditRecord is the persisted, append-only trace of one attempted operation.
type AuditRecord struct {
	ID            string
	Type          OperationType
	UserName      string // empty when the attempt had no known user
	Success       bool
	Unauthorized  bool
	Amount        decimal.NullDecimal
	Description   string
	AccountID     int64
	DestAccountID int64
	Info          string
	OccurredAt    time.Time
	RecordedAt    time.Time
}

// NewAuditRecord projects an operation onto a record. unauthorized forces
// success to false.
func NewAuditRecord(op Operation, success, unauthorized bool) AuditRecord {
	rec := AuditRecord{
		ID:           uuid.NewString(),
		Type:         op.Type(),
		Success:      success && !unauthorized,
		Unauthorized: unauthorized,
		OccurredAt:   op.At(),
		RecordedAt:   time.Now().UTC(),
	}
	if u := op.Actor(); u != nil {
		rec.UserName = u.Name
	}

	switch o := op.(type) {
	case LogIn:
		rec.Info = o.Info
	case LogOut:
	case PaymentIn:
		rec.Amount = decimal.NewNullDecimal(o.Amount)
		rec.Description = o.Description
		rec.AccountID = o.AccountID
	case Withdraw:
		rec.Amount = decimal.NewNullDecimal(o.Amount)
		rec.Description = o.Description
		rec.AccountID = o.AccountID
	case Transfer:
		rec.Amount = decimal.NewNullDecimal(o.Amount)
		rec.Description = o.Description
		rec.AccountID = o.SourceID
		rec.DestAccountID = o.DestID
	case Interest:
		rec.Amount = decimal.NewNullDecimal(o.Amount)
		rec.AccountID = o.AccountID
		rec.Info = "rate " + o.Rate.String()
	}
	return rec
}
