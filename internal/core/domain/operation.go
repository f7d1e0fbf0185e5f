package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType tags the kind of attempted action.
type OperationType string

const (
	OpLogIn     OperationType = "LOG_IN"
	OpLogOut    OperationType = "LOG_OUT"
	OpPaymentIn OperationType = "PAYMENT_IN"
	OpWithdraw  OperationType = "WITHDRAW"
	OpTransfer  OperationType = "TRANSFER"
	OpInterest  OperationType = "INTEREST"
)

// Operation is an immutable record of one attempt. The set of variants is
// closed: only types in this package implement it.
type Operation interface {
	Type() OperationType
	Actor() *User
	At() time.Time
	operation()
}

type opHeader struct {
	User       *User
	OccurredAt time.Time
}

func (h opHeader) Actor() *User  { return h.User }
func (h opHeader) At() time.Time { return h.OccurredAt }
func (opHeader) operation()      {}

func header(u *User) opHeader {
	return opHeader{User: u, OccurredAt: time.Now().UTC()}
}

// LogIn records a login attempt. User is nil when the name was unknown.
type LogIn struct {
	opHeader
	Info string
}

func (LogIn) Type() OperationType { return OpLogIn }

type LogOut struct {
	opHeader
}

func (LogOut) Type() OperationType { return OpLogOut }

type PaymentIn struct {
	opHeader
	Amount      decimal.Decimal
	Description string
	AccountID   int64
}

func (PaymentIn) Type() OperationType { return OpPaymentIn }

// Withdraw debits AccountID. AccountOwner, when set, names the user the
// account belongs to.
type Withdraw struct {
	opHeader
	Amount       decimal.Decimal
	Description  string
	AccountID    int64
	AccountOwner string
}

func (Withdraw) Type() OperationType { return OpWithdraw }

// OwnedBy returns a copy of w bound to the account owner's name.
func (w Withdraw) OwnedBy(owner string) Withdraw {
	w.AccountOwner = owner
	return w
}

// Transfer moves Amount from SourceID to DestID.
type Transfer struct {
	opHeader
	Amount      decimal.Decimal
	Description string
	SourceID    int64
	DestID      int64
}

func (Transfer) Type() OperationType { return OpTransfer }

// Interest records an interest accrual applied by the system user.
type Interest struct {
	opHeader
	Amount    decimal.Decimal
	Rate      decimal.Decimal
	AccountID int64
}

func (Interest) Type() OperationType { return OpInterest }

func NewLogIn(u *User, info string) LogIn {
	return LogIn{opHeader: header(u), Info: info}
}

func NewLogOut(u *User) LogOut {
	return LogOut{opHeader: header(u)}
}

func NewPaymentIn(u *User, amount decimal.Decimal, description string, accountID int64) PaymentIn {
	return PaymentIn{opHeader: header(u), Amount: amount, Description: description, AccountID: accountID}
}

func NewWithdraw(u *User, amount decimal.Decimal, description string, accountID int64) Withdraw {
	return Withdraw{opHeader: header(u), Amount: amount, Description: description, AccountID: accountID}
}

func NewTransfer(u *User, amount decimal.Decimal, description string, sourceID, destID int64) Transfer {
	return Transfer{opHeader: header(u), Amount: amount, Description: description, SourceID: sourceID, DestID: destID}
}

func NewInterest(u *User, amount, rate decimal.Decimal, accountID int64) Interest {
	return Interest{opHeader: header(u), Amount: amount, Rate: rate, AccountID: accountID}
}
