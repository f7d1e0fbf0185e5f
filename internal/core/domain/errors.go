package domain

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrPasswordNotFound = errors.New("password not found")
	ErrSessionNotFound  = errors.New("session not found")

	ErrUnknownUserOrBadPassword = errors.New("unknown user or bad password")
	ErrOperationNotAllowed      = errors.New("operation not allowed")
	ErrHashUnavailable          = errors.New("password hashing unavailable")

	// ErrUntypedAudit is returned by audit entry points that would record an
	// operation without its type.
	ErrUntypedAudit = errors.New("untyped audit entry not implemented")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrSameAccount          = errors.New("source and destination must be different accounts")
	ErrTransferInconsistent = errors.New("transfer left accounts inconsistent")
)
