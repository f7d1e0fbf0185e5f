package ports

import (
	"context"
	"time"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// SessionStore keeps live sessions keyed by session id. Load returns
// domain.ErrSessionNotFound for unknown, expired or revoked ids.
type SessionStore interface {
	Save(ctx context.Context, id string, user *domain.User, ttl time.Duration) error
	Load(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
