package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

// sessionClaims are the signed token contents. The session itself lives in
// the SessionStore; Role is informational for clients.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues signed session tokens and keeps the session itself in
// a SessionStore, so a token stops working as soon as it is revoked.
type SessionManager struct {
	store     ports.SessionStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionManager(store ports.SessionStore, jwtSecret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{store: store, jwtSecret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

// Issue starts a session for user.
func (s *SessionManager) Issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	id := uuid.NewString()
	expires := s.now().Add(s.ttl)

	claims := sessionClaims{
		Role: user.Role.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   user.Name,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("issue session: sign: %w", err)
	}

	if err := s.store.Save(ctx, id, user, s.ttl); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &domain.Session{Token: token, User: user, ExpiresAt: expires}, nil
}

// Resolve returns the user bound to a live session token.
func (s *SessionManager) Resolve(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.sessionID(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Revoke ends the session behind token.
func (s *SessionManager) Revoke(ctx context.Context, token string) error {
	id, err := s.sessionID(token)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *SessionManager) sessionID(token string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", errors.Join(domain.ErrSessionNotFound, err)
	}
	if claims.ID == "" {
		return "", domain.ErrSessionNotFound
	}
	return claims.ID, nil
}
