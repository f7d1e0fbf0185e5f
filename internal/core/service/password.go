package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/99minutos/bank-teller/internal/core/domain"
)

// Supported password digest schemes.
const (
	SchemeSHA256   = "sha256"
	SchemeArgon2ID = "argon2id"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// PasswordHasher turns secret bytes into a reproducible encoded digest.
// Stored digests are compared digest-to-digest, so the scheme must be
// deterministic for a given configuration.
type PasswordHasher struct {
	scheme string
	pepper []byte
}

// NewPasswordHasher returns a hasher for scheme. An unknown scheme is not an
// error here; Hash reports domain.ErrHashUnavailable instead.
func NewPasswordHasher(scheme, pepper string) *PasswordHasher {
	return &PasswordHasher{scheme: scheme, pepper: []byte(pepper)}
}

// Hash digests secret and zeroes it before returning, on every path.
func (h *PasswordHasher) Hash(secret []byte) (string, error) {
	defer scrub(secret)

	switch h.scheme {
	case SchemeSHA256, "":
		sum := sha256.Sum256(secret)
		return base64.StdEncoding.EncodeToString(sum[:]), nil
	case SchemeArgon2ID:
		key := argon2.IDKey(secret, h.pepper, argonTime, argonMemory, argonThreads, argonKeyLen)
		return base64.StdEncoding.EncodeToString(key), nil
	default:
		return "", fmt.Errorf("%w: scheme %q", domain.ErrHashUnavailable, h.scheme)
	}
}

// Matches hashes secret and compares it with the stored digest in constant time.
func (h *PasswordHasher) Matches(stored *domain.Password, secret []byte) (bool, error) {
	digest, err := h.Hash(secret)
	if err != nil {
		return false, err
	}
	if stored == nil || stored.Hash == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored.Hash), []byte(digest)) == 1, nil
}

func scrub(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
