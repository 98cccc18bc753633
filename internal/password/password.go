// Package password hashes and verifies local account passwords.
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/authenticator/authenticator/internal/config"
)

var (
	// ErrUnknownHash is returned by Verify for a hash in neither argon2id nor bcrypt format.
	ErrUnknownHash = errors.New("unknown password hash format")
	// ErrEmptyPassword is returned by Hash for an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// Hasher creates password hashes with the configured algorithm and cost.
type Hasher struct {
	algorithm string
	cost      int
}

// NewHasher creates a Hasher from the password config.
func NewHasher(cfg config.Password) *Hasher {
	h := &Hasher{algorithm: cfg.Algorithm, cost: cfg.HashCost}

	if h.algorithm == "" {
		h.algorithm = config.AlgorithmArgon2id
	}

	return h
}

// Algorithm returns the algorithm new hashes are created with.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the one-way hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	switch h.algorithm {
	case config.AlgorithmBcrypt:
		cost := h.cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}

		out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}

		return string(out), nil
	default:
		params := *argon2id.DefaultParams
		if h.cost > 0 {
			params.Iterations = uint32(h.cost) //nolint:gosec
		}

		out, err := argon2id.CreateHash(password, &params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}

		return out, nil
	}
}

// Verify reports whether password matches hash. The hash format is detected,
// so hashes of either algorithm verify regardless of the configured one.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		if err != nil {
			return false, fmt.Errorf("argon2id verify: %w", err)
		}

		return match, nil
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("bcrypt verify: %w", err)
		}

		return true, nil
	default:
		return false, ErrUnknownHash
	}
}

func isBcrypt(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}

	return false
}
