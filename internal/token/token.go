// Package token issues and verifies the signed credentials handed out at login.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/models"
)

const minSecretLen = 32

var (
	// ErrInvalidToken is returned for a malformed, tampered or foreign token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for a token past its expiry.
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidSecretLength is returned by NewService for a short secret.
	ErrInvalidSecretLength = errors.New("token secret must be at least 32 characters")
)

// Claims carried by every token.
type Claims struct {
	jwt.RegisteredClaims

	UserID uint64      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Identity returns the caller identity encoded in the claims. Name is not carried.
func (c *Claims) Identity() models.Identity {
	return models.Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// Service signs and validates HS256 tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a Service from the token config.
func NewService(cfg config.Token) (*Service, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrInvalidSecretLength
	}

	s := &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}

	if s.issuer == "" {
		s.issuer = "authenticator"
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed token for the user.
func (s *Service) Issue(u models.Identity) (string, error) {
	now := s.now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse validates tokenString and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}

		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
