package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
)

// CredentialStore is the part of the user store the authenticator needs.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint64) (*models.User, error)
	EnsureMirrored(ctx context.Context, email, displayName string) (*models.User, bool, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// LocalProvider handles local database authentication.
type LocalProvider struct {
	store  CredentialStore
	hasher Hasher
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(store CredentialStore, hasher Hasher) *LocalProvider {
	return &LocalProvider{
		store:  store,
		hasher: hasher,
	}
}

// Authenticate verifies password against the stored hash of the account with email.
// Rejections wrap ErrInvalidCredentials with the reason; store failures wrap ErrStore.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := p.store.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: unknown account", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if !u.HasPassword() {
		return u, fmt.Errorf("%w: account has no local password", ErrInvalidCredentials)
	}

	ok, err := p.hasher.Verify(password, *u.Password)
	if err != nil {
		return u, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !ok {
		return u, fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
	}

	return u, nil
}

// ChangePassword replaces the password of a locally managed account after checking current.
func (p *LocalProvider) ChangePassword(ctx context.Context, id uint64, current, next string) error {
	u, err := p.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if u.DirectoryManaged() {
		return ErrDirectoryManaged
	}

	ok, err := p.hasher.Verify(current, *u.Password)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrInvalidOldPassword
	}

	return p.SetPassword(ctx, id, next)
}

// SetPassword hashes password and stores it without further checks.
func (p *LocalProvider) SetPassword(ctx context.Context, id uint64, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return p.store.UpdatePassword(ctx, id, hash)
}
