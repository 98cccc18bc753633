package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/password"
)

// seed creates the configured superadmin when no account with its email exists.
func seed(ctx context.Context, cfg *config.Config, users *user.Store, hasher *password.Hasher) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, cfg.Admin.Email)
	if err == nil {
		if existing.Role != models.RoleSuperAdmin {
			log.Warn().Str("email", existing.Email).Str("role", string(existing.Role)).
				Msg("configured admin account exists without superadmin role")
		}

		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("look up admin account: %w", err)
	}

	hash, err := hasher.Hash(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := cfg.Admin.Name
	if name == "" {
		name = "Super Administrator"
	}

	u, err := users.Create(ctx, name, cfg.Admin.Email, &hash, models.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	log.Warn().Uint64("user_id", u.ID).Str("email", u.Email).
		Msg("seeded superadmin account, change its password")

	return nil
}
