package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/directory"
	"github.com/authenticator/authenticator/internal/password"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/token"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

// Authority builds the directory authority when the configuration needs one.
// A nil authority with a nil error means the directory is unavailable.
func Authority(cfg *config.Config) (directory.Authority, error) {
	if cfg.Auth.Mode == config.AuthModeLocal && !cfg.Directory.ProvisioningEnabled {
		return nil, nil
	}

	authority, err := directory.New(cfg.Directory)
	if errors.Is(err, directory.ErrNotConfigured) {
		log.Warn().Str("backend", cfg.Directory.Backend).Str("mode", cfg.Auth.Mode).
			Msg("directory configuration incomplete, directory authentication and provisioning disabled")

		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return authority, nil
}

// NewDeps wires stores, credential services and the directory into handler dependencies.
func NewDeps(cfg *config.Config, db *gorm.DB) (*handler.Deps, error) {
	tokens, err := token.NewService(cfg.Token)
	if err != nil {
		return nil, err
	}

	authority, err := Authority(cfg)
	if err != nil {
		return nil, err
	}

	users := user.New(db)
	activities := activity.New(db)
	hasher := password.NewHasher(cfg.Password)

	deps := &handler.Deps{
		Config:        cfg,
		DB:            db,
		Users:         users,
		Activity:      activities,
		Authenticator: auth.NewAuthenticator(cfg, users, authority, hasher, activities),
		Tokens:        tokens,
		Provisioner:   provision.New(cfg.Directory, authority),
		Validator:     validate.New(cfg.Password.MinLength),
		Hasher:        hasher,
	}

	log.Info().
		Str("auth_mode", deps.Authenticator.Mode()).
		Bool("directory", authority != nil).
		Bool("provisioning", deps.Provisioner.Enabled()).
		Str("hash", hasher.Algorithm()).
		Msg("authentication configured")

	return deps, nil
}
