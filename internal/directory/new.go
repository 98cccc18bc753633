package directory

import (
	"fmt"
	"sync"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/logger/adapter/stdlogger"
)

var ldapLoggerOnce sync.Once //nolint:gochecknoglobals

// New creates the Authority selected by cfg.Backend. The ldap and script
// backends return ErrNotConfigured when connection parameters are incomplete,
// in which case the directory is treated as unavailable.
func New(cfg config.Directory) (Authority, error) {
	switch cfg.Backend {
	case config.BackendSimulated:
		return NewSimulated(cfg.UsersContainer()), nil
	case config.BackendLDAP, "":
		if !cfg.Complete() {
			return nil, ErrNotConfigured
		}

		routeLDAPLogs()

		return NewLDAP(cfg), nil
	case config.BackendScript:
		if !cfg.Complete() {
			return nil, ErrNotConfigured
		}

		routeLDAPLogs()

		return NewScript(cfg, NewLDAP(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

// routeLDAPLogs sends the go-ldap package logger to zerolog.
func routeLDAPLogs() {
	ldapLoggerOnce.Do(func() {
		ldap.Logger(stdlogger.New("ldap").Std(zerolog.DebugLevel))
	})
}
