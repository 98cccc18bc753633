// Package daemon wires configuration, database, directory and web service together.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/web"
	"github.com/authenticator/authenticator/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	deps       *handler.Deps
	webService *web.Service
}

// Start serves HTTP until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Msg("starting http server")

	return d.webService.Start(addr)
}

// Deps returns the wired dependencies.
func (d *Daemon) Deps() *handler.Deps {
	return d.deps
}

// New creates a Daemon: it connects and migrates the database, seeds the
// superadmin and builds the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	deps, err := Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		deps:       deps,
		webService: webService,
	}, nil
}

// Bootstrap opens the database, seeds it and returns the wired dependencies.
// Console commands use it without starting the web service.
func Bootstrap(ctx context.Context, cfg *config.Config) (*handler.Deps, error) {
	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps, err := NewDeps(cfg, db)
	if err != nil {
		return nil, err
	}

	if err = seed(ctx, cfg, deps.Users, deps.Hasher); err != nil {
		return nil, err
	}

	return deps, nil
}
