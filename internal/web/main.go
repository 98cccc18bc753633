// Package web assembles the fiber application serving the JSON API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	accesslog "github.com/authenticator/authenticator/internal/logger/adapter/fiber"
	"github.com/authenticator/authenticator/internal/web/handler"
	"github.com/authenticator/authenticator/internal/web/handler/activity"
	adminuser "github.com/authenticator/authenticator/internal/web/handler/admin/user"
	"github.com/authenticator/authenticator/internal/web/handler/health"
	"github.com/authenticator/authenticator/internal/web/handler/login"
	"github.com/authenticator/authenticator/internal/web/handler/user"
)

// MetricsPath serves the prometheus registry.
const MetricsPath = "/metrics"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	go func() {
		err := s.App.Listen(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err

			return
		}

		doneFiber <- nil
	}()

	// wait for fiber to stop
	return <-doneFiber
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown drains and stops the server. Unless fast shutdown is set, the health
// endpoint answers 503 for Webserver.ShutDownTime seconds first so load
// balancers can remove the instance.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Config.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Config.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the service accepts traffic.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) (*Service, error) {
	if !deps.Valid() {
		return nil, handler.ErrDepsInvalid
	}

	cfg := deps.Config

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAlive,
	}))

	if cfg.Webserver.CORSOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Webserver.CORSOrigin,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	handlers := []handler.Service{
		health.New(service.Alive),
		&login.Service{},
		&user.Service{},
		&adminuser.Service{},
		&activity.Service{},
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	app.Use(func(c *fiber.Ctx) error {
		return handler.Error(c, fiber.StatusNotFound, "Route not found")
	})

	return service, nil
}

// errorHandler answers errors returned by handlers as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return handler.Error(c, code, handler.MsgServerError)
	}

	return handler.Error(c, code, err.Error())
}
