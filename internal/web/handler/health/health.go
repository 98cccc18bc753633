// Package health provides the diagnostic endpoints.
package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/web/handler"
)

const (
	// Path is the liveness endpoint.
	Path = handler.APIPath + "/health"

	dbPingTimeout = 3 * time.Second
)

// Version is reported by /api/info and set at build time.
var Version = "dev" //nolint:gochecknoglobals

// Service answers health and info requests.
type Service struct {
	deps  *handler.Deps
	alive func() bool
}

// New creates a health service. alive reports false while the server drains.
func New(alive func() bool) *Service {
	return &Service{alive: alive}
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return handler.ErrDepsInvalid
	}

	s.deps = deps
	if s.alive == nil {
		s.alive = func() bool { return true }
	}

	router.Get(Path, s.Health)
	router.Get(Path+"/db", s.Database)
	router.Get(handler.APIPath+"/info", s.Info)

	return nil
}

// Health answers 200 while the service accepts traffic and 503 while shutting down.
func (s *Service) Health(c *fiber.Ctx) error {
	if !s.alive() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "ERROR",
			"message": "Server is shutting down",
		})
	}

	return c.JSON(fiber.Map{"status": "OK", "message": "Server is running"})
}

// Database pings the primary store.
func (s *Service) Database(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), dbPingTimeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)

	sqlDB, err := s.deps.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}

	if err != nil {
		log.Error().Err(err).Msg("database health check failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":    "ERROR",
			"message":   "Database connection failed",
			"timestamp": now,
		})
	}

	return c.JSON(fiber.Map{
		"status":    "OK",
		"message":   "Database connection is healthy",
		"timestamp": now,
	})
}

// Info describes the service and its configured modes.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":         s.deps.Config.Title,
		"version":      Version,
		"description":  "Authentication API for user management",
		"authMode":     s.deps.Authenticator.Mode(),
		"provisioning": s.deps.Provisioner.Enabled(),
		"endpoints": fiber.Map{
			"auth": fiber.Map{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
			},
			"users": fiber.Map{
				"profile":        "GET /api/users/profile",
				"updateProfile":  "PUT /api/users/profile",
				"deleteProfile":  "DELETE /api/users/profile",
				"changePassword": "PUT /api/users/change-password",
				"getAllUsers":    "GET /api/users",
			},
			"admin": fiber.Map{
				"users":         "GET|POST /api/admin/users",
				"user":          "PUT|DELETE /api/admin/users/:id",
				"resetPassword": "POST /api/admin/users/:id/reset-password",
				"stats":         "GET /api/admin/stats",
			},
			"activity": fiber.Map{
				"list":    "GET /api/activity",
				"summary": "GET /api/activity/summary",
				"cleanup": "DELETE /api/activity/cleanup",
			},
			"utility": fiber.Map{
				"health":   "GET /api/health",
				"dbHealth": "GET /api/health/db",
				"info":     "GET /api/info",
				"metrics":  "GET /metrics",
			},
		},
	})
}
