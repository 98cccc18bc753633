// Package activity provides the endpoints over the caller's own audit log.
package activity

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/auth"
	controller "github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/web/handler"
)

const (
	// Path is the route group of the activity endpoints.
	Path = handler.APIPath + "/activity"

	maxPageSize = 100
)

// Service serves the activity log.
type Service struct {
	deps *handler.Deps
}

// Init registers routes. Every route requires a valid bearer token.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return handler.ErrDepsInvalid
	}

	s.deps = deps

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.Authenticated(deps.Tokens))
		r.Get(handler.RouterRootPath, s.List)
		r.Get("/summary", s.Summary)
		r.Delete("/cleanup", s.Cleanup)
	})

	return nil
}

// List returns a page of the caller's activity.
func (s *Service) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", controller.DefaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := s.deps.Activity.List(c.UserContext(), handler.Identity(c).ID, c.QueryInt("page", 1), limit)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", handler.Identity(c).ID).Msg("can't list activity")

		return handler.Error(c, fiber.StatusInternalServerError, "Failed to fetch activity log")
	}

	return c.JSON(page)
}

// Summary returns recent entries, counts by type and the last login.
func (s *Service) Summary(c *fiber.Ctx) error {
	sum, err := s.deps.Activity.Summary(c.UserContext(), handler.Identity(c).ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", handler.Identity(c).ID).Msg("can't summarize activity")

		return handler.Error(c, fiber.StatusInternalServerError, "Failed to fetch activity summary")
	}

	return c.JSON(sum)
}

// Cleanup removes the caller's entries older than the days query parameter.
func (s *Service) Cleanup(c *fiber.Ctx) error {
	days := c.QueryInt("days", controller.DefaultRetentionDays)
	if days < 1 {
		days = controller.DefaultRetentionDays
	}

	n, err := s.deps.Activity.Cleanup(c.UserContext(), handler.Identity(c).ID, days)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", handler.Identity(c).ID).Msg("can't clean up activity")

		return handler.Error(c, fiber.StatusInternalServerError, "Failed to cleanup activity logs")
	}

	return c.JSON(fiber.Map{
		"message":      fmt.Sprintf("Cleaned up activity logs older than %d days", days),
		"deletedCount": n,
	})
}
