package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/validate"
)

// Error answers status with {"error": message}.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// Bind parses the JSON body into dst and validates it. On failure the 400
// response is already written and the returned error is non-nil.
func Bind(c *fiber.Ctx, v *validate.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = Error(c, fiber.StatusBadRequest, "Invalid request body") //nolint:errcheck

		return err
	}

	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{ //nolint:errcheck
			"error":  verr.Error(),
			"fields": verr.Fields,
		})

		return err
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("can't validate request")
	_ = Error(c, fiber.StatusInternalServerError, MsgServerError) //nolint:errcheck

	return err
}

// Client returns the audit information of the request.
func Client(c *fiber.Ctx) auth.ClientInfo {
	return auth.ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// Identity returns the authenticated caller. Routes using it must be behind auth.Authenticated.
func Identity(c *fiber.Ctx) models.Identity {
	id, _ := auth.IdentityFrom(c)

	return id
}

// ParamID parses the :id route parameter.
func ParamID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

// UserSummary is the listing view of a user.
type UserSummary struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// Summaries converts users to their listing view.
func Summaries(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}

	return out
}
