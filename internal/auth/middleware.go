package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/db/models"
	adapter "github.com/authenticator/authenticator/internal/logger/adapter/fiber"
	"github.com/authenticator/authenticator/internal/token"
)

// LocalsIdentity is the fiber.Locals key holding the caller's models.Identity.
const LocalsIdentity = "identity"

const bearerPrefix = "Bearer "

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// Authenticated creates Fiber middleware that resolves the bearer token into
// an Identity. Missing or invalid tokens answer 401.
func Authenticated(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token required"})
		}

		claims, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			log.Debug().Err(err).Str("ip", c.IP()).Msg("rejected bearer token")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		id := claims.Identity()
		c.Locals(LocalsIdentity, id)
		c.Locals(adapter.LocalsUserID, id.ID)

		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticated.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(LocalsIdentity).(models.Identity)

	return id, ok
}

// RequireRoleHandler creates Fiber middleware that requires role. It must run after Authenticated.
func RequireRoleHandler(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return gate(c, func(id models.Identity) error { return RequireRole(id, role) },
			"Access denied. Insufficient permissions.")
	}
}

// RequireAdminHandler creates Fiber middleware that requires admin or superadmin.
func RequireAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return gate(c, RequireAdmin, "Access denied. Admin privileges required.")
	}
}

func gate(c *fiber.Ctx, check func(models.Identity) error, message string) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token required"})
	}

	if err := check(id); err != nil {
		log.Warn().Uint64("user_id", id.ID).Str("role", string(id.Role)).Str("path", c.Path()).
			Msg("user lacks required role")

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
	}

	return c.Next()
}
