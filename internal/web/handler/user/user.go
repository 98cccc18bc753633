// Package user provides the self-service endpoints of the authenticated caller.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	controller "github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

const (
	// Path is the route group of the self-service endpoints.
	Path = handler.APIPath + "/users"
)

// Service provides profile and password endpoints.
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
		r.Get("/profile", s.Profile)
		r.Put("/profile", s.UpdateProfile)
		r.Delete("/profile", s.DeleteProfile)
		r.Put("/change-password", s.ChangePassword)
	})

	return nil
}

func (s *Service) storeError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, controller.ErrUserNotFound):
		return handler.Error(c, fiber.StatusNotFound, handler.MsgUserNotFound)
	case errors.Is(err, controller.ErrEmailTaken):
		return handler.Error(c, fiber.StatusBadRequest, handler.MsgEmailTaken)
	default:
		log.Error().Err(err).Uint64("user_id", handler.Identity(c).ID).Msg(msg)

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgDatabaseError)
	}
}

func (s *Service) record(c *fiber.Ctx, userID uint64, t models.ActivityType, description string) {
	client := handler.Client(c)
	s.deps.Activity.Log(c.UserContext(), activity.Entry{
		UserID:      userID,
		Type:        t,
		Description: description,
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	})
}

// List returns all users.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.deps.Users.List(c.UserContext())
	if err != nil {
		return s.storeError(c, err, "can't list users")
	}

	return c.JSON(handler.Summaries(users))
}

// Profile returns the caller's record.
func (s *Service) Profile(c *fiber.Ctx) error {
	u, err := s.deps.Users.GetByID(c.UserContext(), handler.Identity(c).ID)
	if err != nil {
		return s.storeError(c, err, "can't read profile")
	}

	return c.JSON(u)
}

// UpdateProfile changes name and email of the caller and mirrors a name change to the directory.
func (s *Service) UpdateProfile(c *fiber.Ctx) error {
	in := new(validate.Profile)
	if err := handler.Bind(c, s.deps.Validator, in); err != nil {
		return nil
	}

	ctx := c.UserContext()
	id := handler.Identity(c).ID

	prior, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return s.storeError(c, err, "can't read profile")
	}

	u, err := s.deps.Users.UpdateProfile(ctx, id, in.Name, in.Email)
	if err != nil {
		return s.storeError(c, err, "can't update profile")
	}

	s.record(c, id, models.ActivityProfileUpdated, "Profile updated - Name: "+u.Name+", Email: "+u.Email)

	var changes provision.Changes
	if prior.Name != u.Name {
		changes.DisplayName = &u.Name
	}

	body := fiber.Map{"message": "Profile updated successfully", "user": u}
	if s.deps.Provisioner.Enabled() {
		body["directory"] = s.deps.Provisioner.UpdateAccount(ctx, prior.Email, changes).Report()
	}

	return c.JSON(body)
}

// DeleteProfile removes the caller's account.
func (s *Service) DeleteProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := handler.Identity(c).ID

	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return s.storeError(c, err, "can't read profile")
	}

	if err = s.deps.Users.Delete(ctx, id); err != nil {
		return s.storeError(c, err, "can't delete account")
	}

	log.Info().Uint64("user_id", id).Str("email", u.Email).Msg("account deleted by owner")

	body := fiber.Map{"message": "Account deleted successfully", "deletedUser": u.Identity()}
	if s.deps.Provisioner.Enabled() {
		body["directory"] = s.deps.Provisioner.DeleteAccount(ctx, u.Email).Report()
	}

	return c.JSON(body)
}

// ChangePassword replaces the local password after verifying the current one.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	in := new(validate.ChangePassword)
	if err := handler.Bind(c, s.deps.Validator, in); err != nil {
		return nil
	}

	id := handler.Identity(c).ID

	err := s.deps.Authenticator.Local().ChangePassword(c.UserContext(), id, in.CurrentPassword, in.NewPassword)
	switch {
	case err == nil:
		s.record(c, id, models.ActivityPasswordChanged, "Password changed successfully")

		return c.JSON(fiber.Map{"success": true, "message": "Password changed successfully"})
	case errors.Is(err, auth.ErrDirectoryManaged):
		return handler.Error(c, fiber.StatusBadRequest, "Password changes not allowed for directory-managed accounts")
	case errors.Is(err, auth.ErrInvalidOldPassword):
		s.record(c, id, models.ActivityPasswordChangeFailed, "Password change failed - incorrect current password")

		return handler.Error(c, fiber.StatusBadRequest, "Current password is incorrect")
	default:
		return s.storeError(c, err, "can't change password")
	}
}
