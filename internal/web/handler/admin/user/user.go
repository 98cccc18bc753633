// Package user provides handlers for managing users (CRUD) in admin area.
package user

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	controller "github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/password"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

const (
	// Path is the base path of the administrative endpoints.
	Path = handler.APIPath + "/admin"

	msgInvalidID = "Invalid user id"
)

// Service provides CRUD operations for users.
type Service struct {
	deps *handler.Deps
}

// Init registers routes. User management is superadmin only, statistics need admin.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return handler.ErrDepsInvalid
	}

	s.deps = deps

	superadmin := auth.RequireRoleHandler(models.RoleSuperAdmin)

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.Authenticated(deps.Tokens))
		r.Get("/users", superadmin, s.List)
		r.Post("/users", superadmin, s.Create)
		r.Put("/users/:id", superadmin, s.Update)
		r.Delete("/users/:id", superadmin, s.Delete)
		r.Post("/users/:id/reset-password", superadmin, s.ResetPassword)
		r.Get("/stats", auth.RequireAdminHandler(), s.Stats)
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
		log.Error().Err(err).Uint64("actor_id", handler.Identity(c).ID).Msg(msg)

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgDatabaseError)
	}
}

// record writes an audit entry owned by the acting administrator.
func (s *Service) record(c *fiber.Ctx, t models.ActivityType, description string) {
	client := handler.Client(c)
	s.deps.Activity.Log(c.UserContext(), activity.Entry{
		UserID:      handler.Identity(c).ID,
		Type:        t,
		Description: description,
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	})
}

// List returns all users, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.deps.Users.List(c.UserContext())
	if err != nil {
		return s.storeError(c, err, "list users failed")
	}

	return c.JSON(fiber.Map{
		"message": "Users retrieved successfully",
		"users":   handler.Summaries(users),
		"total":   len(users),
	})
}

// Create stores a local user and then provisions the directory account.
// A duplicate email is rejected before the directory is contacted.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(validate.CreateUser)
	if err := handler.Bind(c, s.deps.Validator, in); err != nil {
		return nil
	}

	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleUser
	}

	ctx := c.UserContext()

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		log.Error().Err(err).Msg("can't hash password")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	u, err := s.deps.Users.Create(ctx, in.Name, in.Email, &hash, role)
	if errors.Is(err, controller.ErrEmailTaken) {
		return handler.Error(c, fiber.StatusBadRequest, "User already exists")
	}
	if err != nil {
		return s.storeError(c, err, "create user failed")
	}

	s.record(c, models.ActivityUserCreated, fmt.Sprintf("Created user %s (%s) with role %s", u.Name, u.Email, u.Role))

	outcome := s.deps.Provisioner.CreateAccount(ctx, provision.NewUser{
		Name:        u.Name,
		Email:       u.Email,
		Password:    in.Password,
		AccountName: in.AccountName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "User created successfully",
		"user":      u,
		"directory": outcome.Report(),
	})
}

// Update changes name, email and role of a user.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := handler.ParamID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidID)
	}

	in := new(validate.UpdateUser)
	if err := handler.Bind(c, s.deps.Validator, in); err != nil {
		return nil
	}

	ctx := c.UserContext()

	prior, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return s.storeError(c, err, "read user failed")
	}

	role := models.Role(in.Role)

	u, err := s.deps.Users.Update(ctx, id, controller.Changes{Name: &in.Name, Email: &in.Email, Role: &role})
	if err != nil {
		return s.storeError(c, err, "update user failed")
	}

	s.record(c, models.ActivityUserUpdated, fmt.Sprintf("Updated user %d: %s (%s) role %s", u.ID, u.Name, u.Email, u.Role))

	var changes provision.Changes
	if prior.Name != u.Name {
		changes.DisplayName = &u.Name
	}

	outcome := s.deps.Provisioner.UpdateAccount(ctx, prior.Email, changes)

	return c.JSON(fiber.Map{
		"message":   "User updated successfully",
		"user":      u,
		"directory": outcome.Report(),
	})
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := handler.ParamID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidID)
	}

	if id == handler.Identity(c).ID {
		return handler.Error(c, fiber.StatusBadRequest, "Cannot delete your own account")
	}

	ctx := c.UserContext()

	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return s.storeError(c, err, "read user failed")
	}

	if err = s.deps.Users.Delete(ctx, id); err != nil {
		return s.storeError(c, err, "delete user failed")
	}

	s.record(c, models.ActivityUserDeleted, fmt.Sprintf("Deleted user %d (%s)", u.ID, u.Email))

	outcome := s.deps.Provisioner.DeleteAccount(ctx, u.Email)

	return c.JSON(fiber.Map{
		"message":     "User deleted successfully",
		"deletedUser": u.Identity(),
		"directory":   outcome.Report(),
	})
}

// ResetPassword sets a new password locally and in the directory. Without a
// password in the body one is generated and returned once.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	id, ok := handler.ParamID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidID)
	}

	in := new(validate.ResetPassword)
	if len(c.Body()) > 0 {
		if err := handler.Bind(c, s.deps.Validator, in); err != nil {
			return nil
		}
	}

	ctx := c.UserContext()

	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return s.storeError(c, err, "read user failed")
	}

	if u.DirectoryManaged() && !s.deps.Provisioner.Enabled() {
		return handler.Error(c, fiber.StatusBadRequest,
			"Password is managed by the directory and directory provisioning is disabled")
	}

	secret, generated := in.NewPassword, false
	if secret == "" {
		if secret, err = password.Generate(password.GeneratedLen); err != nil {
			log.Error().Err(err).Msg("can't generate password")

			return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
		}

		generated = true
	}

	if u.HasPassword() {
		if err = s.deps.Authenticator.Local().SetPassword(ctx, u.ID, secret); err != nil {
			return s.storeError(c, err, "reset password failed")
		}
	}

	s.record(c, models.ActivityPasswordReset, fmt.Sprintf("Reset password of user %d (%s)", u.ID, u.Email))

	outcome := s.deps.Provisioner.ResetPassword(ctx, u.Email, secret)

	body := fiber.Map{
		"message":   "Password reset successfully",
		"directory": outcome.Report(),
	}
	if generated {
		body["password"] = secret
	}

	return c.JSON(body)
}

// Stats returns user totals.
func (s *Service) Stats(c *fiber.Ctx) error {
	stats, err := s.deps.Users.Stats(c.UserContext())
	if err != nil {
		return s.storeError(c, err, "read stats failed")
	}

	return c.JSON(fiber.Map{
		"message": "Statistics retrieved successfully",
		"stats":   stats,
	})
}
