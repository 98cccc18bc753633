package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/password"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/token"
	"github.com/authenticator/authenticator/internal/validate"
)

// Deps are the collaborators shared by all handlers. They are built once at
// startup and passed by pointer.
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Users         *user.Store
	Activity      *activity.Store
	Authenticator *auth.Authenticator
	Tokens        *token.Service
	Provisioner   *provision.Provisioner
	Validator     *validate.Validator
	Hasher        *password.Hasher
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil && d.Config != nil && d.DB != nil && d.Users != nil && d.Activity != nil &&
		d.Authenticator != nil && d.Tokens != nil && d.Provisioner != nil && d.Validator != nil && d.Hasher != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps) error
}
