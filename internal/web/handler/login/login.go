package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

const (
	// Path is the route group of the authentication endpoints.
	Path = handler.APIPath + "/auth"
)

// Service is the login handler service.
type Service struct {
	deps *handler.Deps
}

// Init registers the routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return handler.ErrDepsInvalid
	}

	s.deps = deps

	router.Route(Path, func(r fiber.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
	})

	return nil
}

// response is the body of a successful register or login.
type response struct {
	Message    string          `json:"message,omitempty"`
	Token      string          `json:"token"`
	User       models.Identity `json:"user"`
	AuthMethod auth.Via        `json:"authMethod,omitempty"`
}

// Register creates a local account with role user and logs it in.
func (s *Service) Register(c *fiber.Ctx) error {
	in := new(validate.Register)
	if err := handler.Bind(c, s.deps.Validator, in); err != nil {
		return nil
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		log.Error().Err(err).Msg("can't hash password")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	u, err := s.deps.Users.Create(c.UserContext(), in.Name, in.Email, &hash, models.RoleUser)
	if errors.Is(err, user.ErrEmailTaken) {
		return handler.Error(c, fiber.StatusBadRequest, MsgUserExists)
	}
	if err != nil {
		log.Error().Err(err).Str("email", in.Email).Msg("can't create user")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	signed, err := s.deps.Tokens.Issue(u.Identity())
	if err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("can't issue token")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	client := handler.Client(c)
	s.deps.Activity.Log(c.UserContext(), activity.Entry{
		UserID:      u.ID,
		Type:        models.ActivityRegister,
		Description: "Account registered",
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	})

	log.Info().Uint64("user_id", u.ID).Str("email", u.Email).Msg("user registered")

	return c.Status(fiber.StatusCreated).JSON(response{
		Message: "User created successfully",
		Token:   signed,
		User:    u.Identity(),
	})
}

// Login runs the configured authentication mode. Every rejection answers the same 400.
func (s *Service) Login(c *fiber.Ctx) error {
	in := new(validate.Login)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if in.Email == "" || in.Password == "" {
		return handler.Error(c, fiber.StatusBadRequest, MsgCredentialsRequired)
	}

	res, err := s.deps.Authenticator.Login(c.UserContext(), in.Email, in.Password, handler.Client(c))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return handler.Error(c, fiber.StatusBadRequest, MsgInvalidCredentials)
	}
	if err != nil {
		log.Error().Err(err).Str("email", in.Email).Msg("login failed with server error")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	signed, err := s.deps.Tokens.Issue(res.User.Identity())
	if err != nil {
		log.Error().Err(err).Uint64("user_id", res.User.ID).Msg("can't issue token")

		return handler.Error(c, fiber.StatusInternalServerError, handler.MsgServerError)
	}

	return c.JSON(response{
		Token:      signed,
		User:       res.User.Identity(),
		AuthMethod: res.Via,
	})
}
