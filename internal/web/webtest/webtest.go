// Package webtest builds handler dependencies over an in-memory database and a
// simulated directory for handler tests.
package webtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/directory"
	"github.com/authenticator/authenticator/internal/password"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/token"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

// Secret signs the tokens of test environments.
const Secret = "webtest-secret-webtest-secret-0123456789"

// Env is a complete set of handler dependencies.
type Env struct {
	Deps      *handler.Deps
	Directory *directory.Simulated
	App       *fiber.App
}

// Config returns the configuration used by New before options are applied.
func Config() *config.Config {
	return &config.Config{
		Title:     "Authenticator",
		DevMode:   true,
		Auth:      config.Auth{Mode: config.AuthModeLocal},
		Directory: config.Directory{Backend: config.BackendSimulated, BaseDN: "DC=example,DC=com"},
		Password:  config.Password{Algorithm: config.AlgorithmBcrypt, HashCost: 4, MinLength: 6},
		Token:     config.Token{Secret: Secret},
	}
}

// New creates an Env. Options adjust the configuration before anything is built.
func New(t testing.TB, options ...func(*config.Config)) *Env {
	t.Helper()

	cfg := Config()
	for _, o := range options {
		o(cfg)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ActivityLog{}))

	tokens, err := token.NewService(cfg.Token)
	require.NoError(t, err)

	dir := directory.NewSimulated(cfg.Directory.UsersContainer())
	users := user.New(db)
	activities := activity.New(db)
	hasher := password.NewHasher(cfg.Password)

	deps := &handler.Deps{
		Config:        cfg,
		DB:            db,
		Users:         users,
		Activity:      activities,
		Authenticator: auth.NewAuthenticator(cfg, users, dir, hasher, activities),
		Tokens:        tokens,
		Provisioner:   provision.New(cfg.Directory, dir),
		Validator:     validate.New(cfg.Password.MinLength),
		Hasher:        hasher,
	}

	return &Env{
		Deps:      deps,
		Directory: dir,
		App:       fiber.New(fiber.Config{CaseSensitive: true, Immutable: true}),
	}
}

// Mount initializes h on the Env's app.
func (e *Env) Mount(t testing.TB, h handler.Service) *Env {
	t.Helper()

	require.NoError(t, h.Init(e.App, e.Deps))

	return e
}

// User stores a user. An empty pw creates a directory managed account.
func (e *Env) User(t testing.TB, name, email, pw string, role models.Role) *models.User {
	t.Helper()

	var hash *string

	if pw != "" {
		h, err := e.Deps.Hasher.Hash(pw)
		require.NoError(t, err)

		hash = &h
	}

	u, err := e.Deps.Users.Create(context.Background(), name, email, hash, role)
	require.NoError(t, err)

	return u
}

// Token issues a bearer token for u.
func (e *Env) Token(t testing.TB, u *models.User) string {
	t.Helper()

	signed, err := e.Deps.Tokens.Issue(u.Identity())
	require.NoError(t, err)

	return signed
}

// Response is a recorded answer.
type Response struct {
	Status int
	Body   []byte
}

// Map decodes the body into a generic JSON object.
func (r Response) Map(t testing.TB) map[string]any {
	t.Helper()

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))

	return out
}

// Decode decodes the body into v.
func (r Response) Decode(t testing.TB, v any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

// Do sends a request. body is JSON encoded when not nil; bearer is sent when not empty.
func (e *Env) Do(t testing.TB, method, path, bearer string, body any) Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return Response{Status: resp.StatusCode, Body: raw}
}
