package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/web/webtest"
)

func provisioning(c *config.Config) { c.Directory.ProvisioningEnabled = true }

func directoryReport(t *testing.T, resp webtest.Response) map[string]any {
	t.Helper()

	report, ok := resp.Map(t)["directory"].(map[string]any)
	require.True(t, ok, string(resp.Body))

	return report
}

func TestRoleGates(t *testing.T) {
	env := webtest.New(t).Mount(t, new(Service))
	plain := env.Token(t, env.User(t, "U", "u@x.com", "secret1", models.RoleUser))
	admin := env.Token(t, env.User(t, "A", "a@x.com", "secret1", models.RoleAdmin))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))

	tests := []struct {
		path   string
		bearer string
		status int
	}{
		{Path + "/users", "", fiber.StatusUnauthorized},
		{Path + "/users", plain, fiber.StatusForbidden},
		{Path + "/users", admin, fiber.StatusForbidden},
		{Path + "/users", super, fiber.StatusOK},
		{Path + "/stats", plain, fiber.StatusForbidden},
		{Path + "/stats", admin, fiber.StatusOK},
		{Path + "/stats", super, fiber.StatusOK},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.status, env.Do(t, fiber.MethodGet, tt.path, tt.bearer, nil).Status)
		})
	}
}

func TestCreateProvisionsOnce(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))

	carol := map[string]string{"name": "Carol", "email": "carol@x.com", "password": "secret1"}

	resp := env.Do(t, fiber.MethodPost, Path+"/users", super, carol)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
	assert.Equal(t, "created", directoryReport(t, resp)["status"])
	assert.Equal(t, []string{"carol@x.com"}, env.Directory.Emails())

	resp = env.Do(t, fiber.MethodPost, Path+"/users", super, carol)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "User already exists", resp.Map(t)["error"])

	assert.Equal(t, 1, env.Directory.Calls("create"))
	assert.Equal(t, 1, env.Directory.Calls("find"))
}

func TestCreateKeepsLocalUserWhenDirectoryFails(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))
	env.Directory.Fail("create", errors.New("insufficient access rights"))

	resp := env.Do(t, fiber.MethodPost, Path+"/users", super, map[string]string{
		"name": "Dan", "email": "dan@x.com", "password": "secret1", "role": "admin",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

	report := directoryReport(t, resp)
	assert.Equal(t, "failed", report["status"])
	assert.Equal(t, "saved locally, but the directory create failed", report["warning"])

	u, err := env.Deps.Users.GetByEmail(context.Background(), "dan@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestCreateWithoutProvisioning(t *testing.T) {
	env := webtest.New(t).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))

	resp := env.Do(t, fiber.MethodPost, Path+"/users", super, map[string]string{
		"name": "Eve", "email": "eve@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status)

	report := directoryReport(t, resp)
	assert.Equal(t, "skipped", report["status"])
	assert.Equal(t, "directory provisioning disabled", report["reason"])
	assert.Zero(t, env.Directory.Calls("find"))
}

func TestCreateRejectsInvalidRole(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))

	resp := env.Do(t, fiber.MethodPost, Path+"/users", super, map[string]string{
		"name": "Eve", "email": "eve@x.com", "password": "secret1", "role": "root",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Zero(t, env.Directory.Calls("find"))
}

func TestUpdate(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))
	u := env.User(t, "Fay", "fay@x.com", "secret1", models.RoleUser)
	env.User(t, "Gus", "gus@x.com", "secret1", models.RoleUser)

	path := fmt.Sprintf("%s/users/%d", Path, u.ID)

	resp := env.Do(t, fiber.MethodPut, path, super, map[string]string{"name": "Fay", "email": "gus@x.com", "role": "user"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.Do(t, fiber.MethodPut, path, super, map[string]string{"name": "Fay", "email": "fay@x.com", "role": "admin"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, map[string]any{"status": "skipped", "reason": "no changes"}, directoryReport(t, resp))

	resp = env.Do(t, fiber.MethodPut, path, super, map[string]string{"name": "Faye", "email": "fay@x.com", "role": "admin"})
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "failed", directoryReport(t, resp)["status"])

	resp = env.Do(t, fiber.MethodPut, Path+"/users/999", super, map[string]string{"name": "X", "email": "x@x.com", "role": "user"})
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, fiber.MethodPut, Path+"/users/abc", super, map[string]string{"name": "X", "email": "x@x.com", "role": "user"})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestDelete(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	su := env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin)
	super := env.Token(t, su)

	resp := env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/users/%d", Path, su.ID), super, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "Cannot delete your own account", resp.Map(t)["error"])

	resp = env.Do(t, fiber.MethodPost, Path+"/users", super, map[string]string{
		"name": "Hal", "email": "hal@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status)

	hal, err := env.Deps.Users.GetByEmail(context.Background(), "hal@x.com")
	require.NoError(t, err)

	path := fmt.Sprintf("%s/users/%d", Path, hal.ID)

	resp = env.Do(t, fiber.MethodDelete, path, super, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "deleted", directoryReport(t, resp)["status"])
	assert.Empty(t, env.Directory.Emails())

	resp = env.Do(t, fiber.MethodDelete, path, super, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestResetPassword(t *testing.T) {
	env := webtest.New(t, provisioning).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))
	u := env.User(t, "Ivy", "ivy@x.com", "secret1", models.RoleUser)
	path := fmt.Sprintf("%s/users/%d/reset-password", Path, u.ID)

	resp := env.Do(t, fiber.MethodPost, path, super, map[string]string{"newPassword": "fresh-secret"})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.NotContains(t, resp.Map(t), "password")
	assert.Equal(t, "failed", directoryReport(t, resp)["status"])

	_, err := env.Deps.Authenticator.Local().Authenticate(context.Background(), "ivy@x.com", "fresh-secret")
	require.NoError(t, err)

	resp = env.Do(t, fiber.MethodPost, path, super, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)

	generated, ok := resp.Map(t)["password"].(string)
	require.True(t, ok)
	assert.Len(t, generated, 16)

	_, err = env.Deps.Authenticator.Local().Authenticate(context.Background(), "ivy@x.com", generated)
	require.NoError(t, err)
}

func TestResetPasswordDirectoryManagedWithoutProvisioning(t *testing.T) {
	env := webtest.New(t).Mount(t, new(Service))
	super := env.Token(t, env.User(t, "S", "s@x.com", "secret1", models.RoleSuperAdmin))
	u := env.User(t, "Jo", "jo@x.com", "", models.RoleUser)

	resp := env.Do(t, fiber.MethodPost, fmt.Sprintf("%s/users/%d/reset-password", Path, u.ID), super, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestStats(t *testing.T) {
	env := webtest.New(t).Mount(t, new(Service))
	admin := env.Token(t, env.User(t, "A", "a@x.com", "secret1", models.RoleAdmin))
	env.User(t, "U", "u@x.com", "secret1", models.RoleUser)

	resp := env.Do(t, fiber.MethodGet, Path+"/stats", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var body struct {
		Stats struct {
			Total  int64 `json:"total"`
			Recent int64 `json:"recent"`
		} `json:"stats"`
	}
	resp.Decode(t, &body)
	assert.Equal(t, int64(2), body.Stats.Total)
	assert.Equal(t, int64(2), body.Stats.Recent)
}
