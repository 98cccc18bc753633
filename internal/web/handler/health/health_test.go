package health

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/web/webtest"
)

func TestHealth(t *testing.T) {
	alive := true
	env := webtest.New(t).Mount(t, New(func() bool { return alive }))

	resp := env.Do(t, fiber.MethodGet, Path, "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "OK", resp.Map(t)["status"])

	alive = false
	resp = env.Do(t, fiber.MethodGet, Path, "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)
}

func TestDatabase(t *testing.T) {
	env := webtest.New(t).Mount(t, New(nil))

	resp := env.Do(t, fiber.MethodGet, Path+"/db", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "Database connection is healthy", resp.Map(t)["message"])

	sqlDB, err := env.Deps.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp = env.Do(t, fiber.MethodGet, Path+"/db", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.Status)
}

func TestInfo(t *testing.T) {
	env := webtest.New(t).Mount(t, New(nil))

	resp := env.Do(t, fiber.MethodGet, "/api/info", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status)

	body := resp.Map(t)
	assert.Equal(t, "Authenticator", body["name"])
	assert.Equal(t, "local", body["authMode"])
	assert.Equal(t, false, body["provisioning"])
}
