package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/logger"
	adapter "github.com/authenticator/authenticator/internal/logger/adapter/fiber"
)

// accessLine implements the default json format of the access log.
type accessLine struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	UserID uint64 `json:"user_id"`
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		config     adapter.Config
		want       *accessLine
	}{
		{
			name:       "get / logged",
			targetPath: "/",
			want:       &accessLine{IP: "0.0.0.0", Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "unknown path keeps double slash",
			targetPath: "//test",
			want:       &accessLine{IP: "0.0.0.0", Status: fiber.StatusNotFound, URI: "//test", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "query string kept",
			targetPath: "/?test=123",
			want:       &accessLine{IP: "0.0.0.0", Status: fiber.StatusOK, URI: "/?test=123", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "user id from locals",
			targetPath: "/me",
			want:       &accessLine{IP: "0.0.0.0", Status: fiber.StatusOK, URI: "/me", Method: fiber.MethodGet, Host: "example.com", UserID: 42},
		},
		{
			name:       "check alive suppressed",
			targetPath: "/api/health",
			config: adapter.Config{
				Config:        logger.Log{DisableCheckAlive: true},
				CheckAliveURI: "/api/health",
			},
		},
		{
			name:       "skipped by next",
			targetPath: "/",
			config: adapter.Config{
				Next: func(*fiber.Ctx) bool { return true },
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := run(t, tt.targetPath, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			require.NotEmpty(t, output)

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(output), &got))
			assert.Equal(t, *tt.want, got)
		})
	}
}

func TestNewSetsPerformanceHeader(t *testing.T) {
	app := fiber.New()
	app.Use(adapter.New(adapter.Config{Output: &bytes.Buffer{}}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Performance"))
}

func run(t *testing.T, targetPath string, cfg adapter.Config) string {
	t.Helper()

	var buf bytes.Buffer
	cfg.Output = &buf

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello test")
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals(adapter.LocalsUserID, uint64(42))
		return c.SendString("me")
	})
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), -1)
	require.NoError(t, err)

	return buf.String()
}
