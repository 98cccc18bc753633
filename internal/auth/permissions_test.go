package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authenticator/authenticator/internal/db/models"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		caller   models.Role
		required models.Role
		allowed  bool
	}{
		{models.RoleSuperAdmin, models.RoleAdmin, true},
		{models.RoleSuperAdmin, models.RoleUser, true},
		{models.RoleSuperAdmin, models.RoleSuperAdmin, true},
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleAdmin, models.RoleSuperAdmin, false},
		{models.RoleUser, models.RoleUser, true},
		{models.RoleUser, models.RoleAdmin, false},
		{models.RoleUser, models.RoleSuperAdmin, false},
		{"", models.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.caller)+"->"+string(tt.required), func(t *testing.T) {
			err := RequireRole(models.Identity{ID: 1, Role: tt.caller}, tt.required)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, ErrAuthorizationDenied)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(models.Identity{Role: models.RoleAdmin}))
	assert.NoError(t, RequireAdmin(models.Identity{Role: models.RoleSuperAdmin}))
	assert.ErrorIs(t, RequireAdmin(models.Identity{Role: models.RoleUser}), ErrAuthorizationDenied)
	assert.ErrorIs(t, RequireAdmin(models.Identity{Role: "root"}), ErrAuthorizationDenied)
}
