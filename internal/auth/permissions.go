package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/authenticator/authenticator/internal/db/models"
)

var denials = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "auth_authorization_denied_total",
	Help: "Role checks that denied access, differentiated by required role.",
}, []string{"required"})

// RequireRole passes when the caller holds role or is a superadmin.
func RequireRole(id models.Identity, role models.Role) error {
	if id.Role == role || id.Role == models.RoleSuperAdmin {
		return nil
	}

	denials.WithLabelValues(string(role)).Inc()

	return ErrAuthorizationDenied
}

// RequireAdmin passes for admin and superadmin callers.
func RequireAdmin(id models.Identity) error {
	if id.Role == models.RoleAdmin || id.Role == models.RoleSuperAdmin {
		return nil
	}

	denials.WithLabelValues(string(models.RoleAdmin)).Inc()

	return ErrAuthorizationDenied
}
