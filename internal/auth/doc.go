// Package auth decides who a caller is and what they may do.
//
// The Authenticator implements the login decision over three modes:
//   - local: the password is verified against the hash in the user store
//   - directory: the directory is the only credential authority; a successful bind
//     mirrors the account into the user store without a local password
//   - hybrid: the directory is tried first, any directory failure falls back to local
//
// LocalProvider covers the local credential operations used by login and by the
// password change and reset endpoints.
//
// # Authorization
//
// RequireRole and RequireAdmin check a caller Identity against the role ordering
// user < admin < superadmin, where superadmin passes every check.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - Authenticated: resolve the bearer token into an Identity
//   - RequireRoleHandler: protect routes requiring a specific role
//   - RequireAdminHandler: protect routes requiring admin or superadmin
//
// Example usage:
//
//	authenticator := auth.NewAuthenticator(cfg, users, authority, hasher, activities)
//	result, err := authenticator.Login(ctx, email, password, auth.ClientInfo{IP: ip})
//
//	api.Get("/admin/stats",
//	    auth.Authenticated(tokens),
//	    auth.RequireAdminHandler(),
//	    handler,
//	)
package auth
