package auth

import "errors"

var (
	// ErrInvalidCredentials is the only rejection a login caller ever sees.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDirectoryUnavailable is returned when the directory is not configured or could not be reached.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrAuthorizationDenied is returned when an authenticated caller lacks the required role.
	ErrAuthorizationDenied = errors.New("access denied: insufficient permissions")

	// ErrUnauthenticated is returned when the request carries no valid credential.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrStore wraps failures of the local user store during login.
	ErrStore = errors.New("user store failure")

	// ErrInvalidOldPassword is returned when the current password given for a change does not match.
	ErrInvalidOldPassword = errors.New("current password is incorrect")

	// ErrDirectoryManaged is returned when a local password change is attempted on a directory account.
	ErrDirectoryManaged = errors.New("password is managed by the directory")
)
