// Package login provides the registration and login endpoints.
package login

const (
	// MsgInvalidCredentials is the only answer to a rejected login.
	MsgInvalidCredentials = "Invalid credentials"

	// MsgUserExists is answered when registering an email that is already stored.
	MsgUserExists = "User already exists"

	// MsgCredentialsRequired is answered when email or password is missing.
	MsgCredentialsRequired = "Email and password are required"
)
