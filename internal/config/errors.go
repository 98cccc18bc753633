package config

import (
	"errors"
)

var (
	// ErrConfigNil error if a nil config is passed on.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrInvalidAuthMode error if auth.mode is not local, directory or hybrid.
	ErrInvalidAuthMode = errors.New("config auth.mode must be local, directory or hybrid")

	// ErrInvalidBackend error if directory.backend is unknown.
	ErrInvalidBackend = errors.New("config directory.backend must be ldap, script or simulated")

	// ErrInvalidAlgorithm error if password.algorithm is unknown.
	ErrInvalidAlgorithm = errors.New("config password.algorithm must be argon2id or bcrypt")

	// ErrTokenSecretTooShort error if token.secret is shorter than 32 characters.
	ErrTokenSecretTooShort = errors.New("config token.secret must be at least 32 characters")

	// ErrScriptCommandEmpty error if the script backend has no command.
	ErrScriptCommandEmpty = errors.New("config directory.script.command can not be empty for the script backend")
)
